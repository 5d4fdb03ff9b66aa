package schema

import (
	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// CompatibilityMode defines how a new contract version is checked against
// the previous one
type CompatibilityMode string

const (
	// CompatibilityNone allows any change
	CompatibilityNone CompatibilityMode = "NONE"
	// CompatibilityBackward ensures documents valid under the old contract stay valid
	CompatibilityBackward CompatibilityMode = "BACKWARD"
)

// Change is one difference between two contracts
type Change struct {
	Path   string
	Reason string
}

// String renders the change for diagnostics
func (c Change) String() string {
	return Violation{Path: c.Path, Message: c.Reason}.String()
}

// CheckCompatibility verifies that next may replace prev under mode
func CheckCompatibility(prev, next *Contract, mode CompatibilityMode) error {
	switch mode {
	case CompatibilityNone:
		return nil
	case CompatibilityBackward:
		changes := BreakingChanges(prev, next)
		if len(changes) == 0 {
			return nil
		}
		c := errors.NewCollector("contract")
		for _, ch := range changes {
			c.Addf(errors.ErrorTypeConfig, "%s", ch.String())
		}
		return c.Err()
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown compatibility mode: %s", mode)
	}
}

// BreakingChanges lists the changes in next that could reject a document
// accepted by prev: removed fields, changed types, new required fields,
// narrowed enums and closed objects.
func BreakingChanges(prev, next *Contract) []Change {
	var changes []Change
	seen := map[[2]*Schema]bool{}

	var walk func(a, b *Schema, path string)
	walk = func(a, b *Schema, path string) {
		a, errA := prev.Resolve(a)
		b, errB := next.Resolve(b)
		if errA != nil || errB != nil || a == nil || b == nil {
			return
		}
		key := [2]*Schema{a, b}
		if seen[key] {
			return
		}
		seen[key] = true

		if a.Type != b.Type && b.Type != TypeAny {
			changes = append(changes, Change{Path: path, Reason: "type changed from " + a.Type + " to " + b.Type})
			return
		}

		for _, name := range b.Required {
			if !contains(a.Required, name) {
				changes = append(changes, Change{Path: tree.KeyPath(path, name), Reason: "field became required"})
			}
		}
		for _, name := range sortedKeys(a.Properties) {
			nb, ok := b.Properties[name]
			if !ok {
				if !b.allowsAdditional() {
					changes = append(changes, Change{Path: tree.KeyPath(path, name), Reason: "field removed"})
				}
				continue
			}
			walk(a.Properties[name], nb, tree.KeyPath(path, name))
		}
		if a.allowsAdditional() && !b.allowsAdditional() && len(a.Properties) == 0 {
			changes = append(changes, Change{Path: path, Reason: "object no longer accepts additional fields"})
		}
		if len(b.Enum) > 0 {
			if len(a.Enum) == 0 {
				changes = append(changes, Change{Path: path, Reason: "enum introduced"})
			} else {
				for _, v := range a.Enum {
					if !contains(b.Enum, v) {
						changes = append(changes, Change{Path: path, Reason: "enum value " + v + " removed"})
					}
				}
			}
		}
		if a.Items != nil && b.Items != nil {
			walk(a.Items, b.Items, path+"[]")
		}
	}

	walk(&prev.Schema, &next.Schema, "")
	return changes
}
