// Package naming derives display names and canonical identities for every
// named entity of a deployment.
package naming

import (
	"github.com/ajitpratap0/apimtpl/pkg/models"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

const (
	// NameSeparator joins the raw names of a containment chain
	NameSeparator = "-"
	// DisplaySeparator joins the display names of a containment chain
	DisplaySeparator = " - "
	// DefaultScope is the intermediate scope of environment-level properties
	DefaultScope = "default"
)

// Names are the derived identities of one entity
type Names struct {
	DisplayName     string
	FullName        string
	FullDisplayName string
}

// Table maps entity refs to their derived names
type Table struct {
	names map[models.Ref]Names
}

// Get returns the names of ref
func (t *Table) Get(ref models.Ref) (Names, bool) {
	n, ok := t.names[ref]
	return n, ok
}

// Lookup returns the names of ref, or zero Names when unknown
func (t *Table) Lookup(ref models.Ref) Names {
	return t.names[ref]
}

// Len returns the number of named entities
func (t *Table) Len() int {
	return len(t.names)
}

// Resolve computes names for every entity of every environment
func Resolve(d *models.Deployment) *Table {
	t := &Table{names: make(map[models.Ref]Names)}
	for _, env := range d.Environments {
		t.environment(env)
	}
	return t
}

func (t *Table) environment(env *models.Environment) {
	envDisplay := env.DisplayName
	if envDisplay == "" {
		envDisplay = EnvironmentDisplayName(env.Name)
	}
	t.names[models.EnvironmentRef(env.Name)] = Names{
		DisplayName:     envDisplay,
		FullName:        env.Name,
		FullDisplayName: envDisplay,
	}

	defaultDisplay := stringpool.TitleCase(DefaultScope)
	for _, p := range env.Properties {
		display := DisplayName(p.DisplayName, p.Name)
		t.names[models.PropertyRef(env.Name, "", p.Name)] = Names{
			DisplayName:     display,
			FullName:        FullName(env.Name, DefaultScope, p.Name),
			FullDisplayName: PropertyDisplayName(envDisplay, defaultDisplay, display),
		}
	}

	for _, api := range env.APIs {
		apiDisplay := DisplayName(api.DisplayName, api.Name)
		apiNames := Names{
			DisplayName:     apiDisplay,
			FullName:        FullName(env.Name, api.Name),
			FullDisplayName: FullDisplayName(envDisplay, apiDisplay),
		}
		t.names[models.APIRef(env.Name, api.Name)] = apiNames

		for _, p := range api.Properties {
			display := DisplayName(p.DisplayName, p.Name)
			t.names[models.PropertyRef(env.Name, api.Name, p.Name)] = Names{
				DisplayName:     display,
				FullName:        FullName(env.Name, api.Name, p.Name),
				FullDisplayName: PropertyDisplayName(envDisplay, apiDisplay, display),
			}
		}

		for _, op := range api.Operations {
			display := DisplayName(op.DisplayName, op.Name)
			t.names[models.OperationRef(env.Name, api.Name, op.Name)] = Names{
				DisplayName:     display,
				FullName:        OperationFullName(apiNames.FullName, op.Name),
				FullDisplayName: FullDisplayName(apiNames.FullDisplayName, display),
			}
		}
	}

	for _, p := range env.Products {
		display := DisplayName(p.DisplayName, p.Name)
		t.names[models.ProductRef(env.Name, p.Name)] = Names{
			DisplayName:     display,
			FullName:        FullName(env.Name, p.Name),
			FullDisplayName: FullDisplayName(envDisplay, display),
		}
	}

	for _, s := range env.Subscriptions {
		display := DisplayName(s.DisplayName, s.Name)
		t.names[models.SubscriptionRef(env.Name, s.Name)] = Names{
			DisplayName:     display,
			FullName:        FullName(env.Name, s.Name),
			FullDisplayName: FullDisplayName(envDisplay, display),
		}
	}
}

// DisplayName returns the user supplied display name, or the title-cased name
func DisplayName(userValue, name string) string {
	if userValue != "" {
		return userValue
	}
	return stringpool.TitleCase(name)
}

// EnvironmentDisplayName is DisplayName for environments: names starting
// with an uppercase letter are kept as written.
func EnvironmentDisplayName(name string) string {
	if stringpool.StartsWithUpper(name) {
		return name
	}
	return stringpool.TitleCase(name)
}

// FullName joins a containment chain of raw names, outermost first
func FullName(chain ...string) string {
	return stringpool.JoinPooled(chain, NameSeparator)
}

// OperationFullName appends an operation to its API's full name
func OperationFullName(apiFullName, op string) string {
	return stringpool.Concat(apiFullName, "/", op)
}

// FullDisplayName joins a containment chain of display names
func FullDisplayName(chain ...string) string {
	return stringpool.JoinPooled(chain, DisplaySeparator)
}

// PropertyDisplayName builds the display name properties are referenced by
// in {{...}} placeholders: each segment title-cased and reduced to letters
// and digits.
func PropertyDisplayName(chain ...string) string {
	parts := make([]string, len(chain))
	for i, s := range chain {
		parts[i] = stringpool.StripNonAlnum(stringpool.TitleCase(s))
	}
	return stringpool.JoinPooled(parts, NameSeparator)
}
