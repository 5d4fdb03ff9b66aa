// Package schema validates configuration trees against versioned structural
// contracts and applies the defaults those contracts declare.
package schema

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// Type names understood by the engine
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeScalar  = "scalar"
	TypeAny     = "any"
)

const refPrefix = "#/definitions/"

// Schema describes the expected shape of one node
type Schema struct {
	Type                 string             `yaml:"type"`
	Description          string             `yaml:"description,omitempty"`
	Properties           map[string]*Schema `yaml:"properties,omitempty"`
	Items                *Schema            `yaml:"items,omitempty"`
	Required             []string           `yaml:"required,omitempty"`
	Default              yaml.Node          `yaml:"default,omitempty"`
	Enum                 []string           `yaml:"enum,omitempty"`
	AdditionalProperties *bool              `yaml:"additionalProperties,omitempty"`
	Ref                  string             `yaml:"$ref,omitempty"`
}

// Contract is a complete, versioned schema document
type Contract struct {
	Version     string             `yaml:"version"`
	Schema      `yaml:",inline"`
	Definitions map[string]*Schema `yaml:"definitions,omitempty"`
}

// ParseContract decodes and checks a contract document
func ParseContract(data []byte) (*Contract, error) {
	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse contract")
	}
	if c.Version == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "contract has no version")
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolve follows $ref links until a concrete schema is found
func (c *Contract) Resolve(s *Schema) (*Schema, error) {
	seen := map[string]bool{}
	for s != nil && s.Ref != "" {
		if seen[s.Ref] {
			return nil, errors.Newf(errors.ErrorTypeConfig, "contract %s: circular reference %q", c.Version, s.Ref)
		}
		seen[s.Ref] = true

		name := strings.TrimPrefix(s.Ref, refPrefix)
		target, ok := c.Definitions[name]
		if !ok || name == s.Ref {
			return nil, errors.Newf(errors.ErrorTypeConfig, "contract %s: unknown reference %q", c.Version, s.Ref)
		}
		s = target
	}
	return s, nil
}

// check verifies every reference, type and default of the contract once, so
// that validation never has to deal with a broken contract.
func (c *Contract) check() error {
	var walk func(s *Schema, at string) error
	visited := map[*Schema]bool{}

	walk = func(s *Schema, at string) error {
		if s == nil || visited[s] {
			return nil
		}
		visited[s] = true

		resolved, err := c.Resolve(s)
		if err != nil {
			return err
		}
		switch resolved.Type {
		case TypeObject, TypeArray, TypeString, TypeBoolean, TypeInteger, TypeNumber, TypeScalar, TypeAny:
		default:
			return errors.Newf(errors.ErrorTypeConfig, "contract %s: %s: unknown type %q", c.Version, at, resolved.Type)
		}
		if resolved.Default.Kind != 0 {
			if _, err := tree.FromYAML(&resolved.Default); err != nil {
				return err
			}
		}
		for _, name := range sortedKeys(resolved.Properties) {
			if err := walk(resolved.Properties[name], tree.KeyPath(at, name)); err != nil {
				return err
			}
		}
		return walk(resolved.Items, at+"[]")
	}

	if err := walk(&c.Schema, "<root>"); err != nil {
		return err
	}
	for _, name := range sortedKeys(c.Definitions) {
		if err := walk(c.Definitions[name], refPrefix+name); err != nil {
			return err
		}
	}
	return nil
}

// allowsAdditional reports whether unknown keys are accepted. Objects that
// declare properties are closed unless they opt in.
func (s *Schema) allowsAdditional() bool {
	if s.AdditionalProperties != nil {
		return *s.AdditionalProperties
	}
	return len(s.Properties) == 0
}

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
