package schema

import (
	"go.uber.org/zap"

	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// Options control a validation run
type Options struct {
	// ApplyDefaults inserts contract defaults for absent fields. Inserted
	// nodes are flagged Implicit.
	ApplyDefaults bool
}

// Violation is one structural problem found in a tree
type Violation struct {
	Path    string
	Message string
}

// String renders the violation as "<path>: <message>"
func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "<root>"
	}
	return stringpool.Concat(path, ": ", v.Message)
}

// Result is the outcome of a validation run
type Result struct {
	Valid      bool
	Violations []Violation
}

// Validator is the black-box contract the structural stage depends on
type Validator interface {
	Validate(n *tree.Node, opts Options) Result
}

// Engine validates trees against one contract
type Engine struct {
	contract *Contract
	logger   *zap.Logger
}

// NewEngine creates an engine for contract
func NewEngine(contract *Contract, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{contract: contract, logger: logger}
}

// Contract returns the contract the engine validates against
func (e *Engine) Contract() *Contract {
	return e.contract
}

// Validate checks n against the contract, collecting every violation
func (e *Engine) Validate(n *tree.Node, opts Options) Result {
	run := &validation{contract: e.contract, opts: opts}
	run.node(&e.contract.Schema, n, "")

	e.logger.Debug("structural validation finished",
		zap.String("contract", e.contract.Version),
		zap.Int("violations", len(run.violations)),
		zap.Int("defaults", run.defaults))

	return Result{Valid: len(run.violations) == 0, Violations: run.violations}
}

type validation struct {
	contract   *Contract
	opts       Options
	violations []Violation
	defaults   int
}

func (v *validation) fail(path, format string, args ...interface{}) {
	v.violations = append(v.violations, Violation{Path: path, Message: stringpool.Sprintf(format, args...)})
}

func (v *validation) node(s *Schema, n *tree.Node, path string) {
	s, err := v.contract.Resolve(s)
	if err != nil {
		v.fail(path, "%v", err)
		return
	}
	if n.IsNull() {
		return
	}

	if !typeMatches(s.Type, n) {
		v.fail(path, "expected %s, got %s", s.Type, n.Describe())
		return
	}

	switch n.Kind {
	case tree.KindMap:
		if s.Type == TypeObject {
			v.object(s, n, path)
		}
	case tree.KindSeq:
		if s.Items != nil {
			for i, item := range n.Items {
				v.node(s.Items, item, tree.IndexPath(path, i))
			}
		}
	case tree.KindScalar:
		if len(s.Enum) > 0 && !contains(s.Enum, n.Value) {
			v.fail(path, "value %q is not one of %v", n.Value, s.Enum)
		}
	}
}

func (v *validation) object(s *Schema, n *tree.Node, path string) {
	for _, name := range s.Required {
		if n.Get(name).IsNull() {
			v.fail(tree.KeyPath(path, name), "required field is missing")
		}
	}

	known := sortedKeys(s.Properties)
	for _, f := range n.Fields {
		prop, ok := s.Properties[f.Key]
		if !ok {
			if !s.allowsAdditional() {
				v.fail(tree.KeyPath(path, f.Key), "unknown field%s", stringpool.DidYouMean(f.Key, known))
			}
			continue
		}
		v.node(prop, f.Value, tree.KeyPath(path, f.Key))
	}

	if v.opts.ApplyDefaults {
		for _, name := range known {
			v.applyDefault(s.Properties[name], n, name)
		}
	}
}

func (v *validation) applyDefault(s *Schema, n *tree.Node, name string) {
	s, err := v.contract.Resolve(s)
	if err != nil || s.Default.Kind == 0 || !n.Get(name).IsNull() {
		return
	}
	def, err := tree.FromYAML(&s.Default)
	if err != nil {
		return
	}
	markImplicit(def)
	n.Set(name, def)
	v.defaults++
}

func markImplicit(n *tree.Node) {
	n.Implicit = true
	n.Line, n.Column = 0, 0
	for _, item := range n.Items {
		markImplicit(item)
	}
	for _, f := range n.Fields {
		markImplicit(f.Value)
	}
}

func typeMatches(typ string, n *tree.Node) bool {
	switch typ {
	case TypeAny:
		return true
	case TypeObject:
		return n.Kind == tree.KindMap
	case TypeArray:
		return n.Kind == tree.KindSeq
	case TypeString:
		return n.Kind == tree.KindScalar && n.Tag != tree.TagBool
	case TypeScalar:
		return n.Kind == tree.KindScalar
	case TypeBoolean:
		return n.Kind == tree.KindScalar && n.Tag == tree.TagBool
	case TypeInteger:
		return n.Kind == tree.KindScalar && n.Tag == tree.TagInt
	case TypeNumber:
		return n.Kind == tree.KindScalar && (n.Tag == tree.TagInt || n.Tag == tree.TagFloat)
	}
	return false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
