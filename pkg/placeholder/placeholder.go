// Package placeholder expands the ${...} and $[...] macros embedded in
// paths, service URLs, policy sections and subscription scopes.
//
// ${key} resolves against the environment: environment.name, name (the
// enclosing entity), api.name (the enclosing API) or a variable, whose value
// is expanded recursively. $[key] resolves against the enclosing API's
// properties and becomes a {{...}} named-value reference. Every ${...}
// token of a string is resolved before any $[...] token.
package placeholder

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/logger"
	"github.com/ajitpratap0/apimtpl/pkg/models"
	"github.com/ajitpratap0/apimtpl/pkg/naming"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// DefaultMaxDepth bounds variable-in-variable expansion
const DefaultMaxDepth = 16

// Fields holding placeholders
const (
	FieldPath         = "path"
	FieldServiceURL   = "serviceUrl"
	FieldScopeProduct = "scope.product"
)

// PolicyField returns the field name of a policy section
func PolicyField(section string) string {
	return stringpool.Concat("policies.", section)
}

var (
	variablePattern = regexp.MustCompile(`\$\{([^}]*)\}`)
	propertyPattern = regexp.MustCompile(`\$\[([^\]]*)\]`)
)

// Key addresses one resolved string
type Key struct {
	Ref   models.Ref
	Field string
}

// Resolved holds every resolved string of a deployment. The model itself is
// left untouched.
type Resolved struct {
	values map[Key]string
	refs   map[models.Ref][]models.Ref
}

// Value returns the resolved string stored for ref and field
func (r *Resolved) Value(ref models.Ref, field string) (string, bool) {
	v, ok := r.values[Key{Ref: ref, Field: field}]
	return v, ok
}

// String returns the resolved string for ref and field, or fallback
func (r *Resolved) String(ref models.Ref, field, fallback string) string {
	if v, ok := r.Value(ref, field); ok {
		return v
	}
	return fallback
}

// Policies returns the resolved policy sections of ref
func (r *Resolved) Policies(ref models.Ref, fallback models.Policies) models.Policies {
	return models.Policies{
		Inbound:  r.String(ref, PolicyField("inbound"), fallback.Inbound),
		Backend:  r.String(ref, PolicyField("backend"), fallback.Backend),
		Outbound: r.String(ref, PolicyField("outbound"), fallback.Outbound),
		OnError:  r.String(ref, PolicyField("on-error"), fallback.OnError),
	}
}

// PropertyRefs returns the properties referenced by $[...] tokens in the
// policies of owner, in first-use order.
func (r *Resolved) PropertyRefs(owner models.Ref) []models.Ref {
	return r.refs[owner]
}

// Len returns the number of resolved strings
func (r *Resolved) Len() int {
	return len(r.values)
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMaxDepth sets the variable expansion ceiling
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver expands placeholders using a naming table
type Resolver struct {
	names    *naming.Table
	maxDepth int
	logger   *zap.Logger
}

// New creates a resolver
func New(names *naming.Table, opts ...Option) *Resolver {
	r := &Resolver{names: names, maxDepth: DefaultMaxDepth, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// scope is the context a string is resolved in
type scope struct {
	env   *models.Environment
	api   *models.API
	owner models.Ref
	field string
}

func (s scope) where() string {
	return stringpool.Sprintf("%s in environment %q, %s", s.owner, s.env.Name, s.field)
}

// Resolve expands every placeholder of d, collecting all violations
func (r *Resolver) Resolve(d *models.Deployment) (*Resolved, error) {
	return r.ResolveContext(context.Background(), d)
}

// ResolveContext is Resolve logging with the fields carried by ctx
func (r *Resolver) ResolveContext(ctx context.Context, d *models.Deployment) (*Resolved, error) {
	out := &Resolved{
		values: make(map[Key]string),
		refs:   make(map[models.Ref][]models.Ref),
	}
	c := errors.NewCollector("placeholder")

	for _, env := range d.Environments {
		for _, api := range env.APIs {
			apiRef := models.APIRef(env.Name, api.Name)
			r.field(out, c, scope{env: env, api: api, owner: apiRef, field: FieldPath}, api.Path)
			r.field(out, c, scope{env: env, api: api, owner: apiRef, field: FieldServiceURL}, api.ServiceURL)
			r.policies(out, c, env, api, apiRef, api.Policies)

			for _, op := range api.Operations {
				opRef := models.OperationRef(env.Name, api.Name, op.Name)
				r.field(out, c, scope{env: env, api: api, owner: opRef, field: FieldPath}, op.Path)
				r.policies(out, c, env, api, opRef, op.Policies)
			}
		}

		for _, p := range env.Products {
			r.policies(out, c, env, nil, models.ProductRef(env.Name, p.Name), p.Policies)
		}

		for _, s := range env.Subscriptions {
			subRef := models.SubscriptionRef(env.Name, s.Name)
			r.field(out, c, scope{env: env, owner: subRef, field: FieldScopeProduct}, s.Scope.Product)
		}

		envCtx := context.WithValue(ctx, logger.EnvironmentKey, env.Name)
		logger.FromContext(envCtx, r.logger).Debug("placeholders resolved",
			zap.Int("strings", out.Len()))
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) policies(out *Resolved, c *errors.Collector, env *models.Environment, api *models.API, owner models.Ref, p models.Policies) {
	for _, section := range p.Sections() {
		r.field(out, c, scope{env: env, api: api, owner: owner, field: PolicyField(section.Name)}, section.Value)
	}
}

func (r *Resolver) field(out *Resolved, c *errors.Collector, s scope, value string) {
	resolved, refs, errs := r.resolveString(value, s)
	for _, err := range errs {
		c.Add(err)
	}
	out.values[Key{Ref: s.owner, Field: s.field}] = resolved

	for _, ref := range refs {
		if !containsRef(out.refs[s.owner], ref) {
			out.refs[s.owner] = append(out.refs[s.owner], ref)
		}
	}
}

// resolveString runs the ${...} pass and then the $[...] pass
func (r *Resolver) resolveString(value string, s scope) (string, []models.Ref, []error) {
	if value == "" {
		return value, nil, nil
	}
	expanded, errs := r.expandVariables(value, s, nil)
	final, refs, propErrs := r.expandProperties(expanded, s)
	return final, refs, append(errs, propErrs...)
}

func (r *Resolver) expandVariables(value string, s scope, chain []string) (string, []error) {
	var errs []error
	result := replaceAll(variablePattern, value, func(token, key string) string {
		switch key {
		case "environment.name":
			return s.env.Name
		case "name":
			return s.owner.Name
		case "api.name":
			if s.api == nil {
				errs = append(errs, errors.Newf(errors.ErrorTypeScope,
					"%s: %s used outside of an api", s.where(), token))
				return token
			}
			return s.api.Name
		}

		v, ok := s.env.Variable(key)
		if !ok {
			errs = append(errs, errors.Newf(errors.ErrorTypePlaceholder,
				"%s: unresolved placeholder %s", s.where(), token))
			return token
		}
		for _, seen := range chain {
			if seen == key {
				errs = append(errs, errors.Newf(errors.ErrorTypePlaceholder,
					"%s: variable cycle %s", s.where(),
					stringpool.JoinPooled(append(append([]string{}, chain...), key), " -> ")))
				return token
			}
		}
		if len(chain) >= r.maxDepth {
			errs = append(errs, errors.Newf(errors.ErrorTypePlaceholder,
				"%s: variable expansion of %s exceeds depth %d", s.where(), token, r.maxDepth))
			return token
		}

		nested, nestedErrs := r.expandVariables(v.Value, s, append(append([]string{}, chain...), key))
		errs = append(errs, nestedErrs...)
		return nested
	})
	return result, errs
}

func (r *Resolver) expandProperties(value string, s scope) (string, []models.Ref, []error) {
	var (
		errs []error
		refs []models.Ref
	)
	result := replaceAll(propertyPattern, value, func(token, key string) string {
		if s.api != nil && s.api.Property(key) != nil {
			ref := models.PropertyRef(s.env.Name, s.api.Name, key)
			if names, ok := r.names.Get(ref); ok {
				refs = append(refs, ref)
				return stringpool.Concat("{{", names.FullDisplayName, "}}")
			}
		}
		errs = append(errs, errors.Newf(errors.ErrorTypePlaceholder,
			"%s: unresolved placeholder %s", s.where(), token))
		return token
	})
	return result, refs, errs
}

// replaceAll calls fn for every match of re in s with the whole token and
// its first group, splicing in the returned text.
func replaceAll(re *regexp.Regexp, s string, fn func(token, key string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		b.WriteString(fn(s[m[0]:m[1]], s[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func containsRef(refs []models.Ref, ref models.Ref) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}
