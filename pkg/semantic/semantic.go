// Package semantic checks the rules of a resolved deployment that a
// structural contract cannot express: uniqueness, cross references,
// parameter defaults and naming patterns.
package semantic

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/models"
	"github.com/ajitpratap0/apimtpl/pkg/naming"
	"github.com/ajitpratap0/apimtpl/pkg/placeholder"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// ReservedVariable cannot be declared because ${name} always means the
// enclosing entity
const ReservedVariable = "name"

// HTTPMethods are the accepted operation methods
var HTTPMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "TRACE"}

// Validator runs the semantic checks
type Validator struct {
	logger *zap.Logger
}

// New creates a validator
func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// check carries the state of one validation run
type check struct {
	c        *errors.Collector
	names    *naming.Table
	resolved *placeholder.Resolved
	patterns map[models.Kind]compiled
}

type compiled struct {
	name, displayName, path *regexp.Regexp
}

// Validate checks every environment of d and returns all violations as one error
func (v *Validator) Validate(d *models.Deployment, names *naming.Table, resolved *placeholder.Resolved) error {
	ch := &check{
		c:        errors.NewCollector("semantic"),
		names:    names,
		resolved: resolved,
	}
	ch.patterns = ch.compilePatterns(d.Validation)

	envNames := make([]string, 0, len(d.Environments))
	for _, env := range d.Environments {
		envNames = append(envNames, env.Name)
	}
	ch.duplicates("deployment", "environment", envNames)

	for _, env := range d.Environments {
		ch.environment(env)
	}

	v.logger.Debug("semantic validation finished",
		zap.Int("environments", len(d.Environments)),
		zap.Int("violations", ch.c.Len()))

	return ch.c.Err()
}

func (ch *check) compilePatterns(val models.Validation) map[models.Kind]compiled {
	out := make(map[models.Kind]compiled, len(models.Kinds))
	for _, kind := range models.Kinds {
		p := val.For(kind)
		out[kind] = compiled{
			name:        ch.compile(kind, "name", p.Name),
			displayName: ch.compile(kind, "displayName", p.DisplayName),
			path:        ch.compile(kind, "path", p.Path),
		}
	}
	return out
}

func (ch *check) compile(kind models.Kind, field, pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(stringpool.Concat("^(?:", pattern, ")$"))
	if err != nil {
		ch.c.Addf(errors.ErrorTypeNamingPattern, "validation.%s.%s: invalid pattern %q: %v", kind, field, pattern, err)
		return nil
	}
	return re
}

func where(env string, ref models.Ref) string {
	if ref.Kind == models.KindEnvironment {
		return ref.String()
	}
	return stringpool.Sprintf("%s in environment %q", ref, env)
}

func (ch *check) duplicates(scope, kind string, names []string) {
	seen := make(map[string]bool, len(names))
	reported := make(map[string]bool)
	for _, n := range names {
		if seen[n] && !reported[n] {
			ch.c.Addf(errors.ErrorTypeStructural, "%s: duplicate %s %q", scope, kind, n)
			reported[n] = true
		}
		seen[n] = true
	}
}

func (ch *check) environment(env *models.Environment) {
	envRef := models.EnvironmentRef(env.Name)
	at := where(env.Name, envRef)
	ch.patternsFor(env.Name, envRef, "")

	var apiNames, productNames, subNames, propNames, varNames []string
	for _, a := range env.APIs {
		apiNames = append(apiNames, a.Name)
	}
	for _, p := range env.Products {
		productNames = append(productNames, p.Name)
	}
	for _, s := range env.Subscriptions {
		subNames = append(subNames, s.Name)
	}
	for _, p := range env.Properties {
		propNames = append(propNames, p.Name)
	}
	for _, v := range env.Variables {
		varNames = append(varNames, v.Name)
		if v.Name == ReservedVariable {
			ch.c.Addf(errors.ErrorTypeStructural, "%s: variable %q is reserved", at, v.Name)
		}
	}
	ch.duplicates(at, "api", apiNames)
	ch.duplicates(at, "product", productNames)
	ch.duplicates(at, "subscription", subNames)
	ch.duplicates(at, "property", propNames)
	ch.duplicates(at, "variable", varNames)

	if len(env.APIs) > 0 && (env.Configuration == nil || env.Configuration.ServiceName == "") {
		ch.c.Addf(errors.ErrorTypeStructural, "%s: configuration.serviceName is required when apis are declared", at)
	}

	for _, p := range env.Properties {
		ch.patternsFor(env.Name, models.PropertyRef(env.Name, "", p.Name), "")
	}
	for _, a := range env.APIs {
		ch.api(env, a)
	}
	for _, p := range env.Products {
		ch.product(env, p, apiNames)
	}
	for _, s := range env.Subscriptions {
		ch.subscription(env, s, productNames)
	}
}

func (ch *check) api(env *models.Environment, a *models.API) {
	ref := models.APIRef(env.Name, a.Name)
	at := where(env.Name, ref)

	path := ch.resolved.String(ref, placeholder.FieldPath, a.Path)
	if path == "" {
		ch.c.Addf(errors.ErrorTypeStructural, "%s: path must not be empty", at)
	}
	if len(a.Operations) == 0 {
		ch.c.Addf(errors.ErrorTypeStructural, "%s: at least one operation is required", at)
	}
	ch.patternsFor(env.Name, ref, path)

	var opNames, propNames []string
	for _, op := range a.Operations {
		opNames = append(opNames, op.Name)
		ch.operation(env, a, op)
	}
	for _, p := range a.Properties {
		propNames = append(propNames, p.Name)
		ch.patternsFor(env.Name, models.PropertyRef(env.Name, a.Name, p.Name), "")
	}
	ch.duplicates(at, "operation", opNames)
	ch.duplicates(at, "property", propNames)
}

func (ch *check) operation(env *models.Environment, a *models.API, op *models.Operation) {
	ref := models.OperationRef(env.Name, a.Name, op.Name)
	at := where(env.Name, ref)

	switch {
	case op.Method == "":
		ch.c.Addf(errors.ErrorTypeStructural, "%s: method is required", at)
	case !contains(HTTPMethods, op.Method):
		hint := stringpool.DidYouMean(op.Method, HTTPMethods)
		if upper := strings.ToUpper(op.Method); contains(HTTPMethods, upper) {
			hint = stringpool.Sprintf(" (did you mean %q?)", upper)
		}
		ch.c.Addf(errors.ErrorTypeStructural, "%s: method %q is not one of %v%s", at, op.Method, HTTPMethods, hint)
	}

	path := ch.resolved.String(ref, placeholder.FieldPath, op.Path)
	if path == "" {
		ch.c.Addf(errors.ErrorTypeStructural, "%s: path is required", at)
	}
	ch.patternsFor(env.Name, ref, path)

	ch.parameters(at, "query parameter", op.QueryParameters)
	ch.parameters(at, "template parameter", op.TemplateParameters)
}

func (ch *check) parameters(at, kind string, params []*models.ParameterDef) {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
		if p.DefaultValue == nil {
			continue
		}
		values := p.EffectiveValues()
		if !contains(values, *p.DefaultValue) {
			ch.c.Addf(errors.ErrorTypeStructural, "%s: %s %q default %q is not one of %v",
				at, kind, p.Name, *p.DefaultValue, values)
		}
	}
	ch.duplicates(at, kind, names)
}

func (ch *check) product(env *models.Environment, p *models.Product, apiNames []string) {
	ref := models.ProductRef(env.Name, p.Name)
	at := where(env.Name, ref)
	ch.patternsFor(env.Name, ref, "")

	for _, name := range p.APIs {
		if !contains(apiNames, name) {
			ch.c.Addf(errors.ErrorTypeReferential, "%s references unknown api %q%s",
				at, name, stringpool.DidYouMean(name, apiNames))
		}
	}
	ch.duplicates(at, "api reference", p.APIs)
}

func (ch *check) subscription(env *models.Environment, s *models.Subscription, productNames []string) {
	ref := models.SubscriptionRef(env.Name, s.Name)
	at := where(env.Name, ref)
	ch.patternsFor(env.Name, ref, "")

	product := ch.resolved.String(ref, placeholder.FieldScopeProduct, s.Scope.Product)
	switch {
	case product == "":
		ch.c.Addf(errors.ErrorTypeReferential, "%s: scope.product is required", at)
	case !contains(productNames, product):
		ch.c.Addf(errors.ErrorTypeReferential, "%s references unknown product %q%s",
			at, product, stringpool.DidYouMean(product, productNames))
	}
}

// patternsFor matches the name, derived display name and, when given, the
// resolved path of ref against the patterns configured for its kind.
func (ch *check) patternsFor(env string, ref models.Ref, path string) {
	p := ch.patterns[ref.Kind]
	at := where(env, ref)

	match := func(re *regexp.Regexp, field, value string) {
		if re != nil && !re.MatchString(value) {
			ch.c.Addf(errors.ErrorTypeNamingPattern, "%s: %s %q does not match pattern %q",
				at, field, value, strings.TrimSuffix(strings.TrimPrefix(re.String(), "^(?:"), ")$"))
		}
	}

	match(p.name, "name", ref.Name)
	match(p.displayName, "displayName", ch.names.Lookup(ref).DisplayName)
	if ref.Kind == models.KindAPI || ref.Kind == models.KindOperation {
		match(p.path, "path", path)
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
