package arm

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/models"
	"github.com/ajitpratap0/apimtpl/pkg/naming"
	"github.com/ajitpratap0/apimtpl/pkg/placeholder"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// ServiceNameParameter returns the default template parameter holding the
// service name of env
func ServiceNameParameter(env string) string {
	return stringpool.Concat("serviceName", stringpool.StripNonAlnum(stringpool.TitleCase(env)))
}

// Synthesizer turns a validated deployment into ARM documents
type Synthesizer struct {
	policy   Policy
	names    *naming.Table
	resolved *placeholder.Resolved
	logger   *zap.Logger
}

// New creates a synthesizer
func New(policy Policy, names *naming.Table, resolved *placeholder.Resolved, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		policy:   policy.withDefaults(),
		names:    names,
		resolved: resolved,
		logger:   logger,
	}
}

// Synthesize is a convenience wrapper around New(...).Synthesize(d)
func Synthesize(d *models.Deployment, names *naming.Table, resolved *placeholder.Resolved, policy Policy) (*Output, error) {
	return New(policy, names, resolved, nil).Synthesize(d)
}

// run carries the documents being built
type run struct {
	*Synthesizer
	c        *errors.Collector
	template *Template
}

// envRun carries the state of one environment
type envRun struct {
	*run
	env *models.Environment
	svc string
}

// Synthesize builds the template and the parameters document
func (s *Synthesizer) Synthesize(d *models.Deployment) (*Output, error) {
	r := &run{
		Synthesizer: s,
		c:           errors.NewCollector("synthesis"),
		template: &Template{
			Schema:         TemplateSchema,
			ContentVersion: ContentVersion,
			Parameters:     make(map[string]TemplateParameter),
			Variables:      map[string]interface{}{},
			Resources:      []Resource{},
		},
	}

	for _, env := range d.Environments {
		r.environment(env)
	}

	params := &ParameterFile{
		Schema:         ParametersSchema,
		ContentVersion: ContentVersion,
		Parameters:     make(map[string]ParameterValue, len(d.Parameters)),
	}
	for _, p := range d.Parameters {
		params.Parameters[p.Name] = ParameterValue{Value: p.Value}
	}

	if err := r.c.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("resources synthesized",
		zap.Int("resources", len(r.template.Resources)),
		zap.Int("template_parameters", len(r.template.Parameters)),
		zap.Int("parameters", len(params.Parameters)))

	return &Output{Template: r.template, Parameters: params}, nil
}

// declare registers a template parameter. Registering the same declaration
// twice is a no-op; a conflicting declaration is an error.
func (r *run) declare(name string, p TemplateParameter) {
	if existing, ok := r.template.Parameters[name]; ok {
		if existing != p {
			r.c.Addf(errors.ErrorTypeReferential,
				"template parameter %q is declared twice with different definitions", name)
		}
		return
	}
	r.template.Parameters[name] = p
}

func (r *run) lookup(ref models.Ref) naming.Names {
	n, ok := r.names.Get(ref)
	if !ok {
		r.c.Addf(errors.ErrorTypeInternal, "no derived names for %s", ref)
	}
	return n
}

func (r *run) environment(env *models.Environment) {
	e := &envRun{run: r, env: env, svc: ServiceNameParameter(env.Name)}
	serviceName := ""
	if cfg := env.Configuration; cfg != nil {
		serviceName = cfg.ServiceName
		if cfg.ServiceNameParameter != "" {
			e.svc = cfg.ServiceNameParameter
		}
	}

	before := len(r.template.Resources)

	for _, p := range env.Properties {
		e.property(models.PropertyRef(env.Name, "", p.Name), p, nil)
	}

	var previousAPI string
	for _, api := range env.APIs {
		previousAPI = e.api(api, previousAPI)
	}

	for _, p := range env.Products {
		e.product(p)
	}

	for _, s := range env.Subscriptions {
		e.subscription(s)
	}

	emitted := len(r.template.Resources) - before
	if emitted > 0 {
		r.declare(e.svc, TemplateParameter{Type: parameterTypeString, DefaultValue: serviceName})
	}

	r.logger.Debug("environment synthesized",
		zap.String("environment", env.Name),
		zap.String("service_parameter", e.svc),
		zap.Int("resources", emitted))
}

func (e *envRun) add(res Resource) {
	res.APIVersion = e.policy.APIVersion
	e.template.Resources = append(e.template.Resources, res)
}

func (e *envRun) apiID(api string) string {
	return ResourceID(TypeAPI, e.svc, e.lookup(models.APIRef(e.env.Name, api)).FullName)
}

func (e *envRun) propertyID(ref models.Ref) string {
	return ResourceID(TypeNamedValue, e.svc, e.lookup(ref).FullName)
}

func (e *envRun) productID(product string) string {
	return ResourceID(TypeProduct, e.svc, e.lookup(models.ProductRef(e.env.Name, product)).FullName)
}

// api emits an API with everything it owns and returns its resourceId
func (e *envRun) api(api *models.API, previous string) string {
	ref := models.APIRef(e.env.Name, api.Name)
	names := e.lookup(ref)
	id := e.apiID(api.Name)

	var deps []string
	if e.policy.SequentialAPIs && previous != "" {
		deps = append(deps, previous)
	}

	protocols := api.Protocols
	if protocols == nil {
		protocols = []string{}
	}
	e.add(Resource{
		Type:      TypeAPI,
		Name:      ResourceName(e.svc, names.FullName),
		DependsOn: deps,
		Properties: APIProperties{
			DisplayName:          names.FullDisplayName,
			Description:          api.Description,
			APIRevision:          api.APIRevision,
			SubscriptionRequired: api.SubscriptionRequired,
			ServiceURL:           e.resolved.String(ref, placeholder.FieldServiceURL, api.ServiceURL),
			Path:                 e.resolved.String(ref, placeholder.FieldPath, api.Path),
			Protocols:            protocols,
			IsCurrent:            true,
		},
	})

	for _, p := range api.Properties {
		e.property(models.PropertyRef(e.env.Name, api.Name, p.Name), p, []string{id})
	}

	e.policyResource(TypeAPIPolicy, ref, names.FullName, api.Policies, id)

	var previousOp string
	for _, op := range api.Operations {
		previousOp = e.operation(api, op, id, previousOp)
	}
	return id
}

func (e *envRun) operation(api *models.API, op *models.Operation, apiID, previous string) string {
	ref := models.OperationRef(e.env.Name, api.Name, op.Name)
	names := e.lookup(ref)
	id := ResourceID(TypeOperation, e.svc, strings.Split(names.FullName, "/")...)

	deps := []string{apiID}
	if e.policy.SequentialOperations && previous != "" {
		deps = append(deps, previous)
	}

	props := OperationProperties{
		DisplayName:        names.DisplayName,
		Method:             op.Method,
		URLTemplate:        e.resolved.String(ref, placeholder.FieldPath, op.Path),
		Description:        op.Description,
		TemplateParameters: contracts(op.TemplateParameters),
		Responses:          []interface{}{},
	}
	if len(op.QueryParameters) > 0 {
		props.Request = &RequestContract{QueryParameters: contracts(op.QueryParameters)}
	}

	e.add(Resource{
		Type:       TypeOperation,
		Name:       ResourceName(e.svc, names.FullName),
		DependsOn:  deps,
		Properties: props,
	})

	e.policyResource(TypeOperationPolicy, ref, names.FullName, op.Policies, id)
	return id
}

func contracts(params []*models.ParameterDef) []ParameterContract {
	out := make([]ParameterContract, 0, len(params))
	for _, p := range params {
		c := ParameterContract{
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
			Required:    p.Required,
			Values:      p.EffectiveValues(),
		}
		if p.DefaultValue != nil {
			c.DefaultValue = *p.DefaultValue
		}
		out = append(out, c)
	}
	return out
}

// policyResource emits the policy of owner unless every resolved section is
// blank. It depends on the owner and on every property it references.
func (e *envRun) policyResource(resourceType string, owner models.Ref, ownerFullName string, fallback models.Policies, ownerID string) {
	policies := e.resolved.Policies(owner, fallback)
	if policies.IsEmpty() {
		return
	}

	deps := []string{ownerID}
	for _, ref := range e.resolved.PropertyRefs(owner) {
		deps = append(deps, e.propertyID(ref))
	}

	e.add(Resource{
		Type:      resourceType,
		Name:      ResourceName(e.svc, ownerFullName, policyResourceName),
		DependsOn: deps,
		Properties: PolicyProperties{
			Value:  PolicyDocument(policies),
			Format: policyFormat,
		},
	})
}

// property emits a named value. A parameter-backed value is read from a
// securestring template parameter so no literal ends up in the template.
func (e *envRun) property(ref models.Ref, p *models.Property, deps []string) {
	names := e.lookup(ref)
	value := p.Value
	if p.IsParameterRef() {
		value = Parameters(p.Parameter)
		e.declare(p.Parameter, TemplateParameter{Type: parameterTypeSecure})
	}

	e.add(Resource{
		Type:      TypeNamedValue,
		Name:      ResourceName(e.svc, names.FullName),
		DependsOn: deps,
		Properties: NamedValueProperties{
			DisplayName: names.FullDisplayName,
			Value:       value,
			Secret:      p.Secret,
			Tags:        p.Tags,
		},
	})
}

func (e *envRun) product(p *models.Product) {
	ref := models.ProductRef(e.env.Name, p.Name)
	names := e.lookup(ref)
	id := e.productID(p.Name)

	props := ProductProperties{
		DisplayName:          names.FullDisplayName,
		Description:          p.Description,
		State:                p.State,
		SubscriptionRequired: p.SubscriptionRequired,
	}
	if p.SubscriptionRequired {
		approval := p.ApprovalRequired
		props.ApprovalRequired = &approval
	}
	e.add(Resource{
		Type:       TypeProduct,
		Name:       ResourceName(e.svc, names.FullName),
		Properties: props,
	})

	for _, api := range p.APIs {
		apiNames := e.lookup(models.APIRef(e.env.Name, api))
		e.add(Resource{
			Type:       TypeProductAPI,
			Name:       ResourceName(e.svc, names.FullName, apiNames.FullName),
			DependsOn:  []string{id, e.apiID(api)},
			Properties: map[string]interface{}{},
		})
	}

	e.policyResource(TypeProductPolicy, ref, names.FullName, p.Policies, id)
}

func (e *envRun) subscription(s *models.Subscription) {
	ref := models.SubscriptionRef(e.env.Name, s.Name)
	names := e.lookup(ref)
	product := e.resolved.String(ref, placeholder.FieldScopeProduct, s.Scope.Product)
	productNames := e.lookup(models.ProductRef(e.env.Name, product))

	e.add(Resource{
		Type:      TypeSubscription,
		Name:      ResourceName(e.svc, names.FullName),
		DependsOn: []string{e.productID(product)},
		Properties: SubscriptionProperties{
			DisplayName: names.FullDisplayName,
			Scope:       ProductScope(e.svc, productNames.FullName),
			State:       s.State,
		},
	})
}
