// Package models provides the typed deployment model for apimtpl.
//
// Values are decoded from an expanded, per-environment tree. They describe
// exactly what the user wrote plus contract defaults; derived values such as
// display names and resource identifiers are kept in separate tables keyed
// by Ref and are never stored here.
package models

import (
	"strings"

	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// Kind identifies a named entity kind
type Kind string

const (
	KindEnvironment  Kind = "environment"
	KindAPI          Kind = "api"
	KindOperation    Kind = "operation"
	KindProperty     Kind = "property"
	KindProduct      Kind = "product"
	KindSubscription Kind = "subscription"
)

// Kinds lists every entity kind in the order diagnostics report them
var Kinds = []Kind{KindEnvironment, KindAPI, KindOperation, KindProperty, KindProduct, KindSubscription}

// Ref is the stable identity of a named entity. It is comparable and is the
// key of every derived-value table.
type Ref struct {
	Kind        Kind
	Environment string
	// API is set for operations and API-scoped properties
	API  string
	Name string
}

// EnvironmentRef identifies an environment
func EnvironmentRef(env string) Ref {
	return Ref{Kind: KindEnvironment, Environment: env, Name: env}
}

// APIRef identifies an API
func APIRef(env, api string) Ref {
	return Ref{Kind: KindAPI, Environment: env, API: api, Name: api}
}

// OperationRef identifies an operation of an API
func OperationRef(env, api, op string) Ref {
	return Ref{Kind: KindOperation, Environment: env, API: api, Name: op}
}

// PropertyRef identifies a property. An empty api means the environment scope.
func PropertyRef(env, api, name string) Ref {
	return Ref{Kind: KindProperty, Environment: env, API: api, Name: name}
}

// ProductRef identifies a product
func ProductRef(env, name string) Ref {
	return Ref{Kind: KindProduct, Environment: env, Name: name}
}

// SubscriptionRef identifies a subscription
func SubscriptionRef(env, name string) Ref {
	return Ref{Kind: KindSubscription, Environment: env, Name: name}
}

// String renders the ref for diagnostics
func (r Ref) String() string {
	switch {
	case r.Kind == KindEnvironment:
		return stringpool.Sprintf("environment %q", r.Environment)
	case r.Kind == KindAPI:
		return stringpool.Sprintf("api %q", r.Name)
	case r.API != "":
		return stringpool.Sprintf("%s %q of api %q", r.Kind, r.Name, r.API)
	default:
		return stringpool.Sprintf("%s %q", r.Kind, r.Name)
	}
}

// Deployment is the root of the model
type Deployment struct {
	// Parameters are deployment-time values, shared by all environments
	Parameters []Parameter `mapstructure:"parameters"`

	// Validation holds optional naming patterns per entity kind
	Validation Validation `mapstructure:"validation"`

	// Environments are filled by the expander, one independent copy each
	Environments []*Environment `mapstructure:"-"`
}

// Parameter is a name/value pair written to the parameters document
type Parameter struct {
	Name  string      `mapstructure:"name"`
	Value interface{} `mapstructure:"value"`
}

// Patterns are the regular expressions one entity kind must satisfy
type Patterns struct {
	Name        string `mapstructure:"name"`
	DisplayName string `mapstructure:"displayName"`
	Path        string `mapstructure:"path"`
}

// Validation maps every entity kind to its naming patterns
type Validation struct {
	Environment  Patterns `mapstructure:"environment"`
	API          Patterns `mapstructure:"api"`
	Operation    Patterns `mapstructure:"operation"`
	Property     Patterns `mapstructure:"property"`
	Product      Patterns `mapstructure:"product"`
	Subscription Patterns `mapstructure:"subscription"`
}

// For returns the patterns configured for kind
func (v Validation) For(kind Kind) Patterns {
	switch kind {
	case KindEnvironment:
		return v.Environment
	case KindAPI:
		return v.API
	case KindOperation:
		return v.Operation
	case KindProperty:
		return v.Property
	case KindProduct:
		return v.Product
	case KindSubscription:
		return v.Subscription
	}
	return Patterns{}
}

// Environment is one deployment target with its own copy of every collection
type Environment struct {
	Name          string          `mapstructure:"name"`
	DisplayName   string          `mapstructure:"displayName"`
	Configuration *Configuration  `mapstructure:"configuration"`
	Variables     []Variable      `mapstructure:"variables"`
	APIs          []*API          `mapstructure:"apis"`
	Products      []*Product      `mapstructure:"products"`
	Subscriptions []*Subscription `mapstructure:"subscriptions"`
	Properties    []*Property     `mapstructure:"properties"`
}

// Configuration identifies the target API Management service
type Configuration struct {
	ServiceName string `mapstructure:"serviceName"`

	// ServiceNameParameter overrides the template parameter name holding the service name
	ServiceNameParameter string `mapstructure:"serviceNameParameter"`
}

// Variable is a value available to ${...} placeholders
type Variable struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// Variable finds a variable by name
func (e *Environment) Variable(name string) (Variable, bool) {
	for _, v := range e.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// API is one API of an environment
type API struct {
	Name                 string       `mapstructure:"name"`
	DisplayName          string       `mapstructure:"displayName"`
	Description          string       `mapstructure:"description"`
	Path                 string       `mapstructure:"path"`
	ServiceURL           string       `mapstructure:"serviceUrl"`
	Protocols            []string     `mapstructure:"protocols"`
	SubscriptionRequired bool         `mapstructure:"subscriptionRequired"`
	APIRevision          string       `mapstructure:"apiRevision"`
	Policies             Policies     `mapstructure:"policies"`
	Properties           []*Property  `mapstructure:"properties"`
	Operations           []*Operation `mapstructure:"operations"`
}

// Property finds an API-scoped property by name
func (a *API) Property(name string) *Property {
	for _, p := range a.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Operation is one operation of an API
type Operation struct {
	Name               string          `mapstructure:"name"`
	DisplayName        string          `mapstructure:"displayName"`
	Description        string          `mapstructure:"description"`
	Method             string          `mapstructure:"method"`
	Path               string          `mapstructure:"path"`
	Policies           Policies        `mapstructure:"policies"`
	QueryParameters    []*ParameterDef `mapstructure:"queryParameters"`
	TemplateParameters []*ParameterDef `mapstructure:"templateParameters"`
}

// ParameterDef describes a query or template parameter of an operation
type ParameterDef struct {
	Name         string   `mapstructure:"name"`
	Description  string   `mapstructure:"description"`
	Type         string   `mapstructure:"type"`
	Required     bool     `mapstructure:"required"`
	DefaultValue *string  `mapstructure:"defaultValue"`
	Values       []string `mapstructure:"values"`
}

// EffectiveValues returns the allowed values. An empty list with a declared
// default is promoted to contain just that default.
func (p *ParameterDef) EffectiveValues() []string {
	if len(p.Values) == 0 && p.DefaultValue != nil {
		return []string{*p.DefaultValue}
	}
	return p.Values
}

// Policies are the four free-form sections of a policy document
type Policies struct {
	Inbound  string `mapstructure:"inbound"`
	Backend  string `mapstructure:"backend"`
	Outbound string `mapstructure:"outbound"`
	OnError  string `mapstructure:"on-error"`
}

// PolicySection is one named section of a policy document
type PolicySection struct {
	Name  string
	Value string
}

// Sections returns the four sections in envelope order
func (p Policies) Sections() []PolicySection {
	return []PolicySection{
		{Name: "inbound", Value: p.Inbound},
		{Name: "backend", Value: p.Backend},
		{Name: "outbound", Value: p.Outbound},
		{Name: "on-error", Value: p.OnError},
	}
}

// IsEmpty reports whether every section is blank or whitespace
func (p Policies) IsEmpty() bool {
	for _, s := range p.Sections() {
		if strings.TrimSpace(s.Value) != "" {
			return false
		}
	}
	return true
}

// Property is a named value. Value is a literal; Parameter, when set, names a
// deployment parameter that supplies the value at deploy time instead.
type Property struct {
	Name        string   `mapstructure:"name"`
	DisplayName string   `mapstructure:"displayName"`
	Value       string   `mapstructure:"value"`
	Parameter   string   `mapstructure:"parameter"`
	Secret      bool     `mapstructure:"secret"`
	Tags        []string `mapstructure:"tags"`
}

// IsParameterRef reports whether the value comes from a deployment parameter
func (p *Property) IsParameterRef() bool {
	return p.Parameter != ""
}

// Product groups APIs for subscription
type Product struct {
	Name                 string   `mapstructure:"name"`
	DisplayName          string   `mapstructure:"displayName"`
	Description          string   `mapstructure:"description"`
	State                string   `mapstructure:"state"`
	SubscriptionRequired bool     `mapstructure:"subscriptionRequired"`
	ApprovalRequired     bool     `mapstructure:"approvalRequired"`
	APIs                 []string `mapstructure:"apis"`
	Policies             Policies `mapstructure:"policies"`
}

// Subscription grants access to a product
type Subscription struct {
	Name        string `mapstructure:"name"`
	DisplayName string `mapstructure:"displayName"`
	State       string `mapstructure:"state"`
	Scope       Scope  `mapstructure:"scope"`
}

// Scope is what a subscription grants access to
type Scope struct {
	Product string `mapstructure:"product"`
}
