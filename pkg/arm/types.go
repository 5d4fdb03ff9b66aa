// Package arm synthesizes Azure Resource Manager documents for API Management.
package arm

// Document names used as keys of the generated output
const (
	TemplateFile   = "azuredeploy.json"
	ParametersFile = "azuredeploy.parameters.json"
)

// Schema URLs and versions of the generated documents
const (
	TemplateSchema   = "https://schema.management.azure.com/schemas/2015-01-01/deploymentTemplate.json#"
	ParametersSchema = "https://schema.management.azure.com/schemas/2015-01-01/deploymentParameters.json#"
	ContentVersion   = "1.0.0.0"
)

// Resource types
const (
	TypeService             = "Microsoft.ApiManagement/service"
	TypeAPI                 = "Microsoft.ApiManagement/service/apis"
	TypeAPIPolicy           = "Microsoft.ApiManagement/service/apis/policies"
	TypeOperation           = "Microsoft.ApiManagement/service/apis/operations"
	TypeOperationPolicy     = "Microsoft.ApiManagement/service/apis/operations/policies"
	TypeNamedValue          = "Microsoft.ApiManagement/service/properties"
	TypeProduct             = "Microsoft.ApiManagement/service/products"
	TypeProductAPI          = "Microsoft.ApiManagement/service/products/apis"
	TypeProductPolicy       = "Microsoft.ApiManagement/service/products/policies"
	TypeSubscription        = "Microsoft.ApiManagement/service/subscriptions"
	parameterTypeString     = "string"
	parameterTypeSecure     = "securestring"
	policyResourceName      = "policy"
	policyFormat            = "xml"
	passThroughPolicyMarker = "<base />"
)

// Template is an ARM deployment template
type Template struct {
	Schema         string                       `json:"$schema"`
	ContentVersion string                       `json:"contentVersion"`
	Parameters     map[string]TemplateParameter `json:"parameters"`
	Variables      map[string]interface{}       `json:"variables"`
	Resources      []Resource                   `json:"resources"`
}

// TemplateParameter declares one template parameter
type TemplateParameter struct {
	Type         string      `json:"type"`
	DefaultValue interface{} `json:"defaultValue,omitempty"`
}

// Resource is one node of the resource graph
type Resource struct {
	Type       string      `json:"type"`
	APIVersion string      `json:"apiVersion"`
	Name       string      `json:"name"`
	DependsOn  []string    `json:"dependsOn,omitempty"`
	Properties interface{} `json:"properties"`
}

// APIProperties are the properties of an API resource
type APIProperties struct {
	DisplayName          string   `json:"displayName"`
	Description          string   `json:"description,omitempty"`
	APIRevision          string   `json:"apiRevision"`
	SubscriptionRequired bool     `json:"subscriptionRequired"`
	ServiceURL           string   `json:"serviceUrl,omitempty"`
	Path                 string   `json:"path"`
	Protocols            []string `json:"protocols"`
	IsCurrent            bool     `json:"isCurrent"`
}

// OperationProperties are the properties of an operation resource
type OperationProperties struct {
	DisplayName        string              `json:"displayName"`
	Method             string              `json:"method"`
	URLTemplate        string              `json:"urlTemplate"`
	Description        string              `json:"description,omitempty"`
	TemplateParameters []ParameterContract `json:"templateParameters"`
	Request            *RequestContract    `json:"request,omitempty"`
	Responses          []interface{}       `json:"responses"`
}

// RequestContract describes the request of an operation
type RequestContract struct {
	QueryParameters []ParameterContract `json:"queryParameters"`
}

// ParameterContract describes a query or template parameter
type ParameterContract struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Type         string   `json:"type"`
	Required     bool     `json:"required"`
	DefaultValue string   `json:"defaultValue,omitempty"`
	Values       []string `json:"values,omitempty"`
}

// PolicyProperties are the properties of a policy resource
type PolicyProperties struct {
	Value  string `json:"value"`
	Format string `json:"format"`
}

// NamedValueProperties are the properties of a named value resource
type NamedValueProperties struct {
	DisplayName string   `json:"displayName"`
	Value       string   `json:"value"`
	Secret      bool     `json:"secret"`
	Tags        []string `json:"tags,omitempty"`
}

// ProductProperties are the properties of a product resource
type ProductProperties struct {
	DisplayName          string `json:"displayName"`
	Description          string `json:"description,omitempty"`
	State                string `json:"state"`
	SubscriptionRequired bool   `json:"subscriptionRequired"`
	ApprovalRequired     *bool  `json:"approvalRequired,omitempty"`
}

// SubscriptionProperties are the properties of a subscription resource
type SubscriptionProperties struct {
	DisplayName string `json:"displayName"`
	Scope       string `json:"scope"`
	State       string `json:"state"`
}

// ParameterFile is an ARM deployment parameters document
type ParameterFile struct {
	Schema         string                    `json:"$schema"`
	ContentVersion string                    `json:"contentVersion"`
	Parameters     map[string]ParameterValue `json:"parameters"`
}

// ParameterValue is one entry of a parameters document
type ParameterValue struct {
	Value interface{} `json:"value"`
}

// Output holds the synthesized documents
type Output struct {
	Template   *Template
	Parameters *ParameterFile
}

// Documents returns the non-empty documents keyed by file name
func (o *Output) Documents() map[string]interface{} {
	docs := make(map[string]interface{}, 2)
	if o.Template != nil && len(o.Template.Resources) > 0 {
		docs[TemplateFile] = o.Template
	}
	if o.Parameters != nil && len(o.Parameters.Parameters) > 0 {
		docs[ParametersFile] = o.Parameters
	}
	return docs
}
