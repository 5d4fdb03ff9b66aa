package arm

import (
	"strings"

	"github.com/ajitpratap0/apimtpl/pkg/models"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// quote escapes s for use inside a single-quoted template expression string
func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Parameters returns the expression reading template parameter name
func Parameters(name string) string {
	return stringpool.Concat("[parameters('", quote(name), "')]")
}

// ResourceName returns the name expression of a child resource of the
// service held in parameter svc.
//
//	ResourceName("svc", "prod-orders") // [concat(parameters('svc'), '/prod-orders')]
func ResourceName(svc string, path ...string) string {
	return stringpool.Concat("[concat(parameters('", quote(svc), "'), '/",
		quote(stringpool.JoinPooled(path, "/")), "')]")
}

// ResourceID returns the resourceId expression of a child resource of the
// service held in parameter svc. Each segment is one level of nesting.
func ResourceID(resourceType, svc string, segments ...string) string {
	b := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(b, stringpool.Small)

	b.WriteString("[resourceId('")
	b.WriteString(resourceType)
	b.WriteString("', parameters('")
	b.WriteString(quote(svc))
	b.WriteString("')")
	for _, s := range segments {
		b.WriteString(", '")
		b.WriteString(quote(s))
		b.WriteString("'")
	}
	b.WriteString(")]")
	return b.String()
}

// ProductScope returns the subscription scope expression of a product
func ProductScope(svc, productFullName string) string {
	return stringpool.Concat("[concat(resourceId('", TypeService, "', parameters('", quote(svc),
		"')), '/products/', '", quote(productFullName), "')]")
}

// PolicyDocument wraps the four sections of p into a policy envelope. Blank
// sections inherit the parent scope through <base />.
func PolicyDocument(p models.Policies) string {
	b := stringpool.GetBuilder(stringpool.Large)
	defer stringpool.PutBuilder(b, stringpool.Large)

	b.WriteString("<policies>")
	for _, s := range p.Sections() {
		name, value := s.Name, s.Value
		if strings.TrimSpace(value) == "" {
			value = passThroughPolicyMarker
		}
		b.WriteString("<")
		b.WriteString(name)
		b.WriteString(">")
		b.WriteString(value)
		b.WriteString("</")
		b.WriteString(name)
		b.WriteString(">")
	}
	b.WriteString("</policies>")
	return b.String()
}
