package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/apimtpl/pkg/models"
)

func deployment() *models.Deployment {
	return &models.Deployment{
		Environments: []*models.Environment{
			{
				Name:       "prod",
				Properties: []*models.Property{{Name: "tenant_id"}},
				APIs: []*models.API{{
					Name:       "orders",
					Properties: []*models.Property{{Name: "apikey", DisplayName: "API key (v2)"}},
					Operations: []*models.Operation{{Name: "list"}, {Name: "get-one", DisplayName: "Get one"}},
				}},
				Products:      []*models.Product{{Name: "starter"}},
				Subscriptions: []*models.Subscription{{Name: "gold", DisplayName: "Gold tier"}},
			},
			{Name: "QA"},
		},
	}
}

func TestResolve(t *testing.T) {
	table := Resolve(deployment())
	assert.Equal(t, 9, table.Len())

	tests := []struct {
		ref  models.Ref
		want Names
	}{
		{models.EnvironmentRef("prod"), Names{"Prod", "prod", "Prod"}},
		{models.EnvironmentRef("QA"), Names{"QA", "QA", "QA"}},
		{models.APIRef("prod", "orders"), Names{"Orders", "prod-orders", "Prod - Orders"}},
		{models.OperationRef("prod", "orders", "list"), Names{"List", "prod-orders/list", "Prod - Orders - List"}},
		{models.OperationRef("prod", "orders", "get-one"), Names{"Get one", "prod-orders/get-one", "Prod - Orders - Get one"}},
		{models.PropertyRef("prod", "orders", "apikey"), Names{"API key (v2)", "prod-orders-apikey", "Prod-Orders-ApiKeyV2"}},
		{models.PropertyRef("prod", "", "tenant_id"), Names{"Tenant_Id", "prod-default-tenant_id", "Prod-Default-TenantId"}},
		{models.ProductRef("prod", "starter"), Names{"Starter", "prod-starter", "Prod - Starter"}},
		{models.SubscriptionRef("prod", "gold"), Names{"Gold tier", "prod-gold", "Prod - Gold tier"}},
	}

	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			got, ok := table.Get(tt.ref)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := table.Get(models.APIRef("QA", "orders"))
	assert.False(t, ok)
	assert.Equal(t, Names{}, table.Lookup(models.APIRef("QA", "orders")))
}

func TestEnvironmentDisplayName(t *testing.T) {
	assert.Equal(t, "Prod", EnvironmentDisplayName("prod"))
	assert.Equal(t, "PROD", EnvironmentDisplayName("PROD"))
	assert.Equal(t, "Pre-Prod", EnvironmentDisplayName("pre-prod"))
}

func TestUserDisplayNameWins(t *testing.T) {
	d := deployment()
	d.Environments[0].DisplayName = "Production"
	table := Resolve(d)

	assert.Equal(t, "Production - Orders", table.Lookup(models.APIRef("prod", "orders")).FullDisplayName)
	assert.Equal(t, "Production-Orders-ApiKeyV2", table.Lookup(models.PropertyRef("prod", "orders", "apikey")).FullDisplayName)
}

func TestPropertyDisplayName(t *testing.T) {
	assert.Equal(t, "Prod-Orders-ApiKey", PropertyDisplayName("prod", "Orders", "api key"))
	assert.Equal(t, "Pre-BillingV2", PropertyDisplayName("pre", "billing.v2"))
}
