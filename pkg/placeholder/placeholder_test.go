package placeholder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/models"
	"github.com/ajitpratap0/apimtpl/pkg/naming"
)

func environment() *models.Environment {
	return &models.Environment{
		Name: "prod",
		Variables: []models.Variable{
			{Name: "host", Value: "${environment.name}.example.com"},
			{Name: "backend", Value: "https://${host}/${api.name}"},
		},
		APIs: []*models.API{{
			Name:       "orders",
			Path:       "${environment.name}/${name}",
			ServiceURL: "${backend}",
			Properties: []*models.Property{{Name: "api-key"}},
			Policies: models.Policies{
				Inbound: `<set-header name="key"><value>$[api-key]</value></set-header>`,
			},
			Operations: []*models.Operation{{
				Name: "list",
				Path: "/${name}",
				Policies: models.Policies{
					Outbound: "<cache-store duration=\"$[api-key]\" /><!-- ${api.name} -->",
				},
			}},
		}},
		Products: []*models.Product{{
			Name:     "starter",
			Policies: models.Policies{Inbound: "<rate-limit calls=\"5\" /><!-- ${name} -->"},
		}},
		Subscriptions: []*models.Subscription{{Name: "gold", Scope: models.Scope{Product: "starter"}}},
	}
}

func resolve(t *testing.T, env *models.Environment, opts ...Option) (*Resolved, error) {
	t.Helper()
	d := &models.Deployment{Environments: []*models.Environment{env}}
	opts = append(opts, WithLogger(zaptest.NewLogger(t)))
	return New(naming.Resolve(d), opts...).Resolve(d)
}

func TestResolve(t *testing.T) {
	env := environment()
	res, err := resolve(t, env)
	require.NoError(t, err)

	api := models.APIRef("prod", "orders")
	op := models.OperationRef("prod", "orders", "list")

	assert.Equal(t, "prod/orders", res.String(api, FieldPath, ""))
	assert.Equal(t, "https://prod.example.com/orders", res.String(api, FieldServiceURL, ""))
	assert.Equal(t, "/list", res.String(op, FieldPath, ""))
	assert.Equal(t, `<set-header name="key"><value>{{Prod-Orders-ApiKey}}</value></set-header>`,
		res.Policies(api, models.Policies{}).Inbound)
	assert.Equal(t, `<cache-store duration="{{Prod-Orders-ApiKey}}" /><!-- orders -->`,
		res.Policies(op, models.Policies{}).Outbound)
	assert.Equal(t, `<rate-limit calls="5" /><!-- starter -->`,
		res.Policies(models.ProductRef("prod", "starter"), models.Policies{}).Inbound)
	assert.Equal(t, "starter", res.String(models.SubscriptionRef("prod", "gold"), FieldScopeProduct, ""))

	assert.Equal(t, []models.Ref{models.PropertyRef("prod", "orders", "api-key")}, res.PropertyRefs(api))
	assert.Empty(t, res.PropertyRefs(models.ProductRef("prod", "starter")))

	// the model is never rewritten
	assert.Equal(t, "${environment.name}/${name}", env.APIs[0].Path)
}

func TestEnvironmentNameInPath(t *testing.T) {
	for _, name := range []string{"dev", "prod"} {
		env := environment()
		env.Name = name
		res, err := resolve(t, env)
		require.NoError(t, err)
		assert.Equal(t, name+"/orders", res.String(models.APIRef(name, "orders"), FieldPath, ""))
	}
}

func TestAPINameOutsideAPIIsScopeError(t *testing.T) {
	env := environment()
	env.Subscriptions[0].Scope.Product = "${api.name}"

	_, err := resolve(t, env)
	require.Error(t, err)
	assert.True(t, errors.HasType(err, errors.ErrorTypeScope))
	assert.Contains(t, err.Error(), "${api.name}")
	assert.Contains(t, err.Error(), `subscription "gold" in environment "prod", scope.product`)
}

func TestUnknownPropertyIsUnresolved(t *testing.T) {
	env := environment()
	env.APIs[0].Policies.Backend = "$[missing]"
	env.Products[0].Policies.Outbound = "$[api-key]"

	_, err := resolve(t, env)
	require.Error(t, err)
	assert.True(t, errors.HasType(err, errors.ErrorTypePlaceholder))
	assert.Contains(t, err.Error(), `api "orders" in environment "prod", policies.backend: unresolved placeholder $[missing]`)
	assert.Contains(t, err.Error(), `product "starter" in environment "prod", policies.outbound: unresolved placeholder $[api-key]`)
}

func TestUnknownVariable(t *testing.T) {
	env := environment()
	env.APIs[0].Path = "${nope}"

	_, err := resolve(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved placeholder ${nope}")
}

func TestVariableCycleIsReported(t *testing.T) {
	env := environment()
	env.Variables = []models.Variable{
		{Name: "a", Value: "${b}"},
		{Name: "b", Value: "x${a}"},
	}
	env.APIs[0].ServiceURL = "${a}"

	_, err := resolve(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable cycle a -> b -> a")
}

func TestVariableDepthCeiling(t *testing.T) {
	env := environment()
	env.Variables = []models.Variable{
		{Name: "v1", Value: "${v2}"},
		{Name: "v2", Value: "${v3}"},
		{Name: "v3", Value: "${v4}"},
		{Name: "v4", Value: "end"},
	}
	env.APIs[0].ServiceURL = "${v1}"

	res, err := resolve(t, env)
	require.NoError(t, err)
	assert.Equal(t, "end", res.String(models.APIRef("prod", "orders"), FieldServiceURL, ""))

	_, err = resolve(t, env, WithMaxDepth(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable expansion of ${v3} exceeds depth 2")
}

func TestVariableMayIntroducePropertyToken(t *testing.T) {
	env := environment()
	env.Variables = append(env.Variables, models.Variable{Name: "keyref", Value: "$[api-key]"})
	env.APIs[0].Policies.Inbound = "${keyref}"

	res, err := resolve(t, env)
	require.NoError(t, err)
	assert.Equal(t, "{{Prod-Orders-ApiKey}}", res.Policies(models.APIRef("prod", "orders"), models.Policies{}).Inbound)
}

func TestAllViolationsAreCollected(t *testing.T) {
	env := environment()
	env.APIs[0].Path = "${x}/${y}"
	env.Subscriptions[0].Scope.Product = "${api.name}"

	_, err := resolve(t, env)
	require.Error(t, err)

	var stageErr *errors.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Len(t, stageErr.Violations(), 3)
}

func TestResolveContextLogsEnvironmentField(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := &models.Deployment{Environments: []*models.Environment{environment()}}

	_, err := New(naming.Resolve(d), WithLogger(zap.New(core))).ResolveContext(context.Background(), d)
	require.NoError(t, err)

	entries := logs.FilterMessage("placeholders resolved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "prod", entries[0].ContextMap()["environment"])
}
