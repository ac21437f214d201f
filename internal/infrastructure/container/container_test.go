package container_test

import (
	"context"
	"testing"

	"github.com/alchemorsel/nutrilabel/internal/infrastructure/container"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/nutrilabel/internal/ports/inbound"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/alchemorsel/nutrilabel/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestModule_GraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(container.New("")))
}

func TestModule_BuildsWithDefaults(t *testing.T) {
	t.Setenv("NUTRILABEL_DATABASE_PATH", ":memory:")
	t.Setenv("NUTRILABEL_APP_LOG_LEVEL", "error")

	var (
		service inbound.LabelService
		lookup  outbound.NutrientLookup
		server  *apiserver.APIServer
		health  *healthcheck.HealthCheck
	)

	app := fx.New(
		container.New(""),
		fx.NopLogger,
		fx.Populate(&service, &lookup, &server, &health),
	)
	require.NoError(t, app.Err())

	assert.NotNil(t, service)
	assert.NotNil(t, lookup)
	assert.NotNil(t, server.Server())

	response := health.Check(context.Background())
	require.Len(t, response.Checks, 1)
	assert.Equal(t, "database", response.Checks[0].Name)
	assert.Equal(t, healthcheck.StatusHealthy, response.Status)
}
