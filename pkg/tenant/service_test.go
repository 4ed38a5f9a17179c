package tenant_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetgrid/fleetgrid/pkg/billing"
	"github.com/fleetgrid/fleetgrid/pkg/tenant"
)

func newBillingService(t *testing.T) billing.Service {
	t.Helper()

	gw, err := billing.NewPaystackGateway(billing.PaystackConfig{SecretKey: "sk_test_secret"})
	require.NoError(t, err)

	plans := []billing.Plan{
		{ID: billing.PlanFree, Name: "Free"},
		{ID: billing.PlanTrial, Name: "Trial"},
	}
	svc, err := billing.NewService(context.Background(),
		billing.NewStaticSource(plans...), gw,
		billing.NewMemoryStore(), billing.NewMemoryEventLog(),
		billing.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	return svc
}

func validRequest() tenant.RegisterRequest {
	return tenant.RegisterRequest{
		Name:         "Acme Haulage Ltd",
		Subdomain:    "acme-haulage",
		ContactEmail: "ops@acme.test",
	}
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates the tenant with a trial subscription", func(t *testing.T) {
		t.Parallel()

		billingSvc := newBillingService(t)
		svc := tenant.NewService(tenant.NewMemoryStore(), billingSvc, slog.New(slog.DiscardHandler))

		created, err := svc.Register(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, "Acme Haulage Ltd", created.Name)
		assert.Equal(t, "acme-haulage", created.Subdomain)
		assert.True(t, created.Active)

		sub, err := billingSvc.GetSubscription(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanTrial, sub.Plan)
		assert.Equal(t, billing.StatusActive, sub.Status)
	})

	t.Run("normalizes the subdomain", func(t *testing.T) {
		t.Parallel()

		svc := tenant.NewService(tenant.NewMemoryStore(), newBillingService(t), slog.New(slog.DiscardHandler))

		req := validRequest()
		req.Subdomain = "  ACME-Haulage "
		created, err := svc.Register(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "acme-haulage", created.Subdomain)
	})

	t.Run("rejects invalid registrations", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			mutate func(*tenant.RegisterRequest)
		}{
			{"empty name", func(r *tenant.RegisterRequest) { r.Name = "  " }},
			{"bad subdomain", func(r *tenant.RegisterRequest) { r.Subdomain = "Acme Haulage!" }},
			{"bad email", func(r *tenant.RegisterRequest) { r.ContactEmail = "not-an-email" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				svc := tenant.NewService(tenant.NewMemoryStore(), newBillingService(t), slog.New(slog.DiscardHandler))
				req := validRequest()
				tt.mutate(&req)

				_, err := svc.Register(context.Background(), req)
				assert.ErrorIs(t, err, tenant.ErrInvalidTenant)
			})
		}
	})

	t.Run("duplicate subdomain", func(t *testing.T) {
		t.Parallel()

		svc := tenant.NewService(tenant.NewMemoryStore(), newBillingService(t), slog.New(slog.DiscardHandler))

		_, err := svc.Register(context.Background(), validRequest())
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), validRequest())
		assert.ErrorIs(t, err, tenant.ErrTenantAlreadyExists)
	})
}

func TestTenant_Validate(t *testing.T) {
	t.Parallel()

	valid := tenant.Tenant{
		Name:         "Acme",
		Subdomain:    "acme",
		ContactEmail: "ops@acme.test",
		CreatedAt:    time.Now().UTC(),
	}
	assert.NoError(t, valid.Validate())

	tooShort := valid
	tooShort.Subdomain = "a-"
	assert.ErrorIs(t, tooShort.Validate(), tenant.ErrInvalidTenant)
}
