package billingmodule_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingmodule "github.com/fleetgrid/fleetgrid/modules/billing"
	"github.com/fleetgrid/fleetgrid/pkg/billing"
)

const signatureHeader = "x-paystack-signature"

type fixture struct {
	router  http.Handler
	svc     billing.Service
	gateway *billing.PaystackGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// Upstream Paystack API stub for checkout initialization.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"status": true,
			"message": "Authorization URL created",
			"data": {"authorization_url": "https://checkout.paystack.com/abc123", "reference": "ref_abc123"}
		}`)
	}))
	t.Cleanup(upstream.Close)

	gw, err := billing.NewPaystackGateway(billing.PaystackConfig{
		SecretKey: "sk_test_secret",
		BaseURL:   upstream.URL,
	})
	require.NoError(t, err)

	plans := []billing.Plan{
		{ID: billing.PlanFree, Name: "Free"},
		{ID: billing.PlanTrial, Name: "Trial"},
		{
			ID:     billing.PlanSmallBusiness,
			Name:   "Small Business",
			Price:  billing.Money{Amount: 5000000, Currency: "NGN"},
			Public: true,
		},
	}
	svc, err := billing.NewService(context.Background(),
		billing.NewStaticSource(plans...), gw,
		billing.NewMemoryStore(), billing.NewMemoryEventLog(),
		billing.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	return &fixture{
		router:  billingmodule.Router(svc, signatureHeader, slog.New(slog.DiscardHandler)),
		svc:     svc,
		gateway: gw,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("returns the checkout URL", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		body := fmt.Sprintf(`{
			"email": "ops@hauler.test",
			"amount": 5000000,
			"plan": "small_business",
			"tenant_id": %q
		}`, uuid.New())
		rec := f.do(httptest.NewRequest(http.MethodPost, "/initialize", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "https://checkout.paystack.com/abc123", resp["checkout_url"])
		assert.Equal(t, "ref_abc123", resp["reference"])
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		body := `{"email": "", "amount": 0, "plan": "small_business", "tenant_id": ""}`
		rec := f.do(httptest.NewRequest(http.MethodPost, "/initialize", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodPost, "/initialize", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Webhook(t *testing.T) {
	t.Parallel()

	confirmBody := func(tenantID uuid.UUID) []byte {
		return fmt.Appendf(nil, `{
			"event": "charge.success",
			"data": {
				"reference": "ref_1",
				"customer": {"email": "ops@hauler.test", "customer_code": "CUS_abc"},
				"metadata": {"tenant_id": %q, "plan": "small_business"}
			}
		}`, tenantID)
	}

	t.Run("accepts a signed delivery and applies it", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tenantID := uuid.New()
		body := confirmBody(tenantID)

		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		req.Header.Set(signatureHeader, f.gateway.SignPayload(body))
		rec := f.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received": true}`, rec.Body.String())

		sub, err := f.svc.GetSubscription(context.Background(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, billing.PlanSmallBusiness, sub.Plan)
	})

	t.Run("rejects a delivery with a bad signature", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tenantID := uuid.New()

		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(confirmBody(tenantID))))
		req.Header.Set(signatureHeader, "deadbeef")
		rec := f.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		_, err := f.svc.GetSubscription(context.Background(), tenantID)
		assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)
	})

	t.Run("rejects a delivery with no signature", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(confirmBody(uuid.New()))))
		rec := f.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("acknowledges events it does not act on", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		body := []byte(`{"event": "invoice.create", "data": {"reference": "inv_1"}}`)
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		req.Header.Set(signatureHeader, f.gateway.SignPayload(body))
		rec := f.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_Plans(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/plans", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Plans []struct {
			ID      string `json:"id"`
			Display string `json:"display_price"`
		} `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Only purchasable plans are listed.
	require.Len(t, resp.Plans, 1)
	assert.Equal(t, "small_business", resp.Plans[0].ID)
	assert.NotEmpty(t, resp.Plans[0].Display)
}

func TestRouter_Subscription(t *testing.T) {
	t.Parallel()

	t.Run("returns stored and effective plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tenantID := uuid.New()

		_, err := f.svc.StartTrial(context.Background(), tenantID)
		require.NoError(t, err)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/subscriptions/"+tenantID.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Plan          string     `json:"plan"`
			EffectivePlan string     `json:"effective_plan"`
			Status        string     `json:"status"`
			TrialEnd      *time.Time `json:"trial_end"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "trial", resp.Plan)
		assert.Equal(t, "trial", resp.EffectivePlan)
		assert.Equal(t, "active", resp.Status)
		assert.NotNil(t, resp.TrialEnd)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/subscriptions/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed tenant ID", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/subscriptions/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
