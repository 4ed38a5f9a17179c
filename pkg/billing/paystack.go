package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// PaystackConfig holds configuration for the Paystack gateway.
// The secret key signs outbound API calls and verifies inbound webhooks.
type PaystackConfig struct {
	SecretKey string        `env:"PAYSTACK_SECRET_KEY,required"`
	BaseURL   string        `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co"`
	Timeout   time.Duration `env:"PAYSTACK_TIMEOUT" envDefault:"15s"`
}

// PaystackGateway implements Gateway for Paystack hosted checkouts.
type PaystackGateway struct {
	config PaystackConfig
	client *http.Client
}

// NewPaystackGateway creates a Paystack gateway client.
func NewPaystackGateway(cfg PaystackConfig) (*PaystackGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &PaystackGateway{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// paystack wire types. Amounts are minor units throughout.
type paystackInitRequest struct {
	Email    string           `json:"email"`
	Amount   int64            `json:"amount"`
	Metadata paystackMetadata `json:"metadata"`
}

type paystackMetadata struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeTransaction creates a hosted checkout transaction. Tenant and
// plan are carried in metadata so confirmation webhooks can be correlated
// back without any local pending-transaction state.
func (g *PaystackGateway) InitializeTransaction(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	body, err := json.Marshal(paystackInitRequest{
		Email:  req.Email,
		Amount: req.Amount,
		Metadata: paystackMetadata{
			TenantID: req.TenantID,
			Plan:     string(req.Plan),
		},
	})
	if err != nil {
		return nil, errors.Join(ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.config.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrTransport, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, errors.Join(ErrTransport, err)
	}
	defer resp.Body.Close()

	var parsed paystackInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Join(ErrTransport, err)
	}

	// Paystack reports failures as a structured non-success response,
	// with the HTTP status not always reflecting it.
	if !parsed.Status || resp.StatusCode >= http.StatusBadRequest {
		msg := parsed.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, errors.Join(ErrGateway, fmt.Errorf("paystack: %s", msg))
	}
	if parsed.Data.AuthorizationURL == "" {
		return nil, errors.Join(ErrGateway, errors.New("paystack: no checkout URL returned"))
	}

	return &Checkout{
		URL:       parsed.Data.AuthorizationURL,
		Reference: parsed.Data.Reference,
	}, nil
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Status    string `json:"status"`
		Customer  struct {
			Email        string `json:"email"`
			CustomerCode string `json:"customer_code"`
		} `json:"customer"`
		SubscriptionCode string `json:"subscription_code"`
		Metadata         struct {
			TenantID string `json:"tenant_id"`
			Plan     string `json:"plan"`
		} `json:"metadata"`
	} `json:"data"`
}

// VerifyAndParse authenticates an inbound webhook and normalizes it.
// The signature header carries hex HMAC-SHA512 of the exact raw body
// under the account's secret key; verification happens before any
// parsing so a forged body is never even decoded.
func (g *PaystackGateway) VerifyAndParse(raw []byte, signature string) (*Event, error) {
	if !g.verifySignature(raw, signature) {
		return nil, ErrAuthentication
	}

	var payload paystackEvent
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Join(ErrValidation, fmt.Errorf("malformed webhook payload: %w", err))
	}

	event := &Event{
		Kind:          mapPaystackEvent(payload.Event),
		ProviderEvent: payload.Event,
		Reference:     payload.Data.Reference,
		CustomerRef:   payload.Data.Customer.CustomerCode,
		CustomerEmail: payload.Data.Customer.Email,
		TenantID:      payload.Data.Metadata.TenantID,
		Plan:          PlanID(payload.Data.Metadata.Plan),
		AmountMinor:   payload.Data.Amount,
		Currency:      payload.Data.Currency,
	}

	// Disable events identify the subscription, not a transaction.
	if event.Reference == "" && payload.Data.SubscriptionCode != "" {
		event.Reference = payload.Data.SubscriptionCode
	}

	return event, nil
}

func (g *PaystackGateway) verifySignature(raw []byte, signature string) bool {
	if signature == "" || len(raw) == 0 {
		return false
	}
	mac := hmac.New(sha512.New, []byte(g.config.SecretKey))
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func mapPaystackEvent(name string) EventKind {
	switch name {
	case "charge.success":
		return EventPaymentConfirmed
	case "subscription.disable", "subscription.not_renew":
		return EventSubscriptionDisabled
	default:
		return EventUnhandled
	}
}

// SignPayload computes the signature Paystack would send for a payload.
// Exposed for tests and for replaying stored deliveries.
func (g *PaystackGateway) SignPayload(raw []byte) string {
	mac := hmac.New(sha512.New, []byte(g.config.SecretKey))
	mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}
