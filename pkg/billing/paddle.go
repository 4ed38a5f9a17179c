package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle gateway.
// PriceIDs maps plan identifiers to Paddle catalog price IDs, since
// Paddle checkouts are created from catalog prices rather than amounts.
type PaddleConfig struct {
	APIKey        string            `env:"PADDLE_API_KEY"`
	WebhookSecret string            `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string            `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceIDs      map[string]string `env:"PADDLE_PRICE_IDS"` // plan_id:price_id pairs
}

// PaddleGateway implements Gateway on the Paddle Billing API.
type PaddleGateway struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	priceIDs map[PlanID]string
}

// NewPaddleGateway creates a Paddle gateway client.
func NewPaddleGateway(cfg PaddleConfig) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingSecretKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	prices := make(map[PlanID]string, len(cfg.PriceIDs))
	for plan, price := range cfg.PriceIDs {
		prices[PlanID(plan)] = price
	}

	return &PaddleGateway{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		priceIDs: prices,
	}, nil
}

// InitializeTransaction creates a Paddle transaction from the catalog
// price mapped to the plan. Tenant and plan travel as custom data the
// provider round-trips on webhook events.
func (g *PaddleGateway) InitializeTransaction(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	priceID, ok := g.priceIDs[req.Plan]
	if !ok {
		return nil, errors.Join(ErrValidation, fmt.Errorf("no paddle price mapped for plan %s", req.Plan))
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	txnReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"tenant_id": req.TenantID,
			"plan":      string(req.Plan),
			"email":     req.Email,
		},
	}

	txn, err := g.client.TransactionsClient.CreateTransaction(ctx, txnReq)
	if err != nil {
		return nil, errors.Join(ErrGateway, err)
	}

	if txn.Checkout == nil || txn.Checkout.URL == nil || *txn.Checkout.URL == "" {
		return nil, errors.Join(ErrGateway, errors.New("paddle: no checkout URL returned"))
	}

	return &Checkout{
		URL:       *txn.Checkout.URL,
		Reference: txn.ID,
	}, nil
}

// VerifyAndParse authenticates a Paddle webhook and normalizes it.
// The SDK verifier consumes an http.Request, so one is reconstructed
// around the raw body; the signature still covers the unparsed bytes.
func (g *PaddleGateway) VerifyAndParse(raw []byte, signature string) (*Event, error) {
	req, err := http.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(ErrAuthentication, err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := g.verifier.Verify(req)
	if err != nil || !valid {
		return nil, ErrAuthentication
	}

	var payload struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Join(ErrValidation, fmt.Errorf("malformed webhook payload: %w", err))
	}

	event := &Event{
		Kind:          mapPaddleEvent(payload.EventType),
		ProviderEvent: payload.EventType,
		Reference:     payload.EventID,
	}

	if id, ok := payload.Data["id"].(string); ok && event.Reference == "" {
		event.Reference = id
	}
	if customerID, ok := payload.Data["customer_id"].(string); ok {
		event.CustomerRef = customerID
	}
	if customData, ok := payload.Data["custom_data"].(map[string]any); ok {
		if tenantID, ok := customData["tenant_id"].(string); ok {
			event.TenantID = tenantID
		}
		if plan, ok := customData["plan"].(string); ok {
			event.Plan = PlanID(plan)
		}
		if email, ok := customData["email"].(string); ok {
			event.CustomerEmail = email
		}
	}

	return event, nil
}

func mapPaddleEvent(name string) EventKind {
	switch name {
	case "transaction.completed":
		return EventPaymentConfirmed
	case "subscription.canceled", "subscription.paused":
		return EventSubscriptionDisabled
	default:
		return EventUnhandled
	}
}
