package billing

import "context"

// Gateway abstracts the hosted-checkout payment provider. Implementations
// handle provider-specific wire formats internally and surface normalized
// events, so the service layer never parses provider payloads itself.
type Gateway interface {
	// InitializeTransaction creates a hosted checkout session for the
	// given tenant and plan. Tenant and plan travel as opaque metadata
	// that the provider round-trips back on confirmation events.
	// A single attempt is made; callers retry if they want retries.
	InitializeTransaction(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// VerifyAndParse authenticates a webhook delivery and normalizes it.
	// Verification runs over the exact unparsed byte sequence; a mismatch
	// returns ErrAuthentication and nothing else happens. Event kinds the
	// provider reports but this system does not act on come back as
	// EventUnhandled rather than an error.
	VerifyAndParse(raw []byte, signature string) (*Event, error)
}

// CheckoutRequest contains data needed to initialize a hosted checkout.
type CheckoutRequest struct {
	Email    string // billing email, required
	Amount   int64  // minor currency units, must be positive
	Plan     PlanID
	TenantID string
}

// Checkout is the gateway-issued hosted checkout session.
type Checkout struct {
	URL       string // hosted checkout URL the client is redirected to
	Reference string // gateway transaction reference
}

// Event is a normalized billing event parsed from a verified webhook.
type Event struct {
	Kind          EventKind
	ProviderEvent string // original provider event name, for logging
	Reference     string // transaction reference, used for dedup
	CustomerRef   string // provider-issued customer reference
	CustomerEmail string
	TenantID      string // from round-tripped metadata; may be empty
	Plan          PlanID // from round-tripped metadata; may be empty
	AmountMinor   int64
	Currency      string
}

// DedupKey returns the idempotency key recorded for this event. Gateways
// may redeliver the same logical event, so the key is derived from the
// event's own identity rather than delivery metadata.
func (e *Event) DedupKey() string {
	ref := e.Reference
	if ref == "" {
		ref = e.CustomerRef
	}
	return string(e.Kind) + ":" + ref
}
