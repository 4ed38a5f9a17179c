package billing

import (
	"log/slog"
	"time"

	"github.com/fleetgrid/fleetgrid/pkg/email"
)

// ServiceOption configures optional service settings.
type ServiceOption func(*service)

// WithLogger sets the structured logger used for webhook processing.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTrialPeriod overrides the default trial window for new tenants.
func WithTrialPeriod(d time.Duration) ServiceOption {
	return func(s *service) {
		if d > 0 {
			s.trialPeriod = d
		}
	}
}

// WithReceiptMailer enables best-effort payment receipt emails.
func WithReceiptMailer(mailer email.EmailSender) ServiceOption {
	return func(s *service) {
		s.mailer = mailer
	}
}

// WithUsageCounter registers a usage counter for a resource type.
// Resources without a counter fail limit checks with ErrNoCounterRegistered.
func WithUsageCounter(res Resource, counter UsageCounterFunc) ServiceOption {
	return func(s *service) {
		if counter != nil {
			s.counters[res] = counter
		}
	}
}

// WithClock overrides the service time source. Intended for tests that
// need deterministic period and trial boundaries.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}
