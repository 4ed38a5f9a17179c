// Package tenant holds the tenant entity shared by both product modules
// and the registration flow that provisions a tenant with its default
// trial subscription.
package tenant

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTenantNotFound      = errors.New("tenant: not found")
	ErrTenantAlreadyExists = errors.New("tenant: subdomain already taken")
	ErrInvalidTenant       = errors.New("tenant: invalid registration data")
)

// Tenant is a company account: the unit of billing and data isolation.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	ContactEmail string    `json:"contact_email"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

var subdomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])?$`)

// Validate checks registration fields before persistence.
func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.Join(ErrInvalidTenant, errors.New("name is required"))
	}
	if !subdomainRegex.MatchString(t.Subdomain) {
		return errors.Join(ErrInvalidTenant, errors.New("subdomain must be lowercase alphanumeric"))
	}
	if !strings.Contains(t.ContactEmail, "@") {
		return errors.Join(ErrInvalidTenant, errors.New("contact email is required"))
	}
	return nil
}
