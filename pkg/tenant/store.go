package tenant

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetgrid/fleetgrid/pkg/pg"
)

// Store persists tenants.
type Store interface {
	// Get retrieves a tenant by ID. Returns ErrTenantNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// Create inserts a new tenant. Returns ErrTenantAlreadyExists when
	// the subdomain is taken.
	Create(ctx context.Context, t *Tenant) error
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]Tenant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[uuid.UUID]Tenant)}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return &t, nil
}

func (s *MemoryStore) Create(ctx context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tenants {
		if existing.Subdomain == t.Subdomain {
			return ErrTenantAlreadyExists
		}
	}
	s.tenants[t.ID] = *t
	return nil
}

// PGStore is the PostgreSQL Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, subdomain, contact_email, active, created_at
		FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Subdomain, &t.ContactEmail, &t.Active, &t.CreatedAt)
	if pg.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PGStore) Create(ctx context.Context, t *Tenant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, subdomain, contact_email, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Subdomain, t.ContactEmail, t.Active, t.CreatedAt)
	if pg.IsDuplicateKey(err) {
		return ErrTenantAlreadyExists
	}
	return err
}
