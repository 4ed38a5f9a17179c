package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory SubscriptionStore for tests and local
// development without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]Subscription)}
}

func (s *MemoryStore) Get(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[tenantID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return cloneSubscription(sub), nil
}

func (s *MemoryStore) GetByCustomerRef(ctx context.Context, customerRef string) (*Subscription, error) {
	if customerRef == "" {
		return nil, ErrUnknownCustomerRef
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.CustomerRef == customerRef {
			return cloneSubscription(sub), nil
		}
	}
	return nil, ErrUnknownCustomerRef
}

func (s *MemoryStore) Save(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[sub.TenantID] = *cloneSubscription(*sub)
	return nil
}

// cloneSubscription copies the record so callers cannot mutate stored state.
func cloneSubscription(sub Subscription) *Subscription {
	if sub.TrialEnd != nil {
		trialEnd := *sub.TrialEnd
		sub.TrialEnd = &trialEnd
	}
	return &sub
}

// MemoryEventLog is an in-memory EventLog for tests and local development.
type MemoryEventLog struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{seen: make(map[string]time.Time)}
}

func (l *MemoryEventLog) Seen(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[key]
	return ok, nil
}

func (l *MemoryEventLog) MarkProcessed(ctx context.Context, key string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[key] = at
	return nil
}
