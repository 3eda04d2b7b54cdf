package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"paytrack/internal/core"
	"paytrack/internal/store"
	"paytrack/internal/validate"
)

// Store keeps payments in process memory. Records never leave the store by
// reference: every read and write copies the photo list.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]core.Payment
	order  []string
	policy store.MissingPolicy
	logger *slog.Logger
	newID  func() string
}

var _ store.PaymentStore = (*Store)(nil)

type Option func(*Store)

func WithMissingPolicy(p store.MissingPolicy) Option {
	return func(s *Store) { s.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator overrides UUID generation, mainly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func New(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]core.Payment),
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) List(_ context.Context) ([]core.PaymentListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PaymentListItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].ListItem())
	}
	return out, nil
}

func (s *Store) ListFiltered(ctx context.Context, c core.Criteria) ([]core.PaymentListItem, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return store.Filter(all, c), nil
}

func (s *Store) GetDetails(_ context.Context, id string) (core.PaymentDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return core.PaymentDetails{}, core.NewNotFoundError(store.KindPayment, id)
	}
	return p.Details(), nil
}

func (s *Store) Add(ctx context.Context, f core.PaymentFields) (string, error) {
	if err := validate.Fields(f); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	if _, dup := s.byID[id]; dup {
		return "", fmt.Errorf("generated payment id %q already in use", id)
	}
	s.byID[id] = core.Payment{ID: id, PaymentFields: f.Clone()}
	s.order = append(s.order, id)
	s.logger.DebugContext(ctx, "Payment added to memory store", "id", id, "count", len(s.order))
	return id, nil
}

func (s *Store) Edit(ctx context.Context, id string, f core.PaymentFields) error {
	if err := validate.Fields(f); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return s.policy.Missing(ctx, s.logger, "edit", id)
	}
	s.byID[id] = core.Payment{ID: id, PaymentFields: f.Clone()}
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return s.policy.Missing(ctx, s.logger, "remove", id)
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Len reports the number of live payments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
