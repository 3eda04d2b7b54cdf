package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"paytrack/internal/amqp"
	"paytrack/internal/cache"
	"paytrack/internal/core"
	"paytrack/internal/store"
	"paytrack/internal/validate"
)

const (
	DefaultBreakdownTTL = 5 * time.Minute
	breakdownCacheSize  = 128
)

// EventPublisher announces committed payment mutations.
type EventPublisher interface {
	Publish(ctx context.Context, e amqp.PaymentEvent) error
}

// PaymentInput is a payment as submitted by a client, before parsing.
type PaymentInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Photos      []string `json:"photos"`
}

// Fields validates the input and converts it. An empty date means today and an
// empty category means core.DefaultCategory.
func (in PaymentInput) Fields() (core.PaymentFields, error) {
	ve := &core.ValidationErrors{}
	if err := validate.Payment(in.Title, in.Description, in.Amount, len(in.Photos)); err != nil {
		if !errors.As(err, &ve) {
			return core.PaymentFields{}, err
		}
	}

	date := core.Today()
	if strings.TrimSpace(in.Date) != "" {
		d, err := core.ParseDate(in.Date)
		if err != nil {
			ve.Add(core.NewValidationError(core.FieldDate, "date must be YYYY-MM-DD or DD.MM.YYYY"))
		}
		date = d
	}

	category := core.DefaultCategory
	if strings.TrimSpace(in.Category) != "" {
		category = core.ParseCategory(in.Category)
		if !strings.EqualFold(strings.TrimSpace(in.Category), string(category)) {
			ve.Add(core.NewValidationError(core.FieldCategory, fmt.Sprintf("unknown category %q", in.Category)))
		}
	}

	if err := ve.OrNil(); err != nil {
		return core.PaymentFields{}, err
	}
	amount, _ := core.ParseAmount(in.Amount)
	return core.PaymentFields{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Date:        date,
		Category:    category,
		Photos:      append([]string(nil), in.Photos...),
	}, nil
}

// PaymentService validates input, writes to the store and then publishes an
// event. The store write is authoritative; publishing is best effort.
type PaymentService struct {
	store      store.PaymentStore
	publisher  EventPublisher
	breakdowns *cache.LRUCache[core.Breakdown]

	// generation counts mutations; a breakdown computed across one is not cached.
	mu         sync.Mutex
	generation uint64
}

// NewPaymentService accepts a nil publisher, in which case no events are sent.
func NewPaymentService(s store.PaymentStore, publisher EventPublisher, breakdownTTL time.Duration) *PaymentService {
	if breakdownTTL <= 0 {
		breakdownTTL = DefaultBreakdownTTL
	}
	return &PaymentService{
		store:      s,
		publisher:  publisher,
		breakdowns: cache.NewLRUCache[core.Breakdown](breakdownCacheSize, breakdownTTL),
	}
}

// BreakdownCache exposes the cache so it can be registered for cleanup.
func (s *PaymentService) BreakdownCache() *cache.LRUCache[core.Breakdown] {
	return s.breakdowns
}

func (s *PaymentService) List(ctx context.Context) ([]core.PaymentListItem, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return items, nil
}

func (s *PaymentService) ListFiltered(ctx context.Context, c core.Criteria) ([]core.PaymentListItem, error) {
	items, err := s.store.ListFiltered(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("list filtered payments: %w", err)
	}
	return items, nil
}

func (s *PaymentService) Details(ctx context.Context, id string) (core.PaymentDetails, error) {
	return s.store.GetDetails(ctx, id)
}

func (s *PaymentService) Create(ctx context.Context, in PaymentInput) (core.PaymentDetails, error) {
	f, err := in.Fields()
	if err != nil {
		return core.PaymentDetails{}, err
	}
	id, err := s.store.Add(ctx, f)
	if err != nil {
		return core.PaymentDetails{}, fmt.Errorf("save payment: %w", err)
	}
	s.invalidate()

	d := core.Payment{ID: id, PaymentFields: f}.Details()
	s.publish(ctx, amqp.NewPaymentEvent(amqp.EventCreated, id, &d))
	return d, nil
}

func (s *PaymentService) Update(ctx context.Context, id string, in PaymentInput) error {
	f, err := in.Fields()
	if err != nil {
		return err
	}
	if err := s.store.Edit(ctx, id, f); err != nil {
		return fmt.Errorf("edit payment: %w", err)
	}
	s.invalidate()

	d, err := s.store.GetDetails(ctx, id)
	if err != nil {
		// The store tolerated a missing id; there is nothing to announce.
		if core.IsNotFound(err) {
			return nil
		}
		slog.ErrorContext(ctx, "Failed to reload edited payment", "id", id, "error", err)
		return nil
	}
	s.publish(ctx, amqp.NewPaymentEvent(amqp.EventUpdated, id, &d))
	return nil
}

func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove payment: %w", err)
	}
	s.invalidate()
	s.publish(ctx, amqp.NewPaymentEvent(amqp.EventDeleted, id, nil))
	return nil
}

// Breakdown summarizes the payments matching c, served from cache when fresh.
func (s *PaymentService) Breakdown(ctx context.Context, c core.Criteria) (core.Breakdown, error) {
	key := c.Key()
	if b, ok := s.breakdowns.Get(key); ok {
		return b, nil
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	items, err := s.store.ListFiltered(ctx, c)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("breakdown: %w", err)
	}
	b := core.Summarize(c, items)

	s.mu.Lock()
	if s.generation == gen {
		s.breakdowns.Set(key, b)
	}
	s.mu.Unlock()
	return b, nil
}

func (s *PaymentService) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.breakdowns.Purge()
}

func (s *PaymentService) publish(ctx context.Context, e amqp.PaymentEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "type", e.Type, "id", e.ID)
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish payment event", "type", e.Type, "id", e.ID, "error", err)
	}
}
