package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is used when the caller passes a
// non-positive threshold.
const DefaultLowStockThreshold = 10

// Event topics published after a committed inventory operation.
const (
	TopicPurchase = "inventory.purchase"
	TopicRestock  = "inventory.restock"
	TopicLowStock = "inventory.lowstock"
)

// PurchaseEvent is published on TopicPurchase after a purchase commits.
type PurchaseEvent struct {
	Sweet      domain.Sweet
	UserID     int64
	Quantity   int
	TotalPrice float64
}

// RestockEvent is published on TopicRestock after a restock commits.
type RestockEvent struct {
	Sweet    domain.Sweet
	UserID   int64
	Quantity int
}

// Service applies inventory-changing operations to the catalog,
// enforcing the stock invariants and producing the append-only
// transaction log. It never retries: error recovery is the caller's
// concern.
type Service struct {
	repo Repository
	bus  EventBus.Bus
}

// NewService creates a ledger service. bus may be nil when no event
// consumers are wired (tests, tooling).
func NewService(repo Repository, bus EventBus.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Purchase atomically decrements the sweet's stock by quantity and
// appends a purchase row. Returns the updated sweet.
func (s *Service) Purchase(ctx context.Context, sweetID, userID int64, quantity int) (*domain.Sweet, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	sweet, err := s.repo.FindActiveSweet(ctx, sweetID)
	if err != nil {
		return nil, err
	}
	if sweet.Quantity < quantity {
		metrics.Counter(metrics.MetricPurchaseFail)
		return nil, &InsufficientStockError{Available: sweet.Quantity}
	}

	p := &domain.Purchase{SweetID: sweetID, UserID: userID, Quantity: quantity}
	updated, err := s.repo.DeductStock(ctx, p)
	if errors.Is(err, errStockConflict) {
		// The pre-check passed but the conditional decrement matched no
		// row: a concurrent operation won the race, or the sweet was
		// deactivated in between. Resolve to the accurate error.
		metrics.Counter(metrics.MetricPurchaseFail)
		current, ferr := s.repo.FindActiveSweet(ctx, sweetID)
		if ferr != nil {
			return nil, ErrSweetNotFound
		}
		return nil, &InsufficientStockError{Available: current.Quantity}
	}
	if err != nil {
		return nil, err
	}

	metrics.Counter(metrics.MetricPurchase)
	s.publish(TopicPurchase, PurchaseEvent{
		Sweet:      *updated,
		UserID:     userID,
		Quantity:   quantity,
		TotalPrice: p.TotalPrice,
	})
	zap.L().Info("purchase committed",
		zap.Int64("sweet_id", sweetID),
		zap.Int64("user_id", userID),
		zap.Int("quantity", quantity),
		zap.Float64("total_price", p.TotalPrice),
		zap.Int("remaining", updated.Quantity))
	return updated, nil
}

// Restock atomically increments the sweet's stock by quantity and
// appends a restock row. Returns the updated sweet.
func (s *Service) Restock(ctx context.Context, sweetID, userID int64, quantity int) (*domain.Sweet, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.repo.FindActiveSweet(ctx, sweetID); err != nil {
		return nil, err
	}

	rec := &domain.Restock{SweetID: sweetID, UserID: userID, Quantity: quantity}
	updated, err := s.repo.AddStock(ctx, rec)
	if err != nil {
		return nil, err
	}

	metrics.Counter(metrics.MetricRestock)
	s.publish(TopicRestock, RestockEvent{Sweet: *updated, UserID: userID, Quantity: quantity})
	zap.L().Info("restock committed",
		zap.Int64("sweet_id", sweetID),
		zap.Int64("user_id", userID),
		zap.Int("quantity", quantity),
		zap.Int("stock", updated.Quantity))
	return updated, nil
}

// PurchaseHistory returns the user's purchases newest-first. An empty
// result is not an error.
func (s *Service) PurchaseHistory(ctx context.Context, userID int64, from, to time.Time) ([]PurchaseEntry, error) {
	return s.repo.ListPurchasesByUser(ctx, userID, from, to)
}

// RestockHistory returns the sweet's restocks newest-first.
func (s *Service) RestockHistory(ctx context.Context, sweetID int64, from, to time.Time) ([]RestockEntry, error) {
	return s.repo.ListRestocksBySweet(ctx, sweetID, from, to)
}

// LowStock returns active sweets with quantity at or below threshold,
// ascending. A non-positive threshold selects the default of 10.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.Sweet, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.repo.ListLowStock(ctx, threshold)
}

func (s *Service) publish(topic string, event interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, event)
}
