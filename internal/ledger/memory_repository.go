package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/pkg/common"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs
// unit tests and local development without a database; the mutating
// operations hold the lock across check and update, giving the same
// atomicity guarantee the SQL implementation gets from its transaction.
type MemoryRepository struct {
	mu        sync.Mutex
	sweets    map[int64]*domain.Sweet
	users     map[int64]*domain.User
	purchases []domain.Purchase
	restocks  []domain.Restock
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory ledger repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sweets: make(map[int64]*domain.Sweet),
		users:  make(map[int64]*domain.User),
	}
}

// PutSweet stores or replaces a sweet.
func (r *MemoryRepository) PutSweet(s domain.Sweet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := s
	r.sweets[s.ID] = &copied
}

// PutUser stores or replaces a user.
func (r *MemoryRepository) PutUser(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := u
	r.users[u.ID] = &copied
}

// Purchases returns a copy of the purchase log.
func (r *MemoryRepository) Purchases() []domain.Purchase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Purchase, len(r.purchases))
	copy(out, r.purchases)
	return out
}

// Restocks returns a copy of the restock log.
func (r *MemoryRepository) Restocks() []domain.Restock {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Restock, len(r.restocks))
	copy(out, r.restocks)
	return out
}

func (r *MemoryRepository) FindActiveSweet(ctx context.Context, id int64) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sweets[id]
	if !ok || !s.IsActive {
		return nil, ErrSweetNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *MemoryRepository) DeductStock(ctx context.Context, p *domain.Purchase) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sweets[p.SweetID]
	if !ok || !s.IsActive || s.Quantity < p.Quantity {
		return nil, errStockConflict
	}
	s.Quantity -= p.Quantity
	s.UpdatedAt = time.Now()

	if p.ID == 0 {
		p.ID = common.UUIDint64()
	}
	p.TotalPrice = float64(p.Quantity) * s.Price
	p.CreatedAt = time.Now()
	r.purchases = append(r.purchases, *p)

	copied := *s
	return &copied, nil
}

func (r *MemoryRepository) AddStock(ctx context.Context, rec *domain.Restock) (*domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sweets[rec.SweetID]
	if !ok || !s.IsActive {
		return nil, ErrSweetNotFound
	}
	s.Quantity += rec.Quantity
	s.UpdatedAt = time.Now()

	if rec.ID == 0 {
		rec.ID = common.UUIDint64()
	}
	rec.CreatedAt = time.Now()
	r.restocks = append(r.restocks, *rec)

	copied := *s
	return &copied, nil
}

func inRange(ts time.Time, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && ts.After(to) {
		return false
	}
	return true
}

func (r *MemoryRepository) ListPurchasesByUser(ctx context.Context, userID int64, from, to time.Time) ([]PurchaseEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]PurchaseEntry, 0)
	for _, p := range r.purchases {
		if p.UserID != userID || !inRange(p.CreatedAt, from, to) {
			continue
		}
		entry := PurchaseEntry{Purchase: p}
		if s, ok := r.sweets[p.SweetID]; ok {
			entry.Sweet = *s
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *MemoryRepository) ListRestocksBySweet(ctx context.Context, sweetID int64, from, to time.Time) ([]RestockEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]RestockEntry, 0)
	for _, rec := range r.restocks {
		if rec.SweetID != sweetID || !inRange(rec.CreatedAt, from, to) {
			continue
		}
		entry := RestockEntry{Restock: rec}
		if u, ok := r.users[rec.UserID]; ok {
			entry.User = UserIdentity{ID: u.ID, Email: u.Email, Name: u.Name}
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *MemoryRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sweets := make([]domain.Sweet, 0)
	for _, s := range r.sweets {
		if s.IsActive && s.Quantity <= threshold {
			sweets = append(sweets, *s)
		}
	}
	sort.SliceStable(sweets, func(i, j int) bool {
		return sweets[i].Quantity < sweets[j].Quantity
	})
	return sweets, nil
}
