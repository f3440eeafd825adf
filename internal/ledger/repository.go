package ledger

import (
	"context"
	"time"

	"github.com/sweetlabs/sweetshop/internal/domain"
)

// PurchaseEntry is a purchase row joined with a snapshot of the sweet it
// references.
type PurchaseEntry struct {
	domain.Purchase
	Sweet domain.Sweet `json:"sweet"`
}

// UserIdentity is the minimal user projection attached to restock history.
type UserIdentity struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RestockEntry is a restock row joined with the acting user's identity.
type RestockEntry struct {
	domain.Restock
	User UserIdentity `json:"user"`
}

// Repository is the storage boundary of the inventory ledger. The two
// mutating operations each execute their stock adjustment and ledger
// append as a single storage transaction: two concurrent purchases
// against the same sweet can never both pass the stock check.
type Repository interface {
	// FindActiveSweet resolves an active sweet by id. The isActive filter
	// is encoded here once rather than at every call site.
	FindActiveSweet(ctx context.Context, id int64) (*domain.Sweet, error)

	// DeductStock decrements the sweet quantity by p.Quantity and appends
	// the purchase row in one atomic unit. The decrement is conditional on
	// quantity >= p.Quantity; when the condition fails nothing changes and
	// errStockConflict is returned. TotalPrice is computed from the price
	// read inside the same transaction as the decrement.
	DeductStock(ctx context.Context, p *domain.Purchase) (*domain.Sweet, error)

	// AddStock increments the sweet quantity by r.Quantity and appends the
	// restock row in one atomic unit.
	AddStock(ctx context.Context, r *domain.Restock) (*domain.Sweet, error)

	// ListPurchasesByUser returns the user's purchases newest-first, each
	// joined with a sweet snapshot. Zero from/to disable the bounds.
	ListPurchasesByUser(ctx context.Context, userID int64, from, to time.Time) ([]PurchaseEntry, error)

	// ListRestocksBySweet returns the sweet's restocks newest-first, each
	// joined with the acting user's identity.
	ListRestocksBySweet(ctx context.Context, sweetID int64, from, to time.Time) ([]RestockEntry, error)

	// ListLowStock returns active sweets with quantity <= threshold,
	// ordered ascending by quantity.
	ListLowStock(ctx context.Context, threshold int) ([]domain.Sweet, error)
}
