package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetlabs/sweetshop/internal/domain"
)

func TestMemoryDeductStockConditional(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Price: 2.0, Quantity: 3, IsActive: true})
	ctx := context.Background()

	// Exactly draining the stock succeeds.
	updated, err := repo.DeductStock(ctx, &domain.Purchase{SweetID: 1, UserID: 1, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)

	// A further deduction matches nothing and changes nothing.
	_, err = repo.DeductStock(ctx, &domain.Purchase{SweetID: 1, UserID: 1, Quantity: 1})
	assert.ErrorIs(t, err, errStockConflict)
	sweet, err := repo.FindActiveSweet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sweet.Quantity)
	assert.Len(t, repo.Purchases(), 1)
}

func TestMemoryDeductStockCapturesPrice(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Price: 1.25, Quantity: 10, IsActive: true})

	p := &domain.Purchase{SweetID: 1, UserID: 1, Quantity: 4}
	_, err := repo.DeductStock(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p.TotalPrice, 1e-9)
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestMemoryAddStockInactive(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Quantity: 10, IsActive: false})

	_, err := repo.AddStock(context.Background(), &domain.Restock{SweetID: 1, UserID: 1, Quantity: 5})
	assert.ErrorIs(t, err, ErrSweetNotFound)
	assert.Empty(t, repo.Restocks())
}

func TestMemoryHistoryDateBounds(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Price: 1.0, Quantity: 100, IsActive: true})
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	_, err := repo.DeductStock(ctx, &domain.Purchase{SweetID: 1, UserID: 5, Quantity: 1})
	require.NoError(t, err)
	after := time.Now().Add(time.Minute)

	entries, err := repo.ListPurchasesByUser(ctx, 5, before, after)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	none, err := repo.ListPurchasesByUser(ctx, 5, after, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
