package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetlabs/sweetshop/internal/domain"
)

func newTestService(sweets ...domain.Sweet) (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	for _, s := range sweets {
		repo.PutSweet(s)
	}
	return NewService(repo, nil), repo
}

func TestPurchaseDecrementsStockAndLogs(t *testing.T) {
	svc, repo := newTestService(domain.Sweet{
		ID: 1, Name: "Gulab Jamun", Category: "indian", Price: 2.5, Quantity: 50, IsActive: true,
	})

	updated, err := svc.Purchase(context.Background(), 1, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Quantity)

	purchases := repo.Purchases()
	require.Len(t, purchases, 1)
	assert.Equal(t, int64(1), purchases[0].SweetID)
	assert.Equal(t, int64(100), purchases[0].UserID)
	assert.Equal(t, 10, purchases[0].Quantity)
	assert.InDelta(t, 25.0, purchases[0].TotalPrice, 1e-9)
}

func TestPurchaseInsufficientStock(t *testing.T) {
	svc, repo := newTestService(domain.Sweet{
		ID: 1, Name: "Ladoo", Category: "indian", Price: 1.0, Quantity: 5, IsActive: true,
	})

	_, err := svc.Purchase(context.Background(), 1, 100, 10)
	require.Error(t, err)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available)

	// Quantity unchanged, nothing logged.
	sweet, err := repo.FindActiveSweet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, sweet.Quantity)
	assert.Empty(t, repo.Purchases())
}

func TestRestockIncrementsStockAndLogs(t *testing.T) {
	svc, repo := newTestService(domain.Sweet{
		ID: 1, Name: "Barfi", Category: "indian", Price: 3.0, Quantity: 20, IsActive: true,
	})

	updated, err := svc.Restock(context.Background(), 1, 7, 30)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Quantity)

	restocks := repo.Restocks()
	require.Len(t, restocks, 1)
	assert.Equal(t, 30, restocks[0].Quantity)
	assert.Equal(t, int64(7), restocks[0].UserID)
}

func TestPurchaseInactiveSweet(t *testing.T) {
	svc, repo := newTestService(domain.Sweet{
		ID: 1, Name: "Halwa", Category: "indian", Price: 2.0, Quantity: 10, IsActive: false,
	})

	_, err := svc.Purchase(context.Background(), 1, 100, 1)
	assert.ErrorIs(t, err, ErrSweetNotFound)
	assert.Empty(t, repo.Purchases())

	_, err = svc.Restock(context.Background(), 1, 100, 1)
	assert.ErrorIs(t, err, ErrSweetNotFound)
	assert.Empty(t, repo.Restocks())
}

func TestPurchaseUnknownSweet(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Purchase(context.Background(), 42, 100, 1)
	assert.ErrorIs(t, err, ErrSweetNotFound)
}

func TestInvalidQuantity(t *testing.T) {
	svc, _ := newTestService(domain.Sweet{ID: 1, Quantity: 10, IsActive: true})

	for _, qty := range []int{0, -1, -100} {
		_, err := svc.Purchase(context.Background(), 1, 100, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = svc.Restock(context.Background(), 1, 100, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestLowStockThresholdAndOrder(t *testing.T) {
	svc, _ := newTestService(
		domain.Sweet{ID: 1, Name: "a", Quantity: 0, IsActive: true},
		domain.Sweet{ID: 2, Name: "b", Quantity: 5, IsActive: true},
		domain.Sweet{ID: 3, Name: "c", Quantity: 10, IsActive: true},
		domain.Sweet{ID: 4, Name: "d", Quantity: 11, IsActive: true},
		domain.Sweet{ID: 5, Name: "e", Quantity: 50, IsActive: true},
	)

	sweets, err := svc.LowStock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sweets, 3)
	assert.Equal(t, []int{0, 5, 10}, []int{sweets[0].Quantity, sweets[1].Quantity, sweets[2].Quantity})

	// Non-positive threshold falls back to the default of 10.
	byDefault, err := svc.LowStock(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, sweets, byDefault)

	// Reads are idempotent with no intervening mutation.
	again, err := svc.LowStock(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, sweets, again)
}

func TestLowStockExcludesInactive(t *testing.T) {
	svc, _ := newTestService(
		domain.Sweet{ID: 1, Quantity: 2, IsActive: true},
		domain.Sweet{ID: 2, Quantity: 3, IsActive: false},
	)
	sweets, err := svc.LowStock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sweets, 1)
	assert.Equal(t, int64(1), sweets[0].ID)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	const stock = 8
	const workers = 32
	svc, repo := newTestService(domain.Sweet{
		ID: 1, Name: "Jalebi", Price: 1.5, Quantity: stock, IsActive: true,
	})

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), 1, userID, stock)
			results <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, IsInsufficientStock(err), "unexpected error: %v", err)
		failed++
	}
	assert.Equal(t, 1, succeeded, "exactly one full-stock purchase must win")
	assert.Equal(t, workers-1, failed)

	sweet, err := repo.FindActiveSweet(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sweet.Quantity)
	assert.Len(t, repo.Purchases(), 1)
}

func TestQuantityMatchesTransactionSum(t *testing.T) {
	const initial = 100
	svc, repo := newTestService(domain.Sweet{
		ID: 1, Name: "Rasgulla", Price: 2.0, Quantity: initial, IsActive: true,
	})
	ctx := context.Background()

	ops := []struct {
		restock bool
		qty     int
	}{
		{false, 10}, {true, 5}, {false, 30}, {false, 200},
		{true, 40}, {false, 25}, {false, 500},
	}
	for _, op := range ops {
		if op.restock {
			_, _ = svc.Restock(ctx, 1, 1, op.qty)
		} else {
			_, _ = svc.Purchase(ctx, 1, 1, op.qty)
		}
	}

	sum := initial
	for _, rec := range repo.Restocks() {
		sum += rec.Quantity
	}
	for _, p := range repo.Purchases() {
		sum -= p.Quantity
	}

	sweet, err := repo.FindActiveSweet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, sum, sweet.Quantity)
	assert.GreaterOrEqual(t, sweet.Quantity, 0)
}

func TestPurchaseHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService(
		domain.Sweet{ID: 1, Name: "Kaju Katli", Price: 4.0, Quantity: 100, IsActive: true},
		domain.Sweet{ID: 2, Name: "Peda", Price: 1.0, Quantity: 100, IsActive: true},
	)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, 1, 55, 2)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, 2, 55, 3)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, 1, 77, 1) // another user
	require.NoError(t, err)

	entries, err := svc.PurchaseHistory(ctx, 55, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].SweetID, "newest first")
	assert.Equal(t, "Peda", entries[0].Sweet.Name)
	assert.Equal(t, int64(1), entries[1].SweetID)

	// Unknown user: empty result, not an error.
	empty, err := svc.PurchaseHistory(ctx, 999, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRestockHistoryCarriesUserIdentity(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutSweet(domain.Sweet{ID: 1, Name: "Soan Papdi", Price: 2.0, Quantity: 10, IsActive: true})
	repo.PutUser(domain.User{ID: 9, Email: "admin@sweetshop.com", Name: "Admin User", Role: "ADMIN"})
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Restock(ctx, 1, 9, 15)
	require.NoError(t, err)

	entries, err := svc.RestockHistory(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "admin@sweetshop.com", entries[0].User.Email)
	assert.Equal(t, "Admin User", entries[0].User.Name)
	assert.Equal(t, 15, entries[0].Quantity)
}
