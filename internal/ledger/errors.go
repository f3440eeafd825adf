package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSweetNotFound means the sweet does not exist or is inactive.
	ErrSweetNotFound = errors.New("sweet not found or inactive")

	// ErrInvalidQuantity means the requested quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// errStockConflict is returned by repositories when the conditional
	// stock decrement matched no row. The service resolves it into
	// ErrSweetNotFound or InsufficientStockError.
	errStockConflict = errors.New("stock conflict")
)

// InsufficientStockError means the requested purchase quantity exceeds
// the available stock. Available carries the quantity left so callers
// can report it.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
