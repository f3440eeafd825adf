package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/pkg/common"
	"gorm.io/gorm"
)

// GormRepository is the GORM implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a new GORM-based ledger repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindActiveSweet(ctx context.Context, id int64) (*domain.Sweet, error) {
	var sweet domain.Sweet
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&sweet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSweetNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query sweet")
	}
	return &sweet, nil
}

func (r *GormRepository) DeductStock(ctx context.Context, p *domain.Purchase) (*domain.Sweet, error) {
	var updated domain.Sweet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional decrement: the WHERE clause re-validates the stock
		// check inside the transaction, so a racing purchase cannot drive
		// the quantity negative.
		res := tx.Model(&domain.Sweet{}).
			Where("id = ? AND is_active = ? AND quantity >= ?", p.SweetID, true, p.Quantity).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity - ?", p.Quantity),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "decrement stock")
		}
		if res.RowsAffected == 0 {
			return errStockConflict
		}

		if err := tx.First(&updated, p.SweetID).Error; err != nil {
			return errors.Wrap(err, "reload sweet")
		}

		// Price captured within the same atomic unit as the decrement.
		if p.ID == 0 {
			p.ID = common.UUIDint64()
		}
		p.TotalPrice = float64(p.Quantity) * updated.Price
		p.CreatedAt = time.Now()
		if err := tx.Create(p).Error; err != nil {
			return errors.Wrap(err, "append purchase")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *GormRepository) AddStock(ctx context.Context, rec *domain.Restock) (*domain.Sweet, error) {
	var updated domain.Sweet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Sweet{}).
			Where("id = ? AND is_active = ?", rec.SweetID, true).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", rec.Quantity),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "increment stock")
		}
		if res.RowsAffected == 0 {
			return ErrSweetNotFound
		}

		if err := tx.First(&updated, rec.SweetID).Error; err != nil {
			return errors.Wrap(err, "reload sweet")
		}

		if rec.ID == 0 {
			rec.ID = common.UUIDint64()
		}
		rec.CreatedAt = time.Now()
		if err := tx.Create(rec).Error; err != nil {
			return errors.Wrap(err, "append restock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *GormRepository) ListPurchasesByUser(ctx context.Context, userID int64, from, to time.Time) ([]PurchaseEntry, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}

	var purchases []domain.Purchase
	if err := query.Order("created_at DESC").Find(&purchases).Error; err != nil {
		return nil, errors.Wrap(err, "query purchases")
	}
	if len(purchases) == 0 {
		return []PurchaseEntry{}, nil
	}

	sweetIDs := make([]int64, 0, len(purchases))
	for _, p := range purchases {
		sweetIDs = append(sweetIDs, p.SweetID)
	}
	var sweets []domain.Sweet
	if err := r.db.WithContext(ctx).Where("id IN ?", sweetIDs).Find(&sweets).Error; err != nil {
		return nil, errors.Wrap(err, "query sweets")
	}
	sweetByID := make(map[int64]domain.Sweet, len(sweets))
	for _, s := range sweets {
		sweetByID[s.ID] = s
	}

	entries := make([]PurchaseEntry, 0, len(purchases))
	for _, p := range purchases {
		entries = append(entries, PurchaseEntry{Purchase: p, Sweet: sweetByID[p.SweetID]})
	}
	return entries, nil
}

func (r *GormRepository) ListRestocksBySweet(ctx context.Context, sweetID int64, from, to time.Time) ([]RestockEntry, error) {
	query := r.db.WithContext(ctx).Where("sweet_id = ?", sweetID)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}

	var restocks []domain.Restock
	if err := query.Order("created_at DESC").Find(&restocks).Error; err != nil {
		return nil, errors.Wrap(err, "query restocks")
	}
	if len(restocks) == 0 {
		return []RestockEntry{}, nil
	}

	userIDs := make([]int64, 0, len(restocks))
	for _, rec := range restocks {
		userIDs = append(userIDs, rec.UserID)
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "query users")
	}
	userByID := make(map[int64]UserIdentity, len(users))
	for _, u := range users {
		userByID[u.ID] = UserIdentity{ID: u.ID, Email: u.Email, Name: u.Name}
	}

	entries := make([]RestockEntry, 0, len(restocks))
	for _, rec := range restocks {
		entries = append(entries, RestockEntry{Restock: rec, User: userByID[rec.UserID]})
	}
	return entries, nil
}

func (r *GormRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Sweet, error) {
	var sweets []domain.Sweet
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND quantity <= ?", true, threshold).
		Order("quantity ASC").
		Find(&sweets).Error
	if err != nil {
		return nil, errors.Wrap(err, "query low stock")
	}
	return sweets, nil
}
