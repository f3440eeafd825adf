package domain

import "time"

// Purchase is an append-only ledger row recording a stock decrement.
// TotalPrice captures quantity x sweet price at purchase time.
type Purchase struct {
	ID         int64     `json:"id,string"`
	SweetID    int64     `gorm:"index" json:"sweet_id,string"`
	UserID     int64     `gorm:"index" json:"user_id,string"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Purchase) TableName() string {
	return "purchases"
}

// Restock is an append-only ledger row recording a stock increment.
type Restock struct {
	ID        int64     `json:"id,string"`
	SweetID   int64     `gorm:"index" json:"sweet_id,string"`
	UserID    int64     `gorm:"index" json:"user_id,string"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Restock) TableName() string {
	return "restocks"
}
