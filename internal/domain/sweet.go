package domain

import "time"

// Sweet represents a catalog item with price and stock quantity.
// Deletion is soft: IsActive=false removes it from all catalog-facing
// reads and from new purchase/restock operations.
type Sweet struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"uniqueIndex;size:200" json:"name" form:"name"`
	Description string    `gorm:"size:1024" json:"description" form:"description"`
	Category    string    `gorm:"index;size:100" json:"category" form:"category"`
	Price       float64   `json:"price" form:"price"`
	Quantity    int       `json:"quantity" form:"quantity"` // never negative
	ImageURL    string    `gorm:"size:1024" json:"image_url" form:"image_url"`
	IsActive    bool      `gorm:"index" json:"is_active" form:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Sweet) TableName() string {
	return "sweets"
}
