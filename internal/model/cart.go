package model

import (
	"fmt"
	"time"
)

// MaxLineQuantity is the ceiling for a single cart line.
const MaxLineQuantity = 10

// CartItem is one cart line. (tenant, user, product, flavor, size) is unique;
// lines are removed physically, so there is no soft delete here.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TenantID   uint      `gorm:"not null;uniqueIndex:idx_cart_line,priority:1" json:"-"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_cart_line,priority:2" json:"-"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_line,priority:3" json:"product_id"`
	FlavorID   uint      `gorm:"not null;uniqueIndex:idx_cart_line,priority:4" json:"flavor_id"`
	SizeID     uint      `gorm:"not null;uniqueIndex:idx_cart_line,priority:5" json:"size_id"`
	Quantity   int       `gorm:"not null;check:quantity BETWEEN 1 AND 10" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
	TotalPrice int64     `gorm:"not null" json:"total_price"`
	Notes      *string   `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key returns the natural key of the line.
func (c *CartItem) Key() CartKey {
	return CartKey{
		TenantID:  c.TenantID,
		UserID:    c.UserID,
		ProductID: c.ProductID,
		FlavorID:  c.FlavorID,
		SizeID:    c.SizeID,
	}
}

// CartKey identifies a cart line by its natural key.
type CartKey struct {
	TenantID  uint
	UserID    uint
	ProductID uint
	FlavorID  uint
	SizeID    uint
}

func (k CartKey) String() string {
	return fmt.Sprintf("%d:%d:%d:%d:%d", k.TenantID, k.UserID, k.ProductID, k.FlavorID, k.SizeID)
}

// CartLineView is a cart line joined with catalog names for display.
type CartLineView struct {
	ID          uint      `json:"id"`
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name"`
	MainImage   string    `json:"main_image"`
	FlavorID    uint      `json:"flavor_id"`
	FlavorName  string    `json:"flavor_name"`
	SizeID      uint      `json:"size_id"`
	SizeName    string    `json:"size_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"`
	TotalPrice  int64     `json:"total_price"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// CartEvent is pushed to the owner's live connections after a cart write commits.
type CartEvent struct {
	Type       string `json:"type"`
	Action     string `json:"action"`
	LineID     uint   `json:"line_id,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	UnitPrice  int64  `json:"unit_price,omitempty"`
	TotalPrice int64  `json:"total_price,omitempty"`
}
