package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel carries the id, the owning tenant, timestamps and soft delete.
// Every catalog table embeds it so the tenant column is never optional.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TenantID  uint           `gorm:"index;not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// All lists every table for migration, parents first.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Confectioner{},
		&Flavor{},
		&Size{},
		&Product{},
		&ProductFlavor{},
		&ProductSize{},
		&Review{},
		&CartItem{},
	}
}
