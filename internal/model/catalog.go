package model

// Confectioner is the seller that bakes a product.
type Confectioner struct {
	BaseModel
	Name              string  `gorm:"type:varchar(150);not null" json:"name"`
	PhotoURL          string  `gorm:"type:varchar(500)" json:"photo_url"`
	AverageRating     float64 `gorm:"type:numeric(3,2);not null;default:0" json:"average_rating"`
	TotalProductsSold int     `gorm:"not null;default:0" json:"total_products_sold"`
}

type ConfectionerSummary struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	PhotoURL          string  `json:"photo_url"`
	AverageRating     float64 `json:"average_rating"`
	TotalProductsSold int     `json:"total_products_sold"`
}

func (c *Confectioner) Summary() *ConfectionerSummary {
	return &ConfectionerSummary{
		ID:                c.ID,
		Name:              c.Name,
		PhotoURL:          c.PhotoURL,
		AverageRating:     c.AverageRating,
		TotalProductsSold: c.TotalProductsSold,
	}
}

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	Slug string `gorm:"type:varchar(100)" json:"slug"`
}

type Flavor struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

type Size struct {
	BaseModel
	Name          string `gorm:"type:varchar(100);not null" json:"name"`
	Servings      int    `gorm:"not null;default:0" json:"servings"`
	PriceModifier int64  `gorm:"not null;default:0" json:"price_modifier"`
}

// ProductFlavor records whether a flavor is currently offered for a product.
type ProductFlavor struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	TenantID  uint    `gorm:"not null;uniqueIndex:idx_product_flavor,priority:1" json:"-"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_product_flavor,priority:2" json:"product_id"`
	FlavorID  uint    `gorm:"not null;uniqueIndex:idx_product_flavor,priority:3" json:"flavor_id"`
	Available bool    `gorm:"not null" json:"available"`
	Flavor    *Flavor `gorm:"foreignKey:FlavorID" json:"flavor,omitempty"`
}

// ProductSize records whether a size is currently offered for a product.
type ProductSize struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	TenantID  uint  `gorm:"not null;uniqueIndex:idx_product_size,priority:1" json:"-"`
	ProductID uint  `gorm:"not null;uniqueIndex:idx_product_size,priority:2" json:"product_id"`
	SizeID    uint  `gorm:"not null;uniqueIndex:idx_product_size,priority:3" json:"size_id"`
	Available bool  `gorm:"not null" json:"available"`
	Size      *Size `gorm:"foreignKey:SizeID" json:"size,omitempty"`
}

// Review ratings are maintained externally into Product.AverageRating / TotalReviews.
type Review struct {
	BaseModel
	ProductID    uint   `gorm:"index;not null" json:"product_id"`
	UserID       uint   `gorm:"index" json:"user_id"`
	CustomerName string `gorm:"type:varchar(150)" json:"customer_name"`
	Rating       int    `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment      string `gorm:"type:text" json:"comment"`
}
