package model

import "time"

type Product struct {
	BaseModel
	Name             string  `gorm:"type:varchar(150);not null" json:"name"`
	Description      string  `gorm:"type:text" json:"description"`
	Ingredients      string  `gorm:"type:text" json:"-"` // JSON array of strings
	NutritionalInfo  *string `gorm:"type:text" json:"-"` // JSON object
	BasePrice        int64   `gorm:"not null" json:"base_price"`
	PromotionalPrice *int64  `json:"promotional_price"`
	MainImage        string  `gorm:"type:varchar(500)" json:"main_image"`
	Gallery          string  `gorm:"type:text" json:"-"` // JSON array of image urls
	AverageRating    float64 `gorm:"type:numeric(3,2);not null;default:0" json:"average_rating"`
	TotalReviews     int     `gorm:"not null;default:0" json:"total_reviews"`
	PrepTimeMinutes  int     `gorm:"not null;default:0" json:"prep_time_minutes"`
	IsAvailable      bool    `gorm:"not null" json:"is_available"`
	IsActive         bool    `gorm:"not null" json:"is_active"`

	ConfectionerID uint          `gorm:"index;not null" json:"confectioner_id"`
	CategoryID     uint          `gorm:"index;not null" json:"category_id"`
	Confectioner   *Confectioner `gorm:"foreignKey:ConfectionerID" json:"confectioner,omitempty"`
	Category       *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// SellingPrice is the promotional price when set, otherwise the base price.
func (p *Product) SellingPrice() int64 {
	if p.PromotionalPrice != nil {
		return *p.PromotionalPrice
	}
	return p.BasePrice
}

// Purchasable reports whether a customer may put the product in a cart.
func (p *Product) Purchasable() bool {
	return p.IsActive && p.IsAvailable && !p.DeletedAt.Valid
}

// ProductSort names a catalog ordering
type ProductSort string

const (
	SortRelevance   ProductSort = "relevance"
	SortPriceAsc    ProductSort = "price_asc"
	SortPriceDesc   ProductSort = "price_desc"
	SortTopRated    ProductSort = "top_rated"
	SortBestSellers ProductSort = "best_sellers"
	SortNewest      ProductSort = "newest"
)

// Valid reports whether s is one of the known orderings.
func (s ProductSort) Valid() bool {
	switch s {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortTopRated, SortBestSellers, SortNewest:
		return true
	}
	return false
}

// ProductSummary is one row of a catalog listing.
type ProductSummary struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	BasePrice        int64   `json:"base_price"`
	PromotionalPrice *int64  `json:"promotional_price"`
	MainImage        string  `json:"main_image"`
	AverageRating    float64 `json:"average_rating"`
	TotalReviews     int     `json:"total_reviews"`
	PrepTimeMinutes  int     `json:"prep_time_minutes"`
	IsAvailable      bool    `json:"is_available"`
	ConfectionerID   uint    `json:"confectioner_id"`
	ConfectionerName string  `json:"confectioner_name"`
	CategoryID       uint    `json:"category_id"`
	CategoryName     string  `json:"category_name"`
}

// ProductDetails is the full product page payload.
type ProductDetails struct {
	ID               uint                   `json:"id"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	Ingredients      []string               `json:"ingredients"`
	NutritionalInfo  map[string]interface{} `json:"nutritional_info"`
	BasePrice        int64                  `json:"base_price"`
	PromotionalPrice *int64                 `json:"promotional_price"`
	MainImage        string                 `json:"main_image"`
	Gallery          []string               `json:"gallery"`
	AverageRating    float64                `json:"average_rating"`
	TotalReviews     int                    `json:"total_reviews"`
	PrepTimeMinutes  int                    `json:"prep_time_minutes"`
	IsAvailable      bool                   `json:"is_available"`
	IsActive         bool                   `json:"is_active"`
	CategoryID       uint                   `json:"category_id"`
	CategoryName     string                 `json:"category_name"`
	Confectioner     *ConfectionerSummary   `json:"confectioner"`
	Flavors          []FlavorOption         `json:"flavors"`
	Sizes            []SizeOption           `json:"sizes"`
	Reviews          []ReviewView           `json:"reviews"`
}

// FlavorOption is a flavor offered (or withdrawn) for one product.
type FlavorOption struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// SizeOption is a size offered (or withdrawn) for one product.
type SizeOption struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Servings      int    `json:"servings"`
	PriceModifier int64  `json:"price_modifier"`
	Available     bool   `json:"available"`
}

type ReviewView struct {
	ID           uint      `json:"id"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}
