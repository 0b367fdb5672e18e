package repository

import (
	"context"
	"strings"

	"go-cake-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductQuery is a normalized catalog listing request. Empty id sets and nil
// price bounds mean "no constraint on that dimension".
type ProductQuery struct {
	CategoryIDs     []uint
	FlavorIDs       []uint
	SizeIDs         []uint
	ConfectionerIDs []uint
	MinPrice        *int64
	MaxPrice        *int64
	Search          string
	AvailableOnly   bool
	Sort            model.ProductSort
	Offset          int
	Limit           int
}

type ProductRepository interface {
	List(ctx context.Context, tenantID uint, q ProductQuery) ([]model.ProductSummary, int64, error)
	FindByID(ctx context.Context, tenantID, productID uint) (*model.Product, error)
	FindFlavorOptions(ctx context.Context, tenantID, productID uint) ([]model.FlavorOption, error)
	FindSizeOptions(ctx context.Context, tenantID, productID uint) ([]model.SizeOption, error)
	FindReviews(ctx context.Context, tenantID, productID uint) ([]model.ReviewView, error)
	FindRelated(ctx context.Context, tenantID uint, ref *model.Product, limit int) ([]model.ProductSummary, error)
	FindTopRated(ctx context.Context, tenantID uint, exclude []uint, limit int) ([]model.ProductSummary, error)
}

const summaryColumns = `products.id, products.name, products.description, products.base_price,
	products.promotional_price, products.main_image, products.average_rating, products.total_reviews,
	products.prep_time_minutes, products.is_available,
	products.confectioner_id, confectioners.name AS confectioner_name,
	products.category_id, categories.name AS category_name`

const rankingOrder = "products.average_rating DESC, products.total_reviews DESC, products.name ASC, products.id ASC"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// visible selects the tenant's active, non-deleted products whose confectioner
// and category are both non-deleted.
func (r *productRepo) visible(ctx context.Context, tenantID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Joins("JOIN confectioners ON confectioners.id = products.confectioner_id AND confectioners.tenant_id = products.tenant_id AND confectioners.deleted_at IS NULL").
		Joins("JOIN categories ON categories.id = products.category_id AND categories.tenant_id = products.tenant_id AND categories.deleted_at IS NULL").
		Where("products.tenant_id = ? AND products.is_active = ?", tenantID, true)
}

func (r *productRepo) filtered(ctx context.Context, tenantID uint, q ProductQuery) *gorm.DB {
	tx := r.visible(ctx, tenantID)

	if q.AvailableOnly {
		tx = tx.Where("products.is_available = ?", true)
	}
	if len(q.CategoryIDs) > 0 {
		tx = tx.Where("products.category_id IN ?", q.CategoryIDs)
	}
	if len(q.ConfectionerIDs) > 0 {
		tx = tx.Where("products.confectioner_id IN ?", q.ConfectionerIDs)
	}
	if q.MinPrice != nil {
		tx = tx.Where("products.base_price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("products.base_price <= ?", *q.MaxPrice)
	}
	if q.Search != "" {
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		tx = tx.Where("(products.name ILIKE ? OR products.description ILIKE ? OR products.ingredients ILIKE ?)",
			pattern, pattern, pattern)
	}
	if len(q.FlavorIDs) > 0 {
		tx = tx.Where(`EXISTS (SELECT 1 FROM product_flavors pf
			JOIN flavors f ON f.id = pf.flavor_id AND f.tenant_id = pf.tenant_id AND f.deleted_at IS NULL
			WHERE pf.product_id = products.id AND pf.tenant_id = products.tenant_id
			AND pf.flavor_id IN ? AND pf.available = ?)`, q.FlavorIDs, true)
	}
	if len(q.SizeIDs) > 0 {
		tx = tx.Where(`EXISTS (SELECT 1 FROM product_sizes ps
			JOIN sizes s ON s.id = ps.size_id AND s.tenant_id = ps.tenant_id AND s.deleted_at IS NULL
			WHERE ps.product_id = products.id AND ps.tenant_id = products.tenant_id
			AND ps.size_id IN ? AND ps.available = ?)`, q.SizeIDs, true)
	}
	return tx
}

// orderClause maps a sort key onto a fixed ORDER BY. Every ordering ends in
// name then id so equal-rank rows paginate deterministically.
func orderClause(sort model.ProductSort) string {
	switch sort {
	case model.SortPriceAsc:
		return "products.base_price ASC, products.name ASC, products.id ASC"
	case model.SortPriceDesc:
		return "products.base_price DESC, products.name ASC, products.id ASC"
	case model.SortBestSellers:
		return "products.total_reviews DESC, products.name ASC, products.id ASC"
	case model.SortNewest:
		return "products.created_at DESC, products.name ASC, products.id ASC"
	default: // relevance, top_rated
		return "products.average_rating DESC, products.name ASC, products.id ASC"
	}
}

// List returns one page and the count of the whole filtered set.
func (r *productRepo) List(ctx context.Context, tenantID uint, q ProductQuery) ([]model.ProductSummary, int64, error) {
	var total int64
	if err := r.filtered(ctx, tenantID, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := []model.ProductSummary{}
	if total == 0 || int64(q.Offset) >= total {
		return items, total, nil
	}

	err := r.filtered(ctx, tenantID, q).
		Select(summaryColumns).
		Order(orderClause(q.Sort)).
		Offset(q.Offset).
		Limit(q.Limit).
		Scan(&items).Error
	return items, total, err
}

func (r *productRepo) FindByID(ctx context.Context, tenantID, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Confectioner").
		Preload("Category").
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindFlavorOptions(ctx context.Context, tenantID, productID uint) ([]model.FlavorOption, error) {
	options := []model.FlavorOption{}
	err := r.db.WithContext(ctx).Table("product_flavors").
		Select("flavors.id, flavors.name, product_flavors.available").
		Joins("JOIN flavors ON flavors.id = product_flavors.flavor_id AND flavors.tenant_id = product_flavors.tenant_id AND flavors.deleted_at IS NULL").
		Where("product_flavors.tenant_id = ? AND product_flavors.product_id = ?", tenantID, productID).
		Order("flavors.name ASC, flavors.id ASC").
		Scan(&options).Error
	return options, err
}

func (r *productRepo) FindSizeOptions(ctx context.Context, tenantID, productID uint) ([]model.SizeOption, error) {
	options := []model.SizeOption{}
	err := r.db.WithContext(ctx).Table("product_sizes").
		Select("sizes.id, sizes.name, sizes.servings, sizes.price_modifier, product_sizes.available").
		Joins("JOIN sizes ON sizes.id = product_sizes.size_id AND sizes.tenant_id = product_sizes.tenant_id AND sizes.deleted_at IS NULL").
		Where("product_sizes.tenant_id = ? AND product_sizes.product_id = ?", tenantID, productID).
		Order("sizes.price_modifier ASC, sizes.id ASC").
		Scan(&options).Error
	return options, err
}

func (r *productRepo) FindReviews(ctx context.Context, tenantID, productID uint) ([]model.ReviewView, error) {
	reviews := []model.ReviewView{}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("id, customer_name, rating, comment, created_at").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("created_at DESC, id DESC").
		Scan(&reviews).Error
	return reviews, err
}

// FindRelated ranks same-confectioner candidates before same-category ones.
func (r *productRepo) FindRelated(ctx context.Context, tenantID uint, ref *model.Product, limit int) ([]model.ProductSummary, error) {
	items := []model.ProductSummary{}
	err := r.visible(ctx, tenantID).
		Select(summaryColumns).
		Where("products.is_available = ? AND products.id <> ?", true, ref.ID).
		Where("(products.confectioner_id = ? OR products.category_id = ?)", ref.ConfectionerID, ref.CategoryID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN products.confectioner_id = ? THEN 1 WHEN products.category_id = ? THEN 2 ELSE 3 END, " + rankingOrder,
			Vars:               []interface{}{ref.ConfectionerID, ref.CategoryID},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Scan(&items).Error
	return items, err
}

// FindTopRated returns the best-ranked purchasable products outside exclude.
func (r *productRepo) FindTopRated(ctx context.Context, tenantID uint, exclude []uint, limit int) ([]model.ProductSummary, error) {
	items := []model.ProductSummary{}
	tx := r.visible(ctx, tenantID).
		Select(summaryColumns).
		Where("products.is_available = ?", true)
	// NOT IN over an empty list would match nothing
	if len(exclude) > 0 {
		tx = tx.Where("products.id NOT IN ?", exclude)
	}
	err := tx.Order(rankingOrder).Limit(limit).Scan(&items).Error
	return items, err
}
