package repository

import (
	"context"

	"go-cake-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository owns cart lines. Writes that must see a consistent catalog
// and line state go through Atomic.
type CartRepository interface {
	Atomic(ctx context.Context, fn func(tx CartTx) error) error
	ListLines(ctx context.Context, tenantID, userID uint) ([]model.CartLineView, error)
	DeleteLine(ctx context.Context, tenantID, userID, lineID uint) (bool, error)
	Clear(ctx context.Context, tenantID, userID uint) (int64, error)
}

// CartTx is the set of reads and writes available inside one cart transaction.
type CartTx interface {
	FindProduct(tenantID, productID uint) (*model.Product, error)
	FindProductFlavor(tenantID, productID, flavorID uint) (*model.ProductFlavor, error)
	FindProductSize(tenantID, productID, sizeID uint) (*model.ProductSize, error)
	// InsertLineIfAbsent inserts line unless its natural key already exists.
	// It reports whether a row was inserted; line.ID is set when it was.
	InsertLineIfAbsent(line *model.CartItem) (bool, error)
	LockLine(key model.CartKey) (*model.CartItem, error)
	LockLineByID(tenantID, userID, lineID uint) (*model.CartItem, error)
	SaveLine(line *model.CartItem) error
}

var cartKeyColumns = []clause.Column{
	{Name: "tenant_id"}, {Name: "user_id"}, {Name: "product_id"}, {Name: "flavor_id"}, {Name: "size_id"},
}

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) CartRepository {
	return &cartRepo{db}
}

// Atomic runs fn in one transaction; any error from fn rolls everything back.
func (r *cartRepo) Atomic(ctx context.Context, fn func(tx CartTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&cartTx{tx: tx})
	})
}

func (r *cartRepo) ListLines(ctx context.Context, tenantID, userID uint) ([]model.CartLineView, error) {
	lines := []model.CartLineView{}
	err := r.db.WithContext(ctx).Table("cart_items").
		Select(`cart_items.id, cart_items.product_id, products.name AS product_name, products.main_image,
			cart_items.flavor_id, flavors.name AS flavor_name, cart_items.size_id, sizes.name AS size_name,
			cart_items.quantity, cart_items.unit_price, cart_items.total_price, cart_items.notes, cart_items.created_at`).
		Joins("JOIN products ON products.id = cart_items.product_id AND products.tenant_id = cart_items.tenant_id").
		Joins("JOIN flavors ON flavors.id = cart_items.flavor_id AND flavors.tenant_id = cart_items.tenant_id").
		Joins("JOIN sizes ON sizes.id = cart_items.size_id AND sizes.tenant_id = cart_items.tenant_id").
		Where("cart_items.tenant_id = ? AND cart_items.user_id = ?", tenantID, userID).
		Order("cart_items.created_at ASC, cart_items.id ASC").
		Scan(&lines).Error
	return lines, err
}

func (r *cartRepo) DeleteLine(ctx context.Context, tenantID, userID, lineID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, lineID).
		Delete(&model.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) Clear(ctx context.Context, tenantID, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

type cartTx struct {
	tx *gorm.DB
}

func (c *cartTx) FindProduct(tenantID, productID uint) (*model.Product, error) {
	var product model.Product
	if err := c.tx.Where("tenant_id = ? AND id = ?", tenantID, productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *cartTx) FindProductFlavor(tenantID, productID, flavorID uint) (*model.ProductFlavor, error) {
	var pf model.ProductFlavor
	err := c.tx.
		Joins("JOIN flavors ON flavors.id = product_flavors.flavor_id AND flavors.tenant_id = product_flavors.tenant_id AND flavors.deleted_at IS NULL").
		Where("product_flavors.tenant_id = ? AND product_flavors.product_id = ? AND product_flavors.flavor_id = ?",
			tenantID, productID, flavorID).
		First(&pf).Error
	if err != nil {
		return nil, err
	}
	return &pf, nil
}

func (c *cartTx) FindProductSize(tenantID, productID, sizeID uint) (*model.ProductSize, error) {
	var ps model.ProductSize
	err := c.tx.
		Preload("Size").
		Joins("JOIN sizes ON sizes.id = product_sizes.size_id AND sizes.tenant_id = product_sizes.tenant_id AND sizes.deleted_at IS NULL").
		Where("product_sizes.tenant_id = ? AND product_sizes.product_id = ? AND product_sizes.size_id = ?",
			tenantID, productID, sizeID).
		First(&ps).Error
	if err != nil {
		return nil, err
	}
	if ps.Size == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &ps, nil
}

func (c *cartTx) InsertLineIfAbsent(line *model.CartItem) (bool, error) {
	res := c.tx.Clauses(clause.OnConflict{Columns: cartKeyColumns, DoNothing: true}).Create(line)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (c *cartTx) LockLine(key model.CartKey) (*model.CartItem, error) {
	var line model.CartItem
	err := c.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND user_id = ? AND product_id = ? AND flavor_id = ? AND size_id = ?",
			key.TenantID, key.UserID, key.ProductID, key.FlavorID, key.SizeID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (c *cartTx) LockLineByID(tenantID, userID, lineID uint) (*model.CartItem, error) {
	var line model.CartItem
	err := c.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND user_id = ? AND id = ?", tenantID, userID, lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (c *cartTx) SaveLine(line *model.CartItem) error {
	res := c.tx.Model(line).
		Where("tenant_id = ? AND user_id = ?", line.TenantID, line.UserID).
		Updates(map[string]interface{}{
			"quantity":    line.Quantity,
			"unit_price":  line.UnitPrice,
			"total_price": line.TotalPrice,
			"notes":       line.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
