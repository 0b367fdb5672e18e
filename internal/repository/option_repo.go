package repository

import (
	"context"

	"go-cake-store/internal/model"

	"gorm.io/gorm"
)

// OptionRepository reads the tenant's filter vocabularies.
type OptionRepository interface {
	Categories(ctx context.Context, tenantID uint) ([]model.Category, error)
	Confectioners(ctx context.Context, tenantID uint) ([]model.Confectioner, error)
	Flavors(ctx context.Context, tenantID uint) ([]model.Flavor, error)
	Sizes(ctx context.Context, tenantID uint) ([]model.Size, error)
}

type optionRepo struct {
	db *gorm.DB
}

func NewOptionRepo(db *gorm.DB) OptionRepository {
	return &optionRepo{db}
}

func (r *optionRepo) Categories(ctx context.Context, tenantID uint) ([]model.Category, error) {
	categories := []model.Category{}
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("name ASC, id ASC").Find(&categories).Error
	return categories, err
}

func (r *optionRepo) Confectioners(ctx context.Context, tenantID uint) ([]model.Confectioner, error) {
	confectioners := []model.Confectioner{}
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("name ASC, id ASC").Find(&confectioners).Error
	return confectioners, err
}

func (r *optionRepo) Flavors(ctx context.Context, tenantID uint) ([]model.Flavor, error) {
	flavors := []model.Flavor{}
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("name ASC, id ASC").Find(&flavors).Error
	return flavors, err
}

func (r *optionRepo) Sizes(ctx context.Context, tenantID uint) ([]model.Size, error) {
	sizes := []model.Size{}
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("price_modifier ASC, id ASC").Find(&sizes).Error
	return sizes, err
}
