package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go-cake-store/internal/model"
	"go-cake-store/internal/repository"
	"go-cake-store/pkg/logger"
	"go-cake-store/pkg/metrics"
	"go-cake-store/pkg/tracing"
	"go-cake-store/pkg/validator"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ListProductsParams is a catalog listing request. Nil or empty filters do not constrain.
type ListProductsParams struct {
	CategoryIDs     []uint
	FlavorIDs       []uint
	SizeIDs         []uint
	ConfectionerIDs []uint
	MinPrice        *int64 `validate:"omitempty,min=0"`
	MaxPrice        *int64 `validate:"omitempty,min=0"`
	Search          string `validate:"max=100"`
	AvailableOnly   *bool
	Sort            model.ProductSort
	Page            int
	PageSize        int
}

type ProductPage struct {
	Items       []model.ProductSummary `json:"items"`
	TotalCount  int64                  `json:"total_count"`
	TotalPages  int                    `json:"total_pages"`
	CurrentPage int                    `json:"current_page"`
	PageSize    int                    `json:"page_size"`
}

// FilterOptions lists every value a listing filter may take for a tenant.
type FilterOptions struct {
	Categories    []model.Category     `json:"categories"`
	Confectioners []model.Confectioner `json:"confectioners"`
	Flavors       []model.Flavor       `json:"flavors"`
	Sizes         []model.Size         `json:"sizes"`
}

type CatalogService interface {
	ListProducts(ctx context.Context, tenantID uint, params ListProductsParams) (*ProductPage, error)
	GetProductDetails(ctx context.Context, tenantID, productID uint) (*model.ProductDetails, error)
	GetRelatedProducts(ctx context.Context, tenantID, productID uint, limit int) ([]model.ProductSummary, error)
	GetFilterOptions(ctx context.Context, tenantID uint) (*FilterOptions, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	optionRepo  repository.OptionRepository
	tracer      trace.Tracer
}

func NewCatalogService(pRepo repository.ProductRepository, oRepo repository.OptionRepository) CatalogService {
	return &catalogService{
		productRepo: pRepo,
		optionRepo:  oRepo,
		tracer:      tracing.Tracer("catalog"),
	}
}

func (s *catalogService) ListProducts(ctx context.Context, tenantID uint, params ListProductsParams) (*ProductPage, error) {
	const op = "catalog.ListProducts"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	defer metrics.ObserveCatalog("list_products", time.Now())

	if tenantID == 0 {
		return nil, invalid(op, ErrTenantRequired)
	}
	if errs := validator.ValidateStruct(&params); len(errs) > 0 {
		return nil, invalidStruct(op, errs)
	}

	sort := params.Sort
	if sort == "" {
		sort = model.SortRelevance
	}
	if !sort.Valid() {
		return nil, invalid(op, ErrInvalidSort)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := normalizePageSize(params.PageSize)

	availableOnly := true
	if params.AvailableOnly != nil {
		availableOnly = *params.AvailableOnly
	}

	query := repository.ProductQuery{
		CategoryIDs:     normalizeIDs(params.CategoryIDs),
		FlavorIDs:       normalizeIDs(params.FlavorIDs),
		SizeIDs:         normalizeIDs(params.SizeIDs),
		ConfectionerIDs: normalizeIDs(params.ConfectionerIDs),
		MinPrice:        params.MinPrice,
		MaxPrice:        params.MaxPrice,
		Search:          strings.TrimSpace(params.Search),
		AvailableOnly:   availableOnly,
		Sort:            sort,
		Offset:          pageOffset(page, pageSize),
		Limit:           pageSize,
	}

	span.SetAttributes(
		attribute.Int("tenant.id", int(tenantID)),
		attribute.String("catalog.sort", string(sort)),
		attribute.Int("catalog.page", page),
		attribute.Int("catalog.page_size", pageSize),
	)

	items, total, err := s.productRepo.List(ctx, tenantID, query)
	if err != nil {
		logger.FromContext(ctx).Error("list products failed", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return nil, storeErr(op, err)
	}

	logger.FromContext(ctx).Debug("products listed",
		zap.Uint("tenant_id", tenantID),
		zap.Int64("total", total),
		zap.Int("page", page),
	)

	return &ProductPage{
		Items:       items,
		TotalCount:  total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

func (s *catalogService) GetProductDetails(ctx context.Context, tenantID, productID uint) (*model.ProductDetails, error) {
	const op = "catalog.GetProductDetails"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	defer metrics.ObserveCatalog("get_product_details", time.Now())

	if tenantID == 0 {
		return nil, invalid(op, ErrTenantRequired)
	}
	if productID == 0 {
		return nil, notFound(op, ErrProductNotFound)
	}

	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(op, ErrProductNotFound)
		}
		return nil, storeErr(op, err)
	}

	var (
		flavors []model.FlavorOption
		sizes   []model.SizeOption
		reviews []model.ReviewView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		flavors, err = s.productRepo.FindFlavorOptions(gctx, tenantID, productID)
		return err
	})
	g.Go(func() (err error) {
		sizes, err = s.productRepo.FindSizeOptions(gctx, tenantID, productID)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = s.productRepo.FindReviews(gctx, tenantID, productID)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.FromContext(ctx).Error("load product options failed", zap.Uint("product_id", productID), zap.Error(err))
		return nil, storeErr(op, err)
	}

	details := &model.ProductDetails{
		ID:               product.ID,
		Name:             product.Name,
		Description:      product.Description,
		Ingredients:      decodeStringList(ctx, "ingredients", product.Ingredients),
		NutritionalInfo:  decodeObject(ctx, "nutritional_info", product.NutritionalInfo),
		BasePrice:        product.BasePrice,
		PromotionalPrice: product.PromotionalPrice,
		MainImage:        product.MainImage,
		Gallery:          decodeStringList(ctx, "gallery", product.Gallery),
		AverageRating:    product.AverageRating,
		TotalReviews:     product.TotalReviews,
		PrepTimeMinutes:  product.PrepTimeMinutes,
		IsAvailable:      product.IsAvailable,
		IsActive:         product.IsActive,
		CategoryID:       product.CategoryID,
		Flavors:          nonNil(flavors),
		Sizes:            nonNil(sizes),
		Reviews:          nonNil(reviews),
	}
	if product.Category != nil {
		details.CategoryName = product.Category.Name
	}
	if product.Confectioner != nil {
		details.Confectioner = product.Confectioner.Summary()
	}
	return details, nil
}

func (s *catalogService) GetRelatedProducts(ctx context.Context, tenantID, productID uint, limit int) ([]model.ProductSummary, error) {
	const op = "catalog.GetRelatedProducts"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	defer metrics.ObserveCatalog("get_related_products", time.Now())

	if tenantID == 0 {
		return nil, invalid(op, ErrTenantRequired)
	}
	if limit < 1 {
		limit = DefaultRelatedLimit
	}
	if limit > MaxRelatedLimit {
		limit = MaxRelatedLimit
	}
	if productID == 0 {
		return nil, notFound(op, ErrProductNotFound)
	}

	ref, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(op, ErrProductNotFound)
		}
		return nil, storeErr(op, err)
	}

	related, err := s.productRepo.FindRelated(ctx, tenantID, ref, limit)
	if err != nil {
		return nil, storeErr(op, err)
	}

	seen := map[uint]bool{ref.ID: true}
	result := make([]model.ProductSummary, 0, limit)
	result = appendUnseen(result, related, seen, limit)

	if len(result) < limit {
		exclude := make([]uint, 0, len(seen))
		for id := range seen {
			exclude = append(exclude, id)
		}
		backfill, err := s.productRepo.FindTopRated(ctx, tenantID, normalizeIDs(exclude), limit-len(result))
		if err != nil {
			return nil, storeErr(op, err)
		}
		result = appendUnseen(result, backfill, seen, limit)
	}

	span.SetAttributes(attribute.Int("catalog.related", len(result)))
	return result, nil
}

func (s *catalogService) GetFilterOptions(ctx context.Context, tenantID uint) (*FilterOptions, error) {
	const op = "catalog.GetFilterOptions"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	defer metrics.ObserveCatalog("get_filter_options", time.Now())

	if tenantID == 0 {
		return nil, invalid(op, ErrTenantRequired)
	}

	opts := &FilterOptions{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		opts.Categories, err = s.optionRepo.Categories(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		opts.Confectioners, err = s.optionRepo.Confectioners(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		opts.Flavors, err = s.optionRepo.Flavors(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		opts.Sizes, err = s.optionRepo.Sizes(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeErr(op, err)
	}
	return opts, nil
}

func appendUnseen(dst, src []model.ProductSummary, seen map[uint]bool, limit int) []model.ProductSummary {
	for _, p := range src {
		if len(dst) >= limit {
			break
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		dst = append(dst, p)
	}
	return dst
}

// decodeStringList reads a JSON array column. Absent or malformed values decode to an empty list.
func decodeStringList(ctx context.Context, field, raw string) []string {
	list := []string{}
	if strings.TrimSpace(raw) == "" {
		return list
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.FromContext(ctx).Warn("malformed list column", zap.String("field", field), zap.Error(err))
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	return list
}

func decodeObject(ctx context.Context, field string, raw *string) map[string]interface{} {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(*raw), &obj); err != nil {
		logger.FromContext(ctx).Warn("malformed object column", zap.String("field", field), zap.Error(err))
		return nil
	}
	return obj
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
