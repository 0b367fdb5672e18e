package handler

import (
	"go-cake-store/internal/middleware"
	"go-cake-store/internal/model"
	"go-cake-store/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// ListProducts serves GET /products.
// Id filters are comma separated: ?category_ids=1,2&flavor_ids=3
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	var (
		params service.ListProductsParams
		err    error
	)

	idFilters := []struct {
		query string
		dst   *[]uint
	}{
		{"category_ids", &params.CategoryIDs},
		{"flavor_ids", &params.FlavorIDs},
		{"size_ids", &params.SizeIDs},
		{"confectioner_ids", &params.ConfectionerIDs},
	}
	for _, f := range idFilters {
		if *f.dst, err = parseIDList(c.Query(f.query)); err != nil {
			return badRequest(c, "Invalid "+f.query)
		}
	}

	if params.MinPrice, err = parseOptionalInt64(c.Query("min_price")); err != nil {
		return badRequest(c, "Invalid min_price")
	}
	if params.MaxPrice, err = parseOptionalInt64(c.Query("max_price")); err != nil {
		return badRequest(c, "Invalid max_price")
	}
	if params.AvailableOnly, err = parseOptionalBool(c.Query("available")); err != nil {
		return badRequest(c, "Invalid available")
	}

	params.Search = c.Query("search")
	params.Sort = model.ProductSort(c.Query("sort"))
	params.Page = c.QueryInt("page", 1)
	params.PageSize = c.QueryInt("page_size", service.DefaultPageSize)

	page, err := h.service.ListProducts(c.UserContext(), middleware.TenantID(c), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}

	details, err := h.service.GetProductDetails(c.UserContext(), middleware.TenantID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(details)
}

func (h *CatalogHandler) GetRelated(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}

	items, err := h.service.GetRelatedProducts(c.UserContext(), middleware.TenantID(c), id, c.QueryInt("limit", service.DefaultRelatedLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *CatalogHandler) GetFilters(c *fiber.Ctx) error {
	opts, err := h.service.GetFilterOptions(c.UserContext(), middleware.TenantID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(opts)
}
