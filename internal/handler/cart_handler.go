package handler

import (
	"go-cake-store/internal/middleware"
	"go-cake-store/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

type addToCartRequest struct {
	ProductID uint    `json:"product_id"`
	FlavorID  uint    `json:"flavor_id"`
	SizeID    uint    `json:"size_id"`
	Quantity  int     `json:"quantity"`
	Notes     *string `json:"notes"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), middleware.TenantID(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	line, err := h.service.AddToCart(c.UserContext(), middleware.TenantID(c), middleware.UserID(c), service.AddToCartParams{
		ProductID: req.ProductID,
		FlavorID:  req.FlavorID,
		SizeID:    req.SizeID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	if line.Merged {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(line)
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid cart item ID")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	line, err := h.service.UpdateCartItem(c.UserContext(), middleware.TenantID(c), middleware.UserID(c), id, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(line)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid cart item ID")
	}

	if err := h.service.RemoveCartItem(c.UserContext(), middleware.TenantID(c), middleware.UserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.service.ClearCart(c.UserContext(), middleware.TenantID(c), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
