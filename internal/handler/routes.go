package handler

import (
	"go-cake-store/internal/middleware"
	"go-cake-store/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the catalog and cart endpoints on api.
func RegisterRoutes(api fiber.Router, tokens *jwt.Manager, catalog *CatalogHandler, cart *CartHandler) {
	// Catalog reads are open to anonymous shoppers of a tenant
	tenant := middleware.RequireTenant(tokens)
	api.Get("/products", tenant, catalog.ListProducts)
	api.Get("/products/:id", tenant, catalog.GetProduct)
	api.Get("/products/:id/related", tenant, catalog.GetRelated)
	api.Get("/catalog/filters", tenant, catalog.GetFilters)

	carts := api.Group("/cart", middleware.RequireIdentity(tokens))
	carts.Get("", cart.GetCart)
	carts.Delete("", cart.Clear)
	carts.Post("/items", cart.AddItem)
	carts.Patch("/items/:id", cart.UpdateItem)
	carts.Delete("/items/:id", cart.RemoveItem)
}
