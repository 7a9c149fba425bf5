package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/boulangerie-api/internal/application/analytics"
	"github.com/jhoicas/boulangerie-api/internal/application/auth"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/pricing"
	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/application/usecase"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// RouterDeps dépendances du routeur.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	UserUC        *usecase.UserUseCase
	ProductUC     *usecase.ProductUseCase
	PurchaseUC    *inventory.PurchaseUseCase
	TransferUC    *inventory.TransferUseCase
	AdjustmentUC  *inventory.AdjustmentUseCase
	StockQueryUC  *inventory.StockQueryUseCase
	Replenishment *inventory.ReplenishmentUseCase
	RecipeUC      *inventory.RecipeUseCase
	ProductionUC  *inventory.ProductionUseCase
	POSUC         *sales.POSUseCase
	CancelUC      *sales.CancellationUseCase
	PricingUC     *pricing.PricingUseCase
	DashboardUC   *appanalytics.DashboardUseCase
	JWTSecret     string
}

// Router enregistre les routes de l'API.
// Les cas d'usage contrôlent aussi les rôles; RequireRole rejette plus tôt les appels évidents.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (public)
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	api.Post("/auth/login", authHandler.Login)

	// Routes protégées (Bearer Token requis)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)

	admin := RequireRole(entity.RoleAdmin)
	elevated := RequireRole(entity.ElevatedRoles...)
	stock := RequireRole(entity.StockRoles...)

	// Users (admin)
	users := protected.Group("/users", admin)
	userHandler := NewUserHandler(deps.UserUC)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Delete("/:id", elevated, productHandler.Deactivate)

	// Stock
	stockGroup := protected.Group("/stock")
	inventoryHandler := NewInventoryHandler(deps.PurchaseUC, deps.TransferUC, deps.AdjustmentUC, deps.StockQueryUC, deps.Replenishment)
	stockGroup.Post("/purchases", stock, inventoryHandler.ReceivePurchase)
	stockGroup.Post("/transfers", stock, inventoryHandler.Transfer)
	stockGroup.Post("/adjustments", elevated, inventoryHandler.Adjust)
	stockGroup.Get("/summary", inventoryHandler.Summary)
	stockGroup.Get("/movements", stock, inventoryHandler.Movements)
	stockGroup.Get("/replenishment-list", stock, inventoryHandler.GetReplenishmentList)
	stockGroup.Get("/pools/:pool", inventoryHandler.ListPool)
	stockGroup.Get("/products/:product_id", inventoryHandler.Balances)
	stockGroup.Get("/products/:product_id/pools/:pool/reconcile", stock, inventoryHandler.Reconcile)

	// Recipes
	recipes := protected.Group("/recipes")
	recipeHandler := NewRecipeHandler(deps.RecipeUC)
	recipes.Get("/", recipeHandler.List)
	recipes.Post("/lines", admin, recipeHandler.AddLine)
	recipes.Put("/lines/:id", admin, recipeHandler.UpdateLine)
	recipes.Delete("/lines/:id", admin, recipeHandler.DeleteLine)
	recipes.Get("/:name", recipeHandler.Get)
	recipes.Get("/:name/cost", recipeHandler.Cost)
	recipes.Get("/:name/availability", recipeHandler.Availability)

	// Productions
	productions := protected.Group("/productions")
	productionHandler := NewProductionHandler(deps.ProductionUC, deps.StockQueryUC)
	productions.Post("/", stock, productionHandler.Produce)
	productions.Get("/", productionHandler.List)
	productions.Get("/:id", productionHandler.GetByID)

	// Sales (tous les rôles; l'annulation vérifie le rôle dans le cas d'usage et répond 422)
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.POSUC, deps.CancelUC)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/tickets/:ticket", saleHandler.GetByTicket)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/ticket.pdf", saleHandler.TicketPDF)
	salesGroup.Get("/:id/cancellation/eligibility", saleHandler.Eligibility)
	salesGroup.Get("/:id/cancellation", saleHandler.GetCancellation)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)

	// Prices
	prices := protected.Group("/prices")
	priceHandler := NewPriceHandler(deps.PricingUC)
	prices.Get("/", priceHandler.Get)
	prices.Put("/", elevated, priceHandler.Set)

	// Dashboard (gérants)
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard/summary", elevated, dashboardHandler.GetSummary)
}
