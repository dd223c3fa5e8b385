// Package server assembles the Fiber application and its route table.
package server

import (
	"log/slog"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/cache"
	"supplychain-backend/internal/customer"
	"supplychain-backend/internal/delivery"
	"supplychain-backend/internal/events"
	"supplychain-backend/internal/logger"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/order"
	"supplychain-backend/internal/product"
	"supplychain-backend/internal/production"
	"supplychain-backend/internal/rawmaterial"
	"supplychain-backend/internal/supplier"
	"supplychain-backend/internal/supplyorder"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

type Deps struct {
	DB          *gorm.DB
	Log         *slog.Logger
	CORSOrigins string

	// Verifier checks bearer tokens. Auth is nil when tokens come from an
	// external identity provider; the local auth endpoints are then not mounted.
	Verifier auth.Verifier
	Auth     *auth.Service

	Events events.Publisher
	Cache  cache.OrderStatus
}

func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: web.ErrorHandler(d.Log),
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(d.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	if d.Auth != nil {
		api.Post("/auth/register", auth.RegisterHandler(d.Auth))
		api.Post("/auth/authenticate", auth.AuthenticateHandler(d.Auth))
		api.Post("/auth/login", auth.AuthenticateHandler(d.Auth))
		api.Post("/auth/refresh-token", auth.RefreshHandler(d.Auth))
	}

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.Verifier))

	protected.Get("/auth/profile", auth.ProfileHandler(d.Auth))

	suppliers := supplier.NewService(d.DB)
	g := protected.Group("/suppliers", auth.RequireRole(models.RoleAdmin, models.RoleSupplyManager, models.RolePurchasingManager, models.RoleLogisticsSupervisor))
	g.Post("/", supplier.CreateSupplierHandler(suppliers))
	g.Get("/", supplier.ListSuppliersHandler(suppliers))
	g.Get("/search", supplier.SearchSuppliersHandler(suppliers))
	g.Get("/:id", supplier.GetSupplierHandler(suppliers))
	g.Put("/:id", supplier.UpdateSupplierHandler(suppliers))
	g.Delete("/:id", supplier.DeleteSupplierHandler(suppliers))

	materials := rawmaterial.NewService(d.DB)
	g = protected.Group("/raw-materials", auth.RequireRole(models.RoleAdmin, models.RoleSupplyManager, models.RoleLogisticsSupervisor))
	g.Post("/", rawmaterial.CreateRawMaterialHandler(materials))
	g.Get("/", rawmaterial.ListRawMaterialsHandler(materials))
	g.Get("/low-stock", rawmaterial.LowStockHandler(materials))
	g.Get("/low-stock/export", rawmaterial.ExportLowStockHandler(materials))
	g.Post("/stock-count", rawmaterial.ImportStockCountHandler(materials))
	g.Get("/:id", rawmaterial.GetRawMaterialHandler(materials))
	g.Put("/:id", rawmaterial.UpdateRawMaterialHandler(materials))
	g.Delete("/:id", rawmaterial.DeleteRawMaterialHandler(materials))

	orders := order.NewService(d.DB, d.Events, d.Cache)
	g = protected.Group("/orders", auth.RequireRole(models.RoleAdmin, models.RolePurchasingManager, models.RoleLogisticsSupervisor))
	g.Post("/", order.CreateOrderHandler(orders))
	g.Get("/", order.ListOrdersHandler(orders))
	g.Get("/:id", order.GetOrderHandler(orders))
	g.Get("/:id/status", order.OrderStatusHandler(orders))
	g.Put("/:id", order.UpdateOrderHandler(orders))
	g.Delete("/:id", order.DeleteOrderHandler(orders))

	products := product.NewService(d.DB)
	g = protected.Group("/products", auth.RequireRole(models.RoleAdmin, models.RoleProductionManager, models.RoleProductionSupervisor))
	g.Post("/", product.CreateProductHandler(products))
	g.Get("/", product.ListProductsHandler(products))
	g.Get("/:id", product.GetProductHandler(products))
	g.Put("/:id", product.UpdateProductHandler(products))
	g.Delete("/:id", product.DeleteProductHandler(products))

	runs := production.NewService(d.DB, d.Events)
	productionRoles := auth.RequireRole(models.RoleAdmin, models.RoleProductionManager, models.RolePlanner, models.RoleProductionSupervisor)
	g = protected.Group("/production-orders", productionRoles)
	g.Post("/", production.CreateProductionOrderHandler(runs))
	g.Get("/", production.ListProductionOrdersHandler(runs))
	g.Get("/status/:status", production.ListProductionOrdersByStatusHandler(runs))
	g.Get("/:id", production.GetProductionOrderHandler(runs))
	g.Put("/:id", production.UpdateProductionOrderHandler(runs))
	g.Delete("/:id", production.CancelProductionOrderHandler(runs))
	g.Put("/:id/start", production.StartProductionHandler(runs))
	g.Put("/:id/complete", production.CompleteProductionHandler(runs))
	protected.Put("/production/:id", productionRoles, production.StartProductionHandler(runs))

	customers := customer.NewService(d.DB)
	g = protected.Group("/customers", auth.RequireRole(models.RoleAdmin, models.RoleSalesManager))
	g.Post("/", customer.CreateCustomerHandler(customers))
	g.Get("/", customer.ListCustomersHandler(customers))
	g.Get("/:id", customer.GetCustomerHandler(customers))
	g.Put("/:id", customer.UpdateCustomerHandler(customers))
	g.Delete("/:id", customer.DeleteCustomerHandler(customers))

	deliveries := delivery.NewService(d.DB, d.Events, d.Cache)
	g = protected.Group("/deliveries", auth.RequireRole(models.RoleAdmin, models.RoleLogisticsManager, models.RoleDeliverySupervisor))
	g.Post("/", delivery.CreateDeliveryHandler(deliveries))
	g.Get("/", delivery.ListDeliveriesHandler(deliveries))
	g.Get("/:id", delivery.GetDeliveryHandler(deliveries))
	g.Put("/:id", delivery.UpdateDeliveryHandler(deliveries))
	g.Delete("/:id", delivery.DeleteDeliveryHandler(deliveries))

	supplyOrders := supplyorder.NewService(d.DB, d.Events)
	g = protected.Group("/supplier-orders", auth.RequireRole(models.RoleAdmin, models.RolePurchasingManager))
	g.Post("/", supplyorder.CreateSupplyOrderHandler(supplyOrders))
	g.Get("/", supplyorder.ListSupplyOrdersHandler(supplyOrders))
	g.Get("/:id", supplyorder.GetSupplyOrderHandler(supplyOrders))
	g.Put("/:id", supplyorder.UpdateSupplyOrderHandler(supplyOrders))
	g.Delete("/:id", supplyorder.DeleteSupplyOrderHandler(supplyOrders))

	// Audit logs
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler(d.DB))

	return app
}
