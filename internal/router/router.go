package router

import (
	"time"

	"foodie/internal/config"
	"foodie/internal/events"
	"foodie/internal/handler"
	"foodie/internal/infra"
	"foodie/internal/middleware"
	"foodie/internal/repository"
	"foodie/internal/service"
	"foodie/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil, in which case carts live in memory and receipts are not
// queued. publisher may be nil to disable events.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, publisher events.Publisher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter("api", 1000, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var carts repository.CartStore
	if cfg.CartStore == "redis" && rdb != nil {
		carts = repository.NewRedisCartStore(rdb, cfg.CartTTL())
	} else {
		carts = repository.NewMemoryCartStore(cfg.CartTTL())
	}

	var catalog service.Catalog
	if cfg.CatalogURL != "" {
		catalog = infra.NewCatalogClient(cfg.CatalogURL, cfg.CatalogTimeout())
	} else {
		catalog = repository.NewProductRepository(db)
	}
	catalog = service.NewCachedCatalog(catalog, rdb, cfg.CatalogCacheTTL())

	var receipts service.ReceiptQueue
	if rdb != nil {
		receipts = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	tillRepo := repository.NewCashClosingRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	clock := service.ClockIn(cfg.Location())
	cartSvc := service.NewCartService(carts, catalog)
	paymentSvc := service.NewPaymentService(paymentRepo, publisher)
	orderSvc := service.NewOrderService(orderRepo, paymentSvc, carts, catalog, receipts, publisher, clock)
	tillSvc := service.NewTillService(tillRepo, orderRepo, publisher, clock)

	// ── Handlers ─────────────────────────────────────────────────────────────
	cartH := handler.NewCartHandler(cartSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	tillH := handler.NewTillHandler(tillSvc)
	productsH := handler.NewProductsHandler(catalog)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/v1/products/:id", productsH.Get)

	session := middleware.Session(int(cfg.CartTTL().Seconds()))

	// Cart — anonymous, keyed by session
	cart := r.Group("/v1/cart", session)
	{
		cart.GET("", cartH.Get)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:product_id", cartH.UpdateQuantity)
		cart.DELETE("/items/:product_id", cartH.RemoveItem)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(middleware.RoleCustomer, middleware.RoleStaff, middleware.RoleAdmin)
	staff := middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		orders := v1.Group("/orders")
		{
			orders.POST("/checkout", anyRole, session, middleware.RateLimiter("checkout", 30, time.Minute), ordersH.Checkout)
			orders.GET("/mine", anyRole, ordersH.Mine)
			orders.GET("/:id", anyRole, ordersH.Get)
			orders.POST("/:id/cancel", anyRole, ordersH.Cancel)

			orders.GET("", staff, ordersH.List)
			orders.GET("/:id/payment", staff, paymentsH.ByOrder)
			orders.PATCH("/:id/status", staff, ordersH.Transition)
			orders.POST("/:id/items", staff, ordersH.AddItem)
			orders.DELETE("/:id/items", staff, ordersH.ClearItems)
			orders.PUT("/:id/items/:product_id", staff, ordersH.UpdateItem)
			orders.DELETE("/:id/items/:product_id", staff, ordersH.RemoveItem)
		}

		payments := v1.Group("/payments", staff)
		{
			payments.GET("/:id", paymentsH.Get)
			payments.POST("/:id/process", paymentsH.Process)
			payments.PUT("/:id/method", paymentsH.ChangeMethod)
			payments.POST("/:id/refund", paymentsH.Refund)
			payments.POST("/:id/cancel", paymentsH.Cancel)
			payments.POST("/:id/fail", paymentsH.Fail)
		}

		till := v1.Group("/till", staff)
		{
			till.GET("/today", tillH.Today)
			till.GET("/sales", tillH.Sales)
			till.POST("/open", tillH.Open)
			till.POST("/close", tillH.Close)
			till.GET("/history", tillH.History)
			till.GET("/history/:date", tillH.ByDate)
			till.GET("/range", tillH.Range)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
