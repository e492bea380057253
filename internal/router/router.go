package router

import (
	"time"

	"pharmacyos/internal/config"
	"pharmacyos/internal/handler"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/middleware"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"
	"pharmacyos/internal/service"
	"pharmacyos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, llmCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	cache := infra.NewRedisCache(rdb)
	dispatcher := worker.NewDispatcher(rdb)
	llm := infra.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, llmCB)

	// ── Repositories ─────────────────────────────────────────────────────────
	txRunner := repository.NewTxRunner(db)
	userRepo := repository.NewUserRepository(db)
	drugRepo := repository.NewDrugRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	catalogSvc := service.NewCatalogService(drugRepo, batchRepo, cache)
	inventorySvc := service.NewInventoryService(drugRepo, batchRepo, cache)
	alertSvc := service.NewAlertService(drugRepo, batchRepo)
	customerSvc := service.NewCustomerService(txRunner, customerRepo)
	assistantSvc := service.NewAssistantService(chatRepo, llm)
	saleSvc := service.NewSaleService(txRunner, saleRepo, drugRepo, batchRepo, customerRepo, cache, dispatcher,
		service.SaleOptions{
			AllowOversell:      cfg.SalesAllowOversell,
			EnforceCreditLimit: cfg.SalesEnforceCreditLimit,
		})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	drugsH := handler.NewDrugsHandler(catalogSvc, inventorySvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc, alertSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	assistantH := handler.NewAssistantHandler(assistantSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes; every role may read and sell, catalog writes and
	// staff management are admin-only.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/sales", salesH.PostSale)
		v1.GET("/sales", salesH.ListSales)
		v1.GET("/sales/:id", salesH.GetSale)

		v1.GET("/products/barcode/:code", drugsH.LookupBarcode)

		drugs := v1.Group("/drugs")
		{
			drugs.GET("", drugsH.ListDrugs)
			drugs.GET("/:id", drugsH.GetDrug)
			drugs.POST("", adminOnly, drugsH.CreateDrug)
			drugs.PUT("/:id", adminOnly, drugsH.UpdateDrug)
			drugs.GET("/:id/batches", drugsH.ListBatches)
			drugs.POST("/:id/batches", drugsH.ReceiveBatch)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("/expiring", inventoryH.Expiring)
			inv.GET("/export", inventoryH.Export)
		}
		v1.GET("/alerts", inventoryH.Alerts)

		customers := v1.Group("/customers")
		{
			customers.POST("", customersH.CreateCustomer)
			customers.GET("", customersH.ListCustomers)
			customers.GET("/:id", customersH.GetCustomer)
			customers.POST("/:id/payments", customersH.RecordPayment)
		}

		v1.POST("/ai/chat", assistantH.Chat)

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.CreateUser)
			users.GET("", usersH.ListUsers)
		}

		v1.POST("/admin/jobs/:queue/replay", adminOnly, handler.ReplayDeadLetters(rdb))
	}

	// Swagger UI outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
