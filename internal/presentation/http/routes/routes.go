package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kodisha/kodisha-api/internal/config"
	domainRepo "github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/internal/presentation/http/handler"
	"github.com/kodisha/kodisha-api/internal/presentation/http/middleware"
	"github.com/kodisha/kodisha-api/pkg/utils"
	"github.com/rs/zerolog"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Company  *handler.CompanyHandler
	Property *handler.PropertyHandler
	Tenant   *handler.TenantHandler
	Lease    *handler.LeaseHandler
	Invoice  *handler.InvoiceHandler
	Payment  *handler.PaymentHandler
	Sweep    *handler.SweepHandler
	User     *handler.UserHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Logger          zerolog.Logger
	CompanyRepo     domainRepo.CompanyRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.CompanyMiddleware(deps.CompanyRepo))

		// Per-company rate limiter
		rateLimiter := middleware.NewCompanyRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile", h.Auth.UpdateProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	// Companies
	registerCompanyRoutes(protected, h)

	// Properties and units
	registerPropertyRoutes(protected, h)

	// Tenants
	registerTenantRoutes(protected, h)

	// Leases
	registerLeaseRoutes(protected, h)

	// Invoices
	registerInvoiceRoutes(protected, h, deps)

	// Payments
	registerPaymentRoutes(protected, h, deps)

	// Sweeps
	registerSweepRoutes(protected, h)

	// Users (Admin)
	registerUserRoutes(protected, h)
}

func registerCompanyRoutes(protected *gin.RouterGroup, h *Handlers) {
	companies := protected.Group("/companies")
	{
		companies.GET("", h.Company.List)
		companies.POST("", h.Company.Create)
		companies.GET("/current", h.Company.GetCurrent)
		companies.PUT("/current/settings", h.Company.UpdateSettings)
		companies.GET("/current/members", h.Company.ListMembers)
		companies.POST("/current/members", h.Company.AddMember)
		companies.DELETE("/current/members/:user_id", h.Company.RemoveMember)
	}
}

func registerPropertyRoutes(protected *gin.RouterGroup, h *Handlers) {
	properties := protected.Group("/properties")
	properties.Use(middleware.RequireCompany(), middleware.RequirePermission("manage-properties"))
	{
		properties.GET("", h.Property.List)
		properties.POST("", h.Property.Create)
		properties.GET("/:id", h.Property.Get)
		properties.PUT("/:id", h.Property.Update)
		properties.DELETE("/:id", h.Property.Delete)
		properties.GET("/:id/units", h.Property.ListUnits)
		properties.POST("/:id/units", h.Property.CreateUnit)
		properties.DELETE("/:id/units/:unit_id", h.Property.DeleteUnit)
	}
}

func registerTenantRoutes(protected *gin.RouterGroup, h *Handlers) {
	tenants := protected.Group("/tenants")
	tenants.Use(middleware.RequireCompany(), middleware.RequirePermission("manage-tenants"))
	{
		tenants.GET("", h.Tenant.List)
		tenants.POST("", h.Tenant.Create)
		tenants.GET("/:id", h.Tenant.Get)
		tenants.PUT("/:id", h.Tenant.Update)
		tenants.DELETE("/:id", h.Tenant.Delete)
	}
}

func registerLeaseRoutes(protected *gin.RouterGroup, h *Handlers) {
	leases := protected.Group("/leases")
	leases.Use(middleware.RequireCompany(), middleware.RequirePermission("manage-leases"))
	{
		leases.GET("", h.Lease.List)
		leases.POST("", h.Lease.Create)
		leases.GET("/:id", h.Lease.Get)
		leases.POST("/:id/terminate", h.Lease.Terminate)
		leases.DELETE("/:id", h.Lease.Delete)
	}
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	invoices := protected.Group("/invoices")
	invoices.Use(middleware.RequireCompany(), middleware.RequirePermission("manage-invoices"))
	{
		invoices.GET("", h.Invoice.List)
		// Invoice creation uses idempotency middleware to prevent duplicates
		invoices.POST("", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Invoice.Create)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.POST("/:id/send", h.Invoice.Send)
		invoices.POST("/:id/pay", h.Invoice.MarkPaid)
		invoices.POST("/:id/cancel", h.Invoice.Cancel)
		invoices.POST("/:id/link-payment", h.Invoice.LinkPayment)
		invoices.DELETE("/:id", h.Invoice.Delete)
	}
}

func registerPaymentRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	payments := protected.Group("/payments")
	payments.Use(middleware.RequireCompany(), middleware.RequirePermission("manage-payments"))
	{
		payments.GET("", h.Payment.List)
		// Payment recording uses idempotency middleware so gateway or client
		// retries never double-record money
		payments.POST("", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Payment.Create)
		payments.GET("/:id", h.Payment.Get)
		payments.POST("/:id/approve", h.Payment.Approve)
		payments.POST("/:id/reject", h.Payment.Reject)
		payments.POST("/:id/link", h.Payment.Link)
		payments.DELETE("/:id", h.Payment.Delete)
	}
}

func registerSweepRoutes(protected *gin.RouterGroup, h *Handlers) {
	sweeps := protected.Group("/sweeps")
	sweeps.Use(middleware.RequireCompany(), middleware.RequirePermission("run-sweeps"))
	{
		sweeps.POST("/overdue", h.Sweep.RunOverdue)
		sweeps.POST("/reconcile", h.Sweep.RunReconcile)
	}
}

func registerUserRoutes(protected *gin.RouterGroup, h *Handlers) {
	users := protected.Group("/users")
	users.Use(middleware.RequirePermission("manage-users"))
	{
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id/roles", h.User.UpdateRoles)
		users.DELETE("/:id", h.User.Delete)
	}

	roles := protected.Group("/roles")
	roles.Use(middleware.RequirePermission("manage-users"))
	{
		roles.GET("", h.User.ListRoles)
	}

	permissions := protected.Group("/permissions")
	permissions.Use(middleware.RequirePermission("manage-users"))
	{
		permissions.GET("", h.User.ListPermissions)
	}
}
