package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/nishant946/masset/internal/asset"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/category"
	"github.com/nishant946/masset/internal/checkout"
	"github.com/nishant946/masset/internal/config"
	"github.com/nishant946/masset/internal/ledger"
	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/user"
)

// Deps are the outside services the HTTP layer talks to. Publisher may be
// nil, in which case purchases are recorded without emitting events.
type Deps struct {
	Provider  checkout.Provider
	Publisher checkout.Publisher
	Checks    map[string]Check
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		corsMiddleware(cfg.AppURL),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
		auth.SessionStore(cfg.SessionSecret, strings.HasPrefix(cfg.AppURL, "https://")),
	)

	sessions := auth.NewResolver(cfg.JWTSecret)

	userService := user.NewService(user.NewRepository(db), cfg.JWTSecret)
	categoryService := category.NewService(category.NewRepository(db))
	assetService := asset.NewService(asset.NewRepository(db))
	ledgerService := ledger.NewService(ledger.NewRepository(db), cfg.PurchaseCurrency)
	checkoutService := checkout.NewService(assetService, ledgerService, deps.Provider, deps.Publisher, checkout.Config{
		AppURL:   cfg.AppURL,
		Price:    cfg.PurchasePrice,
		Currency: cfg.PurchaseCurrency,
	})

	userHandler := user.NewHandler(userService, sessions)
	categoryHandler := category.NewHandler(categoryService)
	assetHandler := asset.NewHandler(assetService, ledgerService, sessions)
	ledgerHandler := ledger.NewHandler(ledgerService)
	checkoutHandler := checkout.NewHandler(checkoutService, sessions)

	router.GET("/health", Health(deps.Checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
		public.POST("/logout", userHandler.Logout)
	}
	router.GET("/me", userHandler.GetMe)

	router.GET("/categories", categoryHandler.List)
	router.GET("/gallery", assetHandler.Gallery)
	router.GET("/gallery/:id", assetHandler.Detail)
	router.POST("/gallery/:id/purchase", checkoutHandler.Purchase)
	router.GET("/api/paypal/capture", checkoutHandler.Capture)

	requireSession := auth.RequireSession(sessions)
	dashboard := router.Group("/dashboard")
	dashboard.Use(requireSession)
	{
		dashboard.GET("/purchases", ledgerHandler.MyPurchases)
		dashboard.GET("/assets", assetHandler.MyAssets)
		dashboard.POST("/assets", assetHandler.Upload)
		dashboard.PUT("/assets/:id", assetHandler.Edit)
	}

	admin := router.Group("/admin")
	admin.Use(requireSession, auth.RequireRole(auth.RoleAdmin), auth.ConfirmRole(auth.RoleAdmin, currentRole(userService)))
	{
		admin.GET("/categories", categoryHandler.List)
		admin.POST("/categories", categoryHandler.Add)
		admin.DELETE("/categories/:id", categoryHandler.Delete)
		admin.GET("/assets/pending", assetHandler.Pending)
		admin.POST("/assets/:id/approve", assetHandler.Approve)
		admin.POST("/assets/:id/reject", assetHandler.Reject)
		admin.GET("/stats", Stats(userService, assetService, ledgerService, cfg.PurchaseCurrency))
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// currentRole reads a user's role from the users table.
func currentRole(users user.Service) auth.RoleLookup {
	return func(ctx context.Context, userID string) (string, error) {
		u, err := users.GetByID(ctx, userID)
		if errors.Is(err, user.ErrUserNotFound) {
			return "", auth.ErrUnknownUser
		}
		if err != nil {
			return "", err
		}
		return u.Role, nil
	}
}
