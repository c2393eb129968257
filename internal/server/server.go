package server

import (
	"context"
	"log/slog"
	"net/http"

	"foodcourt-ordering/internal/config"
	"foodcourt-ordering/internal/handler"
	appmw "foodcourt-ordering/internal/middleware"
	"foodcourt-ordering/internal/notify"
	"foodcourt-ordering/internal/payment"
	"foodcourt-ordering/internal/repository"
	"foodcourt-ordering/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Services are the dependencies the HTTP layer is built from.
type Services struct {
	DB            *gorm.DB
	Order         service.OrderService
	Cart          service.CartService
	Payment       service.PaymentService
	Webhook       service.WebhookService
	Inventory     service.InventoryService
	MockProvider  *payment.MockProvider
	Hub           *notify.Hub
	FoodCourtRepo repository.FoodCourtRepository
}

type Server struct {
	echo             *echo.Echo
	cfg              *config.Config
	orderHandler     *handler.OrderHandler
	cartHandler      *handler.CartHandler
	paymentHandler   *handler.PaymentHandler
	webhookHandler   *handler.WebhookHandler
	inventoryHandler *handler.InventoryHandler
	streamHandler    *handler.StreamHandler
	healthHandler    *handler.HealthHandler
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewErrorHandler(logger)

	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, appmw.SessionHeader, "Idempotency-Key", "Accept-Language"},
		ExposeHeaders: []string{appmw.SessionHeader},
	}))
	e.Use(appmw.Language())

	s := &Server{
		echo:             e,
		cfg:              cfg,
		orderHandler:     handler.NewOrderHandler(svc.Order),
		cartHandler:      handler.NewCartHandler(svc.Cart),
		paymentHandler:   handler.NewPaymentHandler(svc.Payment, svc.Webhook, svc.MockProvider),
		webhookHandler:   handler.NewWebhookHandler(svc.Webhook),
		inventoryHandler: handler.NewInventoryHandler(svc.Inventory),
		streamHandler:    handler.NewStreamHandler(svc.Hub, svc.FoodCourtRepo),
		healthHandler:    handler.NewHealthHandler(svc.DB),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	authn := appmw.Authenticate(s.cfg.Auth.JWTSecret)
	webhookLimit := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(s.cfg.Payment.WebhookRate)))

	s.echo.GET("/health", s.healthHandler.Check)

	api := s.echo.Group(s.cfg.HTTP.APIPrefix)
	api.GET("/health", s.healthHandler.Check)

	// -------- orders --------
	orders := api.Group("/orders", authn)
	orders.POST("", s.orderHandler.Create, appmw.RequireOwner())
	orders.GET("", s.orderHandler.List, appmw.RequireUser())
	orders.GET("/:id", s.orderHandler.Get, appmw.RequireOwner())
	orders.POST("/:id/cancel", s.orderHandler.Cancel, appmw.RequireOwner())
	orders.POST("/:id/complete", s.orderHandler.Complete)
	orders.POST("/:id/refund", s.orderHandler.Refund, appmw.RequireOwner())
	orders.POST("/:id/status", s.orderHandler.UpdateStatus, appmw.RequireAdmin())
	orders.POST("/:id/payment", s.paymentHandler.CreateForOrder, appmw.RequireOwner())

	// -------- cart --------
	cart := api.Group("/cart", authn)
	cart.GET("", s.cartHandler.Get, appmw.RequireOwner())
	cart.DELETE("", s.cartHandler.Clear, appmw.RequireOwner())
	cart.POST("/items", s.cartHandler.AddItem)
	cart.POST("/batch", s.cartHandler.AddBatch)
	cart.PATCH("/items/:id", s.cartHandler.UpdateItem, appmw.RequireOwner())
	cart.DELETE("/items/:id", s.cartHandler.RemoveItem, appmw.RequireOwner())

	// -------- payment --------
	pay := api.Group("/payment")
	pay.POST("/create", s.paymentHandler.Create)
	pay.GET("/status/:paymentId", s.paymentHandler.Status)
	pay.GET("/:provider/return", s.paymentHandler.Return)
	pay.POST("/webhook/:provider", s.webhookHandler.Payment, webhookLimit)
	if !s.cfg.Environment.IsProduction() {
		pay.POST("/mock/pay/:paymentId", s.paymentHandler.MockPay)
	}

	// -------- webhooks --------
	hooks := api.Group("/webhooks")
	hooks.POST("/payment", s.webhookHandler.Payment, webhookLimit)
	hooks.POST("/payment/:provider", s.webhookHandler.Payment, webhookLimit)
	hooks.POST("/translation", s.webhookHandler.Translation, webhookLimit)
	hooks.GET("/logs", s.webhookHandler.ListLogs, authn, appmw.RequireAdmin())
	hooks.POST("/logs/:id/retry", s.webhookHandler.Retry, authn, appmw.RequireAdmin())

	// -------- inventory admin --------
	dishes := api.Group("/dishes", authn, appmw.RequireAdmin())
	dishes.POST("/:id/stock", s.inventoryHandler.AdjustStock)
	dishes.GET("/:id/inventory-logs", s.inventoryHandler.ListLogs)

	api.GET("/food-courts/:id/orders/stream", s.streamHandler.Orders)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	log := logger.With("component", "http")

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
