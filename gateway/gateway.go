package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/cart"
	"github.com/example/restaurant/pkg/catalog"
	"github.com/example/restaurant/pkg/config"
	"github.com/example/restaurant/pkg/metrics"
	"github.com/example/restaurant/pkg/order"
	"github.com/example/restaurant/pkg/payment"
	"github.com/example/restaurant/pkg/report"
	"github.com/example/restaurant/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the domain services the HTTP layer exposes.
type Services struct {
	Catalog  *catalog.Service
	Carts    *cart.Service
	Orders   *order.Service
	Payments *payment.Generator
	Reports  *report.Service

	// Health is consulted by /health; nil means always healthy.
	Health func(ctx context.Context) error
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	router   *gin.Engine
	server   *http.Server
	svc      Services
}

func NewGateway(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, svc Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger, m))

	return &Gateway{
		config:   cfg,
		logger:   logger,
		metrics:  m,
		gatherer: gatherer,
		router:   router,
		svc:      svc,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)
	if g.gatherer != nil {
		g.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{})))
	}
	if dir := g.config.Storage.StaticDir; dir != "" {
		g.router.Static("/static", dir)
	}

	api := g.router.Group("/api")
	api.Use(session.Middleware(&g.config.Session))
	{
		carts := api.Group("/cart")
		{
			carts.GET("", g.getCart)
			carts.POST("/add", g.addToCart)
			carts.POST("/update", g.updateCart)
			carts.POST("/remove", g.removeFromCart)
			carts.POST("/clear", g.clearCart)
		}

		api.POST("/checkout", g.checkout)
		api.GET("/orders", g.listOrders)
		api.GET("/orders/:id", g.getOrder)
		api.POST("/generate-qr", g.generateQR)

		menu := api.Group("/menu")
		{
			menu.GET("", g.listMenu)
			menu.POST("", g.createMenuItem)
			menu.GET("/:id", g.getMenuItem)
			menu.PUT("/:id", g.updateMenuItem)
			menu.DELETE("/:id", g.deleteMenuItem)
		}

		api.GET("/sales-data", g.salesData)
	}
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start blocks serving HTTP until Shutdown is called.
func (g *Gateway) Start() error {
	addr := g.config.Server.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("HTTP server starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func (g *Gateway) health(c *gin.Context) {
	if g.svc.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := g.svc.Health(ctx); err != nil {
			g.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps err onto a status code. Only kinds from apperrors carry their
// message to the client; anything else is logged and reported generically.
func (g *Gateway) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrEmptyCart), errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	}

	msg := apperrors.Message(err)
	if status == http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		if !errors.Is(err, apperrors.ErrStorage) || msg == "" {
			msg = "Internal server error"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func loggerMiddleware(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), latency)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		)
	}
}
