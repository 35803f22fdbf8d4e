package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/service"
	"b2b-commerce/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the domain services the handlers call
type Services struct {
	Identity    *service.IdentityService
	Catalog     *service.CatalogService
	Connections *service.ConnectionService
	Carts       *service.CartService
	Orders      *service.OrderService
	Activity    *service.ActivityService
}

// Handler contains HTTP handlers
type Handler struct {
	identity    *service.IdentityService
	catalog     *service.CatalogService
	connections *service.ConnectionService
	carts       *service.CartService
	orders      *service.OrderService
	activity    *service.ActivityService
	ready       Pinger
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, ready Pinger) *Handler {
	return &Handler{
		identity:    svc.Identity,
		catalog:     svc.Catalog,
		connections: svc.Connections,
		carts:       svc.Carts,
		orders:      svc.Orders,
		activity:    svc.Activity,
		ready:       ready,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		apperr.RegisterJSONNames(v)
	}

	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/signup", h.signUp)
		v1.POST("/login", h.logIn)
		v1.POST("/token/refresh", h.refreshToken)
		v1.POST("/logout", h.logOut)
	}

	authed := v1.Group("", h.authenticate())
	{
		authed.GET("/merchants", h.listMerchants)
		authed.GET("/categories", h.listCategories)
		authed.POST("/categories", h.createCategory)
		authed.GET("/shops", h.listShops)
		authed.GET("/shops/my", h.listMyShops)
		authed.POST("/shops/my", h.createShop)
		authed.GET("/shops/active", h.getActiveShop)
	}

	shop := authed.Group("/shop/:shop_slug", h.requireShopOwner())
	{
		shop.GET("", h.getShop)
		shop.POST("/activate", h.activateShop)

		shop.GET("/sent-requests", h.listSentRequests)
		shop.POST("/sent-requests", h.sendRequest)
		shop.GET("/received-requests", h.listReceivedRequests)
		shop.GET("/received-requests/:uid", h.getReceivedRequest)
		shop.PATCH("/received-requests/:uid", h.respondRequest)

		shop.GET("/my-products", h.listMyProducts)
		shop.POST("/my-products", h.createProduct)
		shop.GET("/same-category", h.listSameCategory)
		shop.GET("/connected-shops", h.listConnectedShops)

		shop.GET("/buy-products", h.listPurchasable)
		shop.POST("/buy-products", h.addToCart)
		shop.GET("/cart", h.viewCart)
		shop.DELETE("/cart", h.clearCart)
		shop.DELETE("/cart/items/:product_uid", h.removeFromCart)

		shop.POST("/confirm-order", h.placeOrder)
		shop.GET("/orders", h.listOrders)
		shop.GET("/orders/:uid", h.getOrder)

		shop.GET("/activity", h.listActivity)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the store answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"time":   time.Now().Unix(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
