package api

import (
	"strings"
	"time"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/auth"
	"b2b-commerce/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxClaims    = "claims"
	ctxShop      = "shop"
)

// requestID propagates X-Request-ID, generating one when absent
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if c.Writer.Status() >= 500 {
			logger.Error("Request failed", fields...)
			return
		}
		logger.Info("Request handled", fields...)
	}
}

// authenticate requires a valid bearer access token
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(c, apperr.Unauthenticated("authentication required"))
			return
		}

		claims, err := h.identity.Authenticate(token)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// requireShopOwner resolves :shop_slug and aborts unless the caller owns it
func (h *Handler) requireShopOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, err := h.catalog.ResolveShop(c.Request.Context(), claimsOf(c).MerchantID, c.Param("shop_slug"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(ctxShop, shop)
		c.Next()
	}
}

func claimsOf(c *gin.Context) *auth.Claims {
	return c.MustGet(ctxClaims).(*auth.Claims)
}

func shopOf(c *gin.Context) *models.Shop {
	return c.MustGet(ctxShop).(*models.Shop)
}
