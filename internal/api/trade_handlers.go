package api

import (
	"net/http"
	"strconv"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) sendRequest(c *gin.Context) {
	var req connectionRequest
	if !bindJSON(c, &req) {
		return
	}

	conn, err := h.connections.Request(c.Request.Context(), shopOf(c), req.ReceiverShopID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

func (h *Handler) listSentRequests(c *gin.Context) {
	conns, err := h.connections.ListSent(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

func (h *Handler) listReceivedRequests(c *gin.Context) {
	conns, err := h.connections.ListReceived(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

func (h *Handler) getReceivedRequest(c *gin.Context) {
	uid, ok := uuidParam(c, "uid")
	if !ok {
		return
	}

	conn, err := h.connections.GetReceived(c.Request.Context(), shopOf(c), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *Handler) respondRequest(c *gin.Context) {
	uid, ok := uuidParam(c, "uid")
	if !ok {
		return
	}
	var req service.RespondRequest
	if !bindJSON(c, &req) {
		return
	}

	conn, err := h.connections.Respond(c.Request.Context(), shopOf(c), uid, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req service.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.carts.AddToCart(c.Request.Context(), claimsOf(c).MerchantID, shopOf(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cartItemResponse{
		UID:        item.UID,
		ProductUID: req.ProductUID,
		Quantity:   item.Quantity,
		NetPrice:   money(item.NetPrice),
	})
}

func (h *Handler) viewCart(c *gin.Context) {
	view, err := h.carts.ViewCart(c.Request.Context(), claimsOf(c).MerchantID, shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(view))
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.carts.ClearCart(c.Request.Context(), claimsOf(c).MerchantID, shopOf(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	productUID, ok := uuidParam(c, "product_uid")
	if !ok {
		return
	}

	view, err := h.carts.RemoveFromCart(c.Request.Context(), claimsOf(c).MerchantID, shopOf(c), productUID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(view))
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	view, err := h.orders.PlaceOrder(c.Request.Context(), claimsOf(c).MerchantID, shopOf(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResponse(view))
}

func (h *Handler) listOrders(c *gin.Context) {
	views, err := h.orders.ListOrders(c.Request.Context(), claimsOf(c).MerchantID, shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]orderResponse, 0, len(views))
	for i := range views {
		out = append(out, newOrderResponse(&views[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getOrder(c *gin.Context) {
	uid, ok := uuidParam(c, "uid")
	if !ok {
		return
	}

	view, err := h.orders.GetOrder(c.Request.Context(), shopOf(c), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(view))
}

func (h *Handler) listActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, apperr.FieldValidation(map[string]string{"limit": "must be a non-negative integer"}))
			return
		}
		limit = n
	}

	rows, err := h.activity.ListActivity(c.Request.Context(), shopOf(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
