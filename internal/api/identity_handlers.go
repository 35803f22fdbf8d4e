package api

import (
	"net/http"

	"b2b-commerce/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) signUp(c *gin.Context) {
	var req service.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	merchant, err := h.identity.SignUp(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMerchantResponse(merchant))
}

func (h *Handler) logIn(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.identity.LogIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		UID:    result.Merchant.UID,
		Email:  result.Merchant.Email,
		Tokens: result.Tokens,
	})
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.identity.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) logOut(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.identity.LogOut(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMerchants(c *gin.Context) {
	merchants, err := h.identity.ListMerchants(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]merchantResponse, 0, len(merchants))
	for i := range merchants {
		out = append(out, newMerchantResponse(&merchants[i]))
	}
	c.JSON(http.StatusOK, out)
}
