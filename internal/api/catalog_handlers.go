package api

import (
	"net/http"

	"b2b-commerce/internal/models"
	"b2b-commerce/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) createCategory(c *gin.Context) {
	claims := claimsOf(c)
	var req createCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), claims.IsStaff, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) listShops(c *gin.Context) {
	shops, err := h.catalog.ListShops(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shops)
}

func (h *Handler) listMyShops(c *gin.Context) {
	shops, err := h.catalog.ListMyShops(c.Request.Context(), claimsOf(c).MerchantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shops)
}

func (h *Handler) createShop(c *gin.Context) {
	var req service.CreateShopRequest
	if !bindJSON(c, &req) {
		return
	}

	shop, err := h.catalog.CreateShop(c.Request.Context(), claimsOf(c).MerchantID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shop)
}

func (h *Handler) getActiveShop(c *gin.Context) {
	shop, err := h.catalog.GetActiveShop(c.Request.Context(), claimsOf(c).MerchantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *Handler) getShop(c *gin.Context) {
	detail, err := h.catalog.GetShopDetail(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shopDetailResponse{
		Shop:     *detail.Shop,
		Merchant: newMerchantResponse(detail.Merchant),
		Category: detail.Category,
	})
}

func (h *Handler) activateShop(c *gin.Context) {
	shop := shopOf(c)
	if err := h.catalog.ActivateShop(c.Request.Context(), shop); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *Handler) listMyProducts(c *gin.Context) {
	products, err := h.catalog.ListMyProducts(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponses(products))
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), shopOf(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProductResponses([]models.Product{*product})[0])
}

func (h *Handler) listSameCategory(c *gin.Context) {
	shops, err := h.catalog.ListSameCategoryShops(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shops)
}

func (h *Handler) listConnectedShops(c *gin.Context) {
	shops, err := h.catalog.ListConnectedShops(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, shops)
}

func (h *Handler) listPurchasable(c *gin.Context) {
	products, err := h.catalog.ListPurchasableProducts(c.Request.Context(), shopOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponses(products))
}
