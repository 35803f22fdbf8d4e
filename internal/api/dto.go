package api

import (
	"time"

	"b2b-commerce/internal/auth"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type createCategoryRequest struct {
	Title string `json:"title" binding:"required"`
}

type connectionRequest struct {
	ReceiverShopID int64 `json:"receiver_shop_id" binding:"required"`
}

type merchantResponse struct {
	UID     uuid.UUID `json:"uid"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	DOB     string    `json:"dob"`
	IsStaff bool      `json:"is_staff"`
}

func newMerchantResponse(m *models.Merchant) merchantResponse {
	return merchantResponse{
		UID:     m.UID,
		Email:   m.Email,
		Name:    m.Name,
		DOB:     m.DOB.Format(service.DateLayout),
		IsStaff: m.IsStaff,
	}
}

type loginResponse struct {
	UID    uuid.UUID       `json:"uid"`
	Email  string          `json:"email"`
	Tokens *auth.TokenPair `json:"tokens"`
}

type shopDetailResponse struct {
	models.Shop
	Merchant merchantResponse `json:"merchant"`
	Category *models.Category `json:"category"`
}

// money renders amounts with exactly two decimals
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type productResponse struct {
	UID      uuid.UUID `json:"uid"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Price    string    `json:"price"`
	Quantity int64     `json:"quantity"`
}

func newProductResponses(products []models.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			UID:      p.UID,
			Title:    p.Title,
			Slug:     p.Slug,
			Price:    money(p.Price),
			Quantity: p.Quantity,
		})
	}
	return out
}

type lineItemResponse struct {
	ProductUID uuid.UUID `json:"product_uid"`
	Product    string    `json:"product"`
	SellerShop string    `json:"seller_shop"`
	Quantity   int64     `json:"quantity"`
	NetPrice   string    `json:"net_price"`
}

func newLineItems(items []models.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemResponse{
			ProductUID: it.ProductUID,
			Product:    it.ProductTitle,
			SellerShop: it.SellerShop,
			Quantity:   it.Quantity,
			NetPrice:   money(it.NetPrice),
		})
	}
	return out
}

type cartItemResponse struct {
	UID        uuid.UUID `json:"uid"`
	ProductUID uuid.UUID `json:"product_uid"`
	Quantity   int64     `json:"quantity"`
	NetPrice   string    `json:"net_price"`
}

type cartResponse struct {
	UID        uuid.UUID          `json:"uid"`
	TotalPrice string             `json:"total_price"`
	Items      []lineItemResponse `json:"items"`
}

func newCartResponse(v *service.CartView) cartResponse {
	return cartResponse{
		UID:        v.Cart.UID,
		TotalPrice: money(v.Cart.TotalPrice),
		Items:      newLineItems(v.Items),
	}
}

type orderResponse struct {
	UID             uuid.UUID          `json:"uid"`
	DeliveryAddress string             `json:"delivery_address"`
	PaymentMethod   string             `json:"payment_method"`
	TotalPrice      string             `json:"total_price"`
	CreatedAt       time.Time          `json:"created_at"`
	Items           []lineItemResponse `json:"items"`
}

func newOrderResponse(v *service.OrderView) orderResponse {
	return orderResponse{
		UID:             v.Order.UID,
		DeliveryAddress: v.Order.DeliveryAddress,
		PaymentMethod:   v.Order.PaymentMethod,
		TotalPrice:      money(v.Order.TotalPrice),
		CreatedAt:       v.Order.CreatedAt,
		Items:           newLineItems(v.Items),
	}
}
