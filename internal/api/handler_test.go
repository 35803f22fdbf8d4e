package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"b2b-commerce/config"
	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/auth"
	"b2b-commerce/internal/broker"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/service"
	"b2b-commerce/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   *memstore.Store
	catalog *service.CatalogService
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	st := memstore.New()
	pub := broker.NoopPublisher{}
	tokens := auth.NewJWTService(config.AuthConfig{
		JWTSecret:  "test-secret",
		Issuer:     "b2b-commerce-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	svc := Services{
		Identity:    service.NewIdentityService(st, tokens, auth.NewPasswordHasher(bcrypt.MinCost), nil),
		Catalog:     service.NewCatalogService(st, pub, nil, time.Minute),
		Connections: service.NewConnectionService(st, pub),
		Carts:       service.NewCartService(st),
		Orders:      service.NewOrderService(st, pub, false),
		Activity:    service.NewActivityService(st, 50),
	}

	router := gin.New()
	NewHandler(svc, st).SetupRoutes(router)
	return &testServer{t: t, router: router, store: st, catalog: svc.Catalog}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// register signs a merchant up and returns its access token
func (s *testServer) register(email string) string {
	w := s.do(http.MethodPost, "/api/v1/signup", "", gin.H{
		"email": email, "name": "Merchant", "dob": "1988-02-29",
		"password1": "pass123", "password2": "pass123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": email, "password": "pass123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[loginResponse](s.t, w).Tokens.AccessToken
}

func (s *testServer) category(title string) *models.Category {
	c, err := s.catalog.CreateCategory(context.Background(), true, title)
	require.NoError(s.t, err)
	return c
}

func (s *testServer) openShop(token, name string, categoryID int64) models.Shop {
	w := s.do(http.MethodPost, "/api/v1/shops/my", token, gin.H{
		"name": name, "category_id": categoryID, "address": "1 Dock Lane", "description": "wholesale",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Shop](s.t, w)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestSignUpAndLogIn(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/signup", "", gin.H{
		"email": "Ada@Example.com", "name": "Ada", "dob": "1990-04-12",
		"password1": "pass123", "password2": "pass123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	merchant := decode[merchantResponse](t, w)
	assert.Equal(t, "ada@example.com", merchant.Email)
	assert.Equal(t, "1990-04-12", merchant.DOB)

	w = s.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errorResponse](t, w).Error.Code)

	w = s.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": "ada@example.com", "password": "pass123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[loginResponse](t, w)
	assert.Equal(t, merchant.UID, login.UID)
	assert.NotEmpty(t, login.Tokens.RefreshToken)

	w = s.do(http.MethodPost, "/api/v1/token/refresh", "", gin.H{"refresh_token": login.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/merchants", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]merchantResponse](t, w), 1)
}

func TestSignUpReportsFieldErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/signup", "", gin.H{"name": "Ada"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "email")
	assert.Contains(t, resp.Error.Fields, "password1")

	w = s.do(http.MethodPost, "/api/v1/signup", "", gin.H{
		"email": "ada@example.com", "name": "Ada", "dob": "1990-04-12",
		"password1": "pass123", "password2": "pass124",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "passwords do not match", decode[errorResponse](t, w).Error.Fields["password2"])
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/shops", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", decode[errorResponse](t, w).Error.Code)

	w = s.do(http.MethodGet, "/api/v1/shops", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCategoryCreationIsStaffOnly(t *testing.T) {
	s := newTestServer(t)
	token := s.register("m1@example.com")

	w := s.do(http.MethodPost, "/api/v1/categories", token, gin.H{"title": "Food"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.category("Food")
	w = s.do(http.MethodGet, "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Category](t, w), 1)
}

func TestShopOwnershipIsEnforced(t *testing.T) {
	s := newTestServer(t)
	food := s.category("Food")
	owner := s.register("m1@example.com")
	other := s.register("m2@example.com")
	shop := s.openShop(owner, "Corner Store", food.ID)

	w := s.do(http.MethodGet, "/api/v1/shop/"+shop.Slug, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[shopDetailResponse](t, w)
	assert.Equal(t, "m1@example.com", detail.Merchant.Email)
	assert.Equal(t, food.ID, detail.Category.ID)

	w = s.do(http.MethodGet, "/api/v1/shop/"+shop.Slug+"/cart", other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/shop/missing", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActiveShopFollowsActivation(t *testing.T) {
	s := newTestServer(t)
	food := s.category("Food")
	token := s.register("m1@example.com")

	w := s.do(http.MethodGet, "/api/v1/shops/active", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	first := s.openShop(token, "Corner Store", food.ID)
	s.openShop(token, "Night Market", food.ID)

	w = s.do(http.MethodPost, "/api/v1/shop/"+first.Slug+"/activate", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/shops/active", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.ID, decode[models.Shop](t, w).ID)
}

func TestTradeBetweenConnectedShops(t *testing.T) {
	s := newTestServer(t)
	food := s.category("Food")
	buyerToken := s.register("m1@example.com")
	sellerToken := s.register("m2@example.com")
	buyer := s.openShop(buyerToken, "Corner Store", food.ID)
	seller := s.openShop(sellerToken, "Night Market", food.ID)

	w := s.do(http.MethodPost, "/api/v1/shop/"+seller.Slug+"/my-products", sellerToken, gin.H{
		"title": "Rice", "price": "5.00", "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[productResponse](t, w)
	assert.Equal(t, "5.00", product.Price)

	buyPath := "/api/v1/shop/" + buyer.Slug + "/buy-products"
	w = s.do(http.MethodPost, buyPath, buyerToken, gin.H{"product_uid": product.UID, "quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code, "unconnected products are invisible")

	w = s.do(http.MethodPost, "/api/v1/shop/"+buyer.Slug+"/sent-requests", buyerToken, gin.H{"receiver_shop_id": seller.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conn := decode[models.ShopConnection](t, w)
	assert.Equal(t, models.ConnectionStatusPending, conn.Status)

	respondPath := "/api/v1/shop/" + seller.Slug + "/received-requests/" + conn.UID.String()
	w = s.do(http.MethodPatch, respondPath, sellerToken, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, tc := range []struct {
		token string
		shop  models.Shop
		want  int64
	}{{buyerToken, buyer, seller.ID}, {sellerToken, seller, buyer.ID}} {
		w = s.do(http.MethodGet, "/api/v1/shop/"+tc.shop.Slug+"/connected-shops", tc.token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		shops := decode[[]models.Shop](t, w)
		require.Len(t, shops, 1)
		assert.Equal(t, tc.want, shops[0].ID)
	}

	w = s.do(http.MethodGet, buyPath, buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]productResponse](t, w), 1)

	w = s.do(http.MethodPost, buyPath, buyerToken, gin.H{"product_uid": product.UID, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "10.00", decode[cartItemResponse](t, w).NetPrice)

	cartPath := "/api/v1/shop/" + buyer.Slug + "/cart"
	w = s.do(http.MethodGet, cartPath, buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[cartResponse](t, w)
	assert.Equal(t, "10.00", cart.TotalPrice)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Night Market", cart.Items[0].SellerShop)

	w = s.do(http.MethodPost, "/api/v1/shop/"+buyer.Slug+"/confirm-order", buyerToken, gin.H{
		"delivery_address": "42 Harbour Road", "payment_method": "bank_transfer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[orderResponse](t, w)
	assert.Equal(t, "10.00", order.TotalPrice)
	require.Len(t, order.Items, 1)

	w = s.do(http.MethodGet, cartPath, buyerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/shop/"+buyer.Slug+"/orders/"+order.UID.String(), buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.UID, decode[orderResponse](t, w).UID)
}

func TestConnectionAcrossCategoriesIsRejected(t *testing.T) {
	s := newTestServer(t)
	buyerToken := s.register("m1@example.com")
	sellerToken := s.register("m2@example.com")
	buyer := s.openShop(buyerToken, "Corner Store", s.category("Food").ID)
	seller := s.openShop(sellerToken, "Juice Bar", s.category("Drinks").ID)

	w := s.do(http.MethodPost, "/api/v1/shop/"+buyer.Slug+"/sent-requests", buyerToken, gin.H{"receiver_shop_id": seller.ID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "you are not in the same category", decode[errorResponse](t, w).Error.Message)
}

func TestBadUIDParam(t *testing.T) {
	s := newTestServer(t)
	token := s.register("m1@example.com")
	shop := s.openShop(token, "Corner Store", s.category("Food").ID)

	w := s.do(http.MethodGet, "/api/v1/shop/"+shop.Slug+"/orders/not-a-uuid", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error.Fields, "uid")
}

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
		body string
	}{
		{apperr.Validation("bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperr.Conflict("dup"), http.StatusBadRequest, "ALREADY_EXISTS"},
		{apperr.NotFound("gone"), http.StatusNotFound, "NOT_FOUND"},
		{apperr.Forbidden("mine"), http.StatusForbidden, "FORBIDDEN"},
		{apperr.InvalidCredentials(), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		writeError(c, tt.err)

		assert.Equal(t, tt.code, w.Code)
		assert.Contains(t, w.Body.String(), tt.body)
		assert.NotContains(t, w.Body.String(), "connection reset")
	}
}
