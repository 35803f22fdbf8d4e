package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"b2b-commerce/config"
	"b2b-commerce/internal/auth"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store/memstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu          sync.Mutex
	shops       []*models.ShopCreatedEvent
	connections []*models.ConnectionEvent
	orders      []*models.OrderPlacedEvent
}

func (p *recordingPublisher) PublishShopCreated(_ context.Context, e *models.ShopCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shops = append(p.shops, e)
	return nil
}

func (p *recordingPublisher) PublishConnectionEvent(_ context.Context, e *models.ConnectionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connections = append(p.connections, e)
	return nil
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, e)
	return nil
}

type memoryRevoker struct {
	revoked map[string]time.Duration
}

func (r *memoryRevoker) RevokeToken(_ context.Context, id string, ttl time.Duration) error {
	r.revoked[id] = ttl
	return nil
}

func (r *memoryRevoker) IsTokenRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, nil
}

type memoryCache struct {
	categories []models.Category
	cached     bool
	sets       int
}

func (c *memoryCache) GetCategories(context.Context) ([]models.Category, bool, error) {
	return c.categories, c.cached, nil
}

func (c *memoryCache) SetCategories(_ context.Context, categories []models.Category, _ time.Duration) error {
	c.categories, c.cached = categories, true
	c.sets++
	return nil
}

func (c *memoryCache) InvalidateCategories(context.Context) error {
	c.categories, c.cached = nil, false
	return nil
}

type fixture struct {
	t           *testing.T
	ctx         context.Context
	store       *memstore.Store
	publisher   *recordingPublisher
	revoker     *memoryRevoker
	cache       *memoryCache
	identity    *IdentityService
	catalog     *CatalogService
	connections *ConnectionService
	carts       *CartService
	orders      *OrderService
	activity    *ActivityService
}

func newFixture(t *testing.T) *fixture {
	st := memstore.New()
	pub := &recordingPublisher{}
	revoker := &memoryRevoker{revoked: map[string]time.Duration{}}
	cache := &memoryCache{}

	tokens := auth.NewJWTService(config.AuthConfig{
		JWTSecret:  "access-secret",
		Issuer:     "b2b-commerce-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})

	return &fixture{
		t:           t,
		ctx:         context.Background(),
		store:       st,
		publisher:   pub,
		revoker:     revoker,
		cache:       cache,
		identity:    NewIdentityService(st, tokens, auth.NewPasswordHasher(bcrypt.MinCost), revoker),
		catalog:     NewCatalogService(st, pub, cache, time.Minute),
		connections: NewConnectionService(st, pub),
		carts:       NewCartService(st),
		orders:      NewOrderService(st, pub, false),
		activity:    NewActivityService(st, 20),
	}
}

func (f *fixture) merchant(email string) *models.Merchant {
	m := &models.Merchant{UID: uuid.New(), Email: email, Name: email, DOB: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(f.t, f.store.CreateMerchant(f.ctx, m))
	return m
}

func (f *fixture) category(title string) *models.Category {
	c, err := f.catalog.CreateCategory(f.ctx, true, title)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) shop(owner *models.Merchant, category *models.Category, name string) *models.Shop {
	s, err := f.catalog.CreateShop(f.ctx, owner.ID, &CreateShopRequest{
		Name:        name,
		CategoryID:  category.ID,
		Address:     "1 Market Street",
		Description: "wholesale",
	})
	require.NoError(f.t, err)
	return s
}

func (f *fixture) product(shop *models.Shop, title, price string, quantity int64) *models.Product {
	p, err := f.catalog.CreateProduct(f.ctx, shop, &CreateProductRequest{
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
	})
	require.NoError(f.t, err)
	return p
}

// connect runs the full request/approve workflow from buyer to seller
func (f *fixture) connect(buyer, seller *models.Shop) {
	conn, err := f.connections.Request(f.ctx, buyer, seller.ID)
	require.NoError(f.t, err)
	_, err = f.connections.Respond(f.ctx, seller, conn.UID, models.ConnectionStatusApproved)
	require.NoError(f.t, err)
}

func (f *fixture) reload(shop *models.Shop) *models.Shop {
	s, err := f.store.GetShopByID(f.ctx, shop.ID)
	require.NoError(f.t, err)
	return s
}
