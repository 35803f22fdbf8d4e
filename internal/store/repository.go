package store

import (
	"context"

	"b2b-commerce/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository lists every persistence operation the services depend on.
// Lookups return ErrNotFound when nothing matches.
type Repository interface {
	CreateMerchant(ctx context.Context, m *models.Merchant) error
	GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error)
	GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error)
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
	LockMerchant(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CategorySlugExists(ctx context.Context, slug string) (bool, error)

	CreateShop(ctx context.Context, s *models.Shop) error
	GetShopByID(ctx context.Context, id int64) (*models.Shop, error)
	GetShopBySlug(ctx context.Context, slug string) (*models.Shop, error)
	ShopSlugExists(ctx context.Context, slug string) (bool, error)
	ListShops(ctx context.Context) ([]models.Shop, error)
	ListShopsByMerchant(ctx context.Context, merchantID int64) ([]models.Shop, error)
	ListShopsByCategory(ctx context.Context, categoryID int64) ([]models.Shop, error)
	GetActiveShop(ctx context.Context, merchantID int64) (*models.Shop, error)
	ActivateShop(ctx context.Context, merchantID, shopID int64) error

	CreateConnection(ctx context.Context, c *models.ShopConnection) error
	GetConnectionByUID(ctx context.Context, uid uuid.UUID) (*models.ShopConnection, error)
	GetConnectionForUpdate(ctx context.Context, uid uuid.UUID) (*models.ShopConnection, error)
	FindConnection(ctx context.Context, senderID, receiverID int64) (*models.ShopConnection, error)
	ListConnectionsBySender(ctx context.Context, shopID int64) ([]models.ShopConnection, error)
	ListConnectionsByReceiver(ctx context.Context, shopID int64) ([]models.ShopConnection, error)
	UpdateConnectionStatus(ctx context.Context, id int64, status string) error
	DeleteConnection(ctx context.Context, id int64) error
	IsConnected(ctx context.Context, senderID, receiverID int64) (bool, error)
	ListConnectedShops(ctx context.Context, shopID int64) ([]models.Shop, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByUID(ctx context.Context, uid uuid.UUID) (*models.Product, error)
	ListProductsByShop(ctx context.Context, shopID int64) ([]models.Product, error)
	ListProductsOfConnectedShops(ctx context.Context, shopID int64) ([]models.Product, error)

	GetCart(ctx context.Context, merchantID, shopID int64) (*models.Cart, error)
	GetCartForUpdate(ctx context.Context, merchantID, shopID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, c *models.Cart) error
	UpdateCartTotal(ctx context.Context, cartID int64, total decimal.Decimal) error
	DeleteCart(ctx context.Context, cartID int64) error
	GetCartItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error)
	CreateCartItem(ctx context.Context, item *models.CartItem) error
	UpdateCartItem(ctx context.Context, id int64, quantity int64, netPrice decimal.Decimal) error
	DeleteCartItem(ctx context.Context, cartID, productID int64) error
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	ListCartLineItems(ctx context.Context, cartID int64) ([]models.LineItem, error)
	SumCartItems(ctx context.Context, cartID int64) (decimal.Decimal, error)

	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrderByUID(ctx context.Context, uid uuid.UUID) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, merchantID int64, key string) (*models.Order, error)
	ListOrdersByShop(ctx context.Context, shopID int64) ([]models.Order, error)
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	ListOrderLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error)

	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	CreateActivity(ctx context.Context, a *models.ShopActivity) error
	ListActivity(ctx context.Context, shopID int64, limit int) ([]models.ShopActivity, error)
}

var _ Repository = (*Queries)(nil)
