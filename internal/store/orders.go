package store

import (
	"context"

	"b2b-commerce/internal/models"

	"github.com/google/uuid"
)

// CreateOrder creates a new order
func (q *Queries) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (uid, merchant_id, shop_id, delivery_address, payment_method, total_price, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := q.db.GetContext(ctx, order, query,
		order.UID, order.MerchantID, order.ShopID, order.DeliveryAddress,
		order.PaymentMethod, order.TotalPrice, order.IdempotencyKey)
	return translate(err)
}

// GetOrderByUID retrieves an order by UID
func (q *Queries) GetOrderByUID(ctx context.Context, uid uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := q.get(ctx, &order, "SELECT * FROM orders WHERE uid = $1", uid); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves the order a merchant placed with key
func (q *Queries) GetOrderByIdempotencyKey(ctx context.Context, merchantID int64, key string) (*models.Order, error) {
	var order models.Order
	err := q.get(ctx, &order,
		"SELECT * FROM orders WHERE merchant_id = $1 AND idempotency_key = $2", merchantID, key)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByShop retrieves the orders a buyer shop placed, newest first
func (q *Queries) ListOrdersByShop(ctx context.Context, shopID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := q.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE shop_id = $1 ORDER BY created_at DESC, id DESC", shopID)
	return orders, err
}

// CreateOrderItem creates a new order item
func (q *Queries) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (uid, merchant_id, shop_id, order_id, product_id, quantity, net_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := q.db.GetContext(ctx, item, query,
		item.UID, item.MerchantID, item.ShopID, item.OrderID, item.ProductID, item.Quantity, item.NetPrice)
	return translate(err)
}

// ListOrderLineItems retrieves the items of an order joined with product and seller shop
func (q *Queries) ListOrderLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	query := lineItemColumns + `
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		JOIN shops s ON s.id = p.shop_id
		WHERE i.order_id = $1
		ORDER BY i.id`

	items := []models.LineItem{}
	err := q.db.SelectContext(ctx, &items, query, orderID)
	return items, err
}
