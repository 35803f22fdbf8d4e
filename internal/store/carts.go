package store

import (
	"context"

	"b2b-commerce/internal/models"

	"github.com/shopspring/decimal"
)

const lineItemColumns = `
	SELECT i.product_id, p.uid AS product_uid, p.title AS product_title,
	       p.shop_id AS seller_shop_id, s.name AS seller_shop, i.quantity, i.net_price`

// GetCart retrieves the cart of a merchant acting as a buyer shop
func (q *Queries) GetCart(ctx context.Context, merchantID, shopID int64) (*models.Cart, error) {
	var c models.Cart
	err := q.get(ctx, &c, "SELECT * FROM carts WHERE merchant_id = $1 AND shop_id = $2", merchantID, shopID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCartForUpdate is GetCart holding a row lock until the transaction ends
func (q *Queries) GetCartForUpdate(ctx context.Context, merchantID, shopID int64) (*models.Cart, error) {
	var c models.Cart
	err := q.get(ctx, &c,
		"SELECT * FROM carts WHERE merchant_id = $1 AND shop_id = $2 FOR UPDATE", merchantID, shopID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCart inserts a cart unless (merchant, shop) already has one.
// Callers read the cart back with GetCartForUpdate.
func (q *Queries) CreateCart(ctx context.Context, c *models.Cart) error {
	query := `
		INSERT INTO carts (uid, merchant_id, shop_id, total_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (merchant_id, shop_id) DO NOTHING`

	return q.exec(ctx, false, query, c.UID, c.MerchantID, c.ShopID, c.TotalPrice)
}

// UpdateCartTotal persists a recomputed cart total
func (q *Queries) UpdateCartTotal(ctx context.Context, cartID int64, total decimal.Decimal) error {
	return q.exec(ctx, true,
		"UPDATE carts SET total_price = $1, updated_at = NOW() WHERE id = $2", total, cartID)
}

// DeleteCart removes a cart and, by cascade, its items
func (q *Queries) DeleteCart(ctx context.Context, cartID int64) error {
	return q.exec(ctx, true, "DELETE FROM carts WHERE id = $1", cartID)
}

// GetCartItem retrieves the line of a product in a cart
func (q *Queries) GetCartItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := q.get(ctx, &item,
		"SELECT * FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCartItem inserts a cart item
func (q *Queries) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (uid, merchant_id, shop_id, cart_id, product_id, quantity, net_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := q.db.GetContext(ctx, item, query,
		item.UID, item.MerchantID, item.ShopID, item.CartID, item.ProductID, item.Quantity, item.NetPrice)
	return translate(err)
}

// UpdateCartItem rewrites quantity and net price of a cart item
func (q *Queries) UpdateCartItem(ctx context.Context, id int64, quantity int64, netPrice decimal.Decimal) error {
	return q.exec(ctx, true,
		"UPDATE cart_items SET quantity = $1, net_price = $2, updated_at = NOW() WHERE id = $3",
		quantity, netPrice, id)
}

// DeleteCartItem removes a product from a cart
func (q *Queries) DeleteCartItem(ctx context.Context, cartID, productID int64) error {
	return q.exec(ctx, true,
		"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
}

// ListCartItems retrieves every item of a cart
func (q *Queries) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := q.db.SelectContext(ctx, &items, "SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY id", cartID)
	return items, err
}

// ListCartLineItems retrieves the items of a cart joined with product and seller shop
func (q *Queries) ListCartLineItems(ctx context.Context, cartID int64) ([]models.LineItem, error) {
	query := lineItemColumns + `
		FROM cart_items i
		JOIN products p ON p.id = i.product_id
		JOIN shops s ON s.id = p.shop_id
		WHERE i.cart_id = $1
		ORDER BY i.id`

	items := []models.LineItem{}
	err := q.db.SelectContext(ctx, &items, query, cartID)
	return items, err
}

// SumCartItems returns the sum of net prices of a cart
func (q *Queries) SumCartItems(ctx context.Context, cartID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(net_price), 0) FROM cart_items WHERE cart_id = $1", cartID)
	return total, err
}
