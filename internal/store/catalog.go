package store

import (
	"context"

	"b2b-commerce/internal/models"

	"github.com/google/uuid"
)

// CreateCategory inserts a category; duplicate slug yields ErrDuplicate
func (q *Queries) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (uid, title, slug)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return translate(q.db.GetContext(ctx, c, query, c.UID, c.Title, c.Slug))
}

// GetCategoryByID retrieves a category by ID
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := q.get(ctx, &c, "SELECT * FROM categories WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories retrieves all categories
func (q *Queries) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := q.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY title, id")
	return categories, err
}

// CategorySlugExists reports whether slug is taken
func (q *Queries) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)", slug)
	return exists, err
}

// CreateShop inserts a shop; duplicate name or slug yields ErrDuplicate
func (q *Queries) CreateShop(ctx context.Context, s *models.Shop) error {
	query := `
		INSERT INTO shops (uid, name, slug, merchant_id, category_id, address, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := q.db.GetContext(ctx, s, query,
		s.UID, s.Name, s.Slug, s.MerchantID, s.CategoryID, s.Address, s.Description, s.Active)
	return translate(err)
}

// GetShopByID retrieves a shop by ID
func (q *Queries) GetShopByID(ctx context.Context, id int64) (*models.Shop, error) {
	var s models.Shop
	if err := q.get(ctx, &s, "SELECT * FROM shops WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetShopBySlug retrieves a shop by slug
func (q *Queries) GetShopBySlug(ctx context.Context, slug string) (*models.Shop, error) {
	var s models.Shop
	if err := q.get(ctx, &s, "SELECT * FROM shops WHERE slug = $1", slug); err != nil {
		return nil, err
	}
	return &s, nil
}

// ShopSlugExists reports whether slug is taken
func (q *Queries) ShopSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM shops WHERE slug = $1)", slug)
	return exists, err
}

// ListShops retrieves all shops
func (q *Queries) ListShops(ctx context.Context) ([]models.Shop, error) {
	shops := []models.Shop{}
	err := q.db.SelectContext(ctx, &shops, "SELECT * FROM shops ORDER BY id")
	return shops, err
}

// ListShopsByMerchant retrieves the shops a merchant owns
func (q *Queries) ListShopsByMerchant(ctx context.Context, merchantID int64) ([]models.Shop, error) {
	shops := []models.Shop{}
	err := q.db.SelectContext(ctx, &shops,
		"SELECT * FROM shops WHERE merchant_id = $1 ORDER BY id", merchantID)
	return shops, err
}

// ListShopsByCategory retrieves every shop of a category
func (q *Queries) ListShopsByCategory(ctx context.Context, categoryID int64) ([]models.Shop, error) {
	shops := []models.Shop{}
	err := q.db.SelectContext(ctx, &shops,
		"SELECT * FROM shops WHERE category_id = $1 ORDER BY id", categoryID)
	return shops, err
}

// GetActiveShop retrieves the merchant's current shop
func (q *Queries) GetActiveShop(ctx context.Context, merchantID int64) (*models.Shop, error) {
	var s models.Shop
	err := q.get(ctx, &s,
		"SELECT * FROM shops WHERE merchant_id = $1 AND active ORDER BY updated_at DESC LIMIT 1", merchantID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActivateShop marks shopID active and every other shop of the merchant inactive in one statement
func (q *Queries) ActivateShop(ctx context.Context, merchantID, shopID int64) error {
	return q.exec(ctx, true,
		"UPDATE shops SET active = (id = $2), updated_at = NOW() WHERE merchant_id = $1",
		merchantID, shopID)
}

// CreateProduct inserts a product
func (q *Queries) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (uid, title, slug, price, quantity, shop_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return translate(q.db.GetContext(ctx, p, query, p.UID, p.Title, p.Slug, p.Price, p.Quantity, p.ShopID))
}

// GetProductByUID retrieves a product by UID
func (q *Queries) GetProductByUID(ctx context.Context, uid uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := q.get(ctx, &p, "SELECT * FROM products WHERE uid = $1", uid); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProductsByShop retrieves the products a shop sells
func (q *Queries) ListProductsByShop(ctx context.Context, shopID int64) ([]models.Product, error) {
	products := []models.Product{}
	err := q.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE shop_id = $1 ORDER BY id", shopID)
	return products, err
}

// ListProductsOfConnectedShops retrieves the products of every shop shopID has an approved edge to
func (q *Queries) ListProductsOfConnectedShops(ctx context.Context, shopID int64) ([]models.Product, error) {
	query := `
		SELECT * FROM products
		WHERE shop_id IN (
			SELECT receiver_shop_id FROM shop_connections
			WHERE sender_shop_id = $1 AND status = 'approved'
		)
		ORDER BY id`

	products := []models.Product{}
	err := q.db.SelectContext(ctx, &products, query, shopID)
	return products, err
}
