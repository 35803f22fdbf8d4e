package store

import (
	"context"

	"b2b-commerce/internal/models"

	"github.com/google/uuid"
)

// CreateConnection inserts a connection edge; a second edge in the same direction yields ErrDuplicate
func (q *Queries) CreateConnection(ctx context.Context, c *models.ShopConnection) error {
	query := `
		INSERT INTO shop_connections (uid, sender_shop_id, receiver_shop_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return translate(q.db.GetContext(ctx, c, query, c.UID, c.SenderShopID, c.ReceiverShopID, c.Status))
}

// GetConnectionByUID retrieves a connection by UID
func (q *Queries) GetConnectionByUID(ctx context.Context, uid uuid.UUID) (*models.ShopConnection, error) {
	var c models.ShopConnection
	if err := q.get(ctx, &c, "SELECT * FROM shop_connections WHERE uid = $1", uid); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConnectionForUpdate is GetConnectionByUID holding a row lock until the transaction ends
func (q *Queries) GetConnectionForUpdate(ctx context.Context, uid uuid.UUID) (*models.ShopConnection, error) {
	var c models.ShopConnection
	if err := q.get(ctx, &c, "SELECT * FROM shop_connections WHERE uid = $1 FOR UPDATE", uid); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConnection retrieves the sender→receiver edge
func (q *Queries) FindConnection(ctx context.Context, senderID, receiverID int64) (*models.ShopConnection, error) {
	var c models.ShopConnection
	err := q.get(ctx, &c,
		"SELECT * FROM shop_connections WHERE sender_shop_id = $1 AND receiver_shop_id = $2",
		senderID, receiverID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConnectionsBySender retrieves the requests a shop has sent
func (q *Queries) ListConnectionsBySender(ctx context.Context, shopID int64) ([]models.ShopConnection, error) {
	conns := []models.ShopConnection{}
	err := q.db.SelectContext(ctx, &conns,
		"SELECT * FROM shop_connections WHERE sender_shop_id = $1 ORDER BY created_at DESC, id DESC", shopID)
	return conns, err
}

// ListConnectionsByReceiver retrieves the requests a shop has received
func (q *Queries) ListConnectionsByReceiver(ctx context.Context, shopID int64) ([]models.ShopConnection, error) {
	conns := []models.ShopConnection{}
	err := q.db.SelectContext(ctx, &conns,
		"SELECT * FROM shop_connections WHERE receiver_shop_id = $1 ORDER BY created_at DESC, id DESC", shopID)
	return conns, err
}

// UpdateConnectionStatus sets the status of a connection
func (q *Queries) UpdateConnectionStatus(ctx context.Context, id int64, status string) error {
	return q.exec(ctx, true,
		"UPDATE shop_connections SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
}

// DeleteConnection removes a connection
func (q *Queries) DeleteConnection(ctx context.Context, id int64) error {
	return q.exec(ctx, true, "DELETE FROM shop_connections WHERE id = $1", id)
}

// IsConnected reports whether an approved sender→receiver edge exists
func (q *Queries) IsConnected(ctx context.Context, senderID, receiverID int64) (bool, error) {
	var exists bool
	err := q.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM shop_connections
			WHERE sender_shop_id = $1 AND receiver_shop_id = $2 AND status = 'approved'
		)`, senderID, receiverID)
	return exists, err
}

// ListConnectedShops retrieves the shops shopID has an approved outgoing edge to
func (q *Queries) ListConnectedShops(ctx context.Context, shopID int64) ([]models.Shop, error) {
	query := `
		SELECT * FROM shops
		WHERE id IN (
			SELECT receiver_shop_id FROM shop_connections
			WHERE sender_shop_id = $1 AND status = 'approved'
		)
		ORDER BY id`

	shops := []models.Shop{}
	err := q.db.SelectContext(ctx, &shops, query, shopID)
	return shops, err
}
