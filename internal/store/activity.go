package store

import (
	"context"

	"b2b-commerce/internal/models"
)

// IsEventProcessed checks if an event has been processed
func (q *Queries) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := q.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (q *Queries) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	return q.exec(ctx, false,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
}

// CreateActivity records one event in a shop's activity log; replays are ignored
func (q *Queries) CreateActivity(ctx context.Context, a *models.ShopActivity) error {
	return q.exec(ctx, false, `
		INSERT INTO shop_activity (shop_id, event_id, event_type, summary, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shop_id, event_id) DO NOTHING`,
		a.ShopID, a.EventID, a.EventType, a.Summary, a.OccurredAt)
}

// ListActivity retrieves the newest activity of a shop
func (q *Queries) ListActivity(ctx context.Context, shopID int64, limit int) ([]models.ShopActivity, error) {
	rows := []models.ShopActivity{}
	err := q.db.SelectContext(ctx, &rows,
		"SELECT * FROM shop_activity WHERE shop_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2",
		shopID, limit)
	return rows, err
}
