package store

import (
	"context"

	"b2b-commerce/internal/models"
)

// CreateMerchant inserts a merchant; duplicate email yields ErrDuplicate
func (q *Queries) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	query := `
		INSERT INTO merchants (uid, email, name, dob, is_staff, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := q.db.GetContext(ctx, m, query, m.UID, m.Email, m.Name, m.DOB, m.IsStaff, m.PasswordHash)
	return translate(err)
}

// GetMerchantByID retrieves a merchant by ID
func (q *Queries) GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error) {
	var m models.Merchant
	if err := q.get(ctx, &m, "SELECT * FROM merchants WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMerchantByEmail retrieves a merchant by its login email
func (q *Queries) GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	var m models.Merchant
	if err := q.get(ctx, &m, "SELECT * FROM merchants WHERE email = $1", email); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMerchants retrieves all merchants
func (q *Queries) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	merchants := []models.Merchant{}
	err := q.db.SelectContext(ctx, &merchants, "SELECT * FROM merchants ORDER BY id")
	return merchants, err
}

// LockMerchant takes a row lock that serializes shop activation for one merchant
func (q *Queries) LockMerchant(ctx context.Context, id int64) error {
	var locked int64
	return q.get(ctx, &locked, "SELECT id FROM merchants WHERE id = $1 FOR UPDATE", id)
}
