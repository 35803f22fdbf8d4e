package service

import (
	"context"
	"errors"
	"time"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"
)

// Store is a repository that can also open a transaction
type Store interface {
	store.Repository
	RunInTx(ctx context.Context, fn func(repo store.Repository) error) error
}

// EventPublisher publishes domain events after a successful write
type EventPublisher interface {
	PublishShopCreated(ctx context.Context, event *models.ShopCreatedEvent) error
	PublishConnectionEvent(ctx context.Context, event *models.ConnectionEvent) error
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// TokenRevoker blacklists refresh tokens by id
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// CategoryCache holds the category list
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]models.Category, bool, error)
	SetCategories(ctx context.Context, categories []models.Category, ttl time.Duration) error
	InvalidateCategories(ctx context.Context) error
}

// NoopRevoker never revokes; used when Redis is disabled
type NoopRevoker struct{}

func (NoopRevoker) RevokeToken(context.Context, string, time.Duration) error { return nil }
func (NoopRevoker) IsTokenRevoked(context.Context, string) (bool, error)    { return false, nil }

// NoopCache always misses
type NoopCache struct{}

func (NoopCache) GetCategories(context.Context) ([]models.Category, bool, error) {
	return nil, false, nil
}
func (NoopCache) SetCategories(context.Context, []models.Category, time.Duration) error { return nil }
func (NoopCache) InvalidateCategories(context.Context) error                         { return nil }

// notFound maps store.ErrNotFound onto a NotFound error naming what is missing
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(format, args...).Wrap(err)
	}
	return err
}
