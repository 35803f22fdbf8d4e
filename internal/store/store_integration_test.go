//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/store/migrations"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("b2b_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrations.New(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	s, err := store.NewStore(dsn, store.Options{MaxOpenConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedShop(t *testing.T, s *store.Store, merchantID, categoryID int64, name string) *models.Shop {
	t.Helper()
	shop := &models.Shop{
		UID: uuid.New(), Name: name, Slug: name, MerchantID: merchantID,
		CategoryID: categoryID, Address: "street 1", Description: "d",
	}
	require.NoError(t, s.CreateShop(context.Background(), shop))
	return shop
}

func TestStoreCheckoutFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	merchant := &models.Merchant{UID: uuid.New(), Email: "m@x.io", Name: "M", DOB: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC), PasswordHash: "h"}
	require.NoError(t, s.CreateMerchant(ctx, merchant))

	dup := *merchant
	dup.UID = uuid.New()
	assert.ErrorIs(t, s.CreateMerchant(ctx, &dup), store.ErrDuplicate)

	category := &models.Category{UID: uuid.New(), Title: "Food", Slug: "food"}
	require.NoError(t, s.CreateCategory(ctx, category))

	buyer := seedShop(t, s, merchant.ID, category.ID, "buyer")
	seller := seedShop(t, s, merchant.ID, category.ID, "seller")

	require.NoError(t, s.ActivateShop(ctx, merchant.ID, seller.ID))
	active, err := s.GetActiveShop(ctx, merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, seller.ID, active.ID)

	require.NoError(t, s.CreateConnection(ctx, &models.ShopConnection{
		UID: uuid.New(), SenderShopID: buyer.ID, ReceiverShopID: seller.ID, Status: models.ConnectionStatusApproved,
	}))
	ok, err := s.IsConnected(ctx, buyer.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsConnected(ctx, seller.ID, buyer.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	product := &models.Product{UID: uuid.New(), Title: "Widget", Slug: "widget", Price: decimal.NewFromInt(10), Quantity: 20, ShopID: seller.ID}
	require.NoError(t, s.CreateProduct(ctx, product))

	purchasable, err := s.ListProductsOfConnectedShops(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, purchasable, 1)

	err = s.RunInTx(ctx, func(repo store.Repository) error {
		if err := repo.CreateCart(ctx, &models.Cart{UID: uuid.New(), MerchantID: merchant.ID, ShopID: buyer.ID}); err != nil {
			return err
		}
		cart, err := repo.GetCartForUpdate(ctx, merchant.ID, buyer.ID)
		if err != nil {
			return err
		}
		item := &models.CartItem{
			UID: uuid.New(), MerchantID: merchant.ID, ShopID: buyer.ID, CartID: cart.ID,
			ProductID: product.ID, Quantity: 3, NetPrice: decimal.NewFromInt(30),
		}
		if err := repo.CreateCartItem(ctx, item); err != nil {
			return err
		}
		total, err := repo.SumCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		return repo.UpdateCartTotal(ctx, cart.ID, total)
	})
	require.NoError(t, err)

	cart, err := s.GetCart(ctx, merchant.ID, buyer.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(cart.TotalPrice))

	lines, err := s.ListCartLineItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "seller", lines[0].SellerShop)

	require.NoError(t, s.DeleteCart(ctx, cart.ID))
	_, err = s.GetCart(ctx, merchant.ID, buyer.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreActivityIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	merchant := &models.Merchant{UID: uuid.New(), Email: "a@x.io", Name: "A", DOB: time.Now(), PasswordHash: "h"}
	require.NoError(t, s.CreateMerchant(ctx, merchant))
	category := &models.Category{UID: uuid.New(), Title: "Tools", Slug: "tools"}
	require.NoError(t, s.CreateCategory(ctx, category))
	shop := seedShop(t, s, merchant.ID, category.ID, "tools-shop")

	a := &models.ShopActivity{ShopID: shop.ID, EventID: "evt-1", EventType: models.EventTypeShopCreated, Summary: "created", OccurredAt: time.Now()}
	require.NoError(t, s.CreateActivity(ctx, a))
	require.NoError(t, s.CreateActivity(ctx, a))

	rows, err := s.ListActivity(ctx, shop.ID, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, s.MarkEventProcessed(ctx, "evt-1", models.EventTypeShopCreated))
	require.NoError(t, s.MarkEventProcessed(ctx, "evt-1", models.EventTypeShopCreated))
	processed, err := s.IsEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)
}
