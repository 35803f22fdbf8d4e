package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTxRollsBack(t *testing.T) {
	s := New()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(repo store.Repository) error {
		if err := repo.CreateMerchant(ctx, &models.Merchant{UID: uuid.New(), Email: "a@x.io"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetMerchantByEmail(ctx, "a@x.io")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUniqueConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateMerchant(ctx, &models.Merchant{UID: uuid.New(), Email: "a@x.io"}))
	assert.ErrorIs(t, s.CreateMerchant(ctx, &models.Merchant{UID: uuid.New(), Email: "a@x.io"}), store.ErrDuplicate)

	require.NoError(t, s.CreateShop(ctx, &models.Shop{UID: uuid.New(), Name: "Acme", Slug: "acme"}))
	assert.ErrorIs(t, s.CreateShop(ctx, &models.Shop{UID: uuid.New(), Name: "Acme", Slug: "acme-2"}), store.ErrDuplicate)

	edge := func() *models.ShopConnection {
		return &models.ShopConnection{UID: uuid.New(), SenderShopID: 1, ReceiverShopID: 2, Status: models.ConnectionStatusPending}
	}
	require.NoError(t, s.CreateConnection(ctx, edge()))
	assert.ErrorIs(t, s.CreateConnection(ctx, edge()), store.ErrDuplicate)

	key := "order-1"
	order := func(merchantID int64) *models.Order {
		return &models.Order{UID: uuid.New(), MerchantID: merchantID, ShopID: 2, IdempotencyKey: &key}
	}
	require.NoError(t, s.CreateOrder(ctx, order(1)))
	require.NoError(t, s.CreateOrder(ctx, order(2)), "keys are unique per merchant")
	assert.ErrorIs(t, s.CreateOrder(ctx, order(1)), store.ErrDuplicate)
}

func TestCreateCartKeepsExistingCart(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := &models.Cart{UID: uuid.New(), MerchantID: 1, ShopID: 2}
	require.NoError(t, s.CreateCart(ctx, first))
	require.NoError(t, s.CreateCart(ctx, &models.Cart{UID: uuid.New(), MerchantID: 1, ShopID: 2}))

	cart, err := s.GetCartForUpdate(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, first.UID, cart.UID)
}

func TestRollbackKeepsWritesMadeOutsideTx(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	started := make(chan struct{})
	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(repo store.Repository) error {
		wg.Add(1)
		go func() {
			defer wg.Done()
			close(started)
			assert.NoError(t, s.CreateMerchant(ctx, &models.Merchant{UID: uuid.New(), Email: "outside@x.io"}))
		}()
		<-started
		time.Sleep(10 * time.Millisecond)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	wg.Wait()

	_, err = s.GetMerchantByEmail(ctx, "outside@x.io")
	assert.NoError(t, err)
}

func TestActivateShopKeepsOneActive(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := &models.Shop{UID: uuid.New(), Name: "a", Slug: "a", MerchantID: 1, Active: true}
	b := &models.Shop{UID: uuid.New(), Name: "b", Slug: "b", MerchantID: 1}
	other := &models.Shop{UID: uuid.New(), Name: "c", Slug: "c", MerchantID: 2, Active: true}
	for _, shop := range []*models.Shop{a, b, other} {
		require.NoError(t, s.CreateShop(ctx, shop))
	}

	require.NoError(t, s.ActivateShop(ctx, 1, b.ID))

	active, err := s.GetActiveShop(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	stillActive, err := s.GetShopByID(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, stillActive.Active)

	assert.ErrorIs(t, s.ActivateShop(ctx, 99, b.ID), store.ErrNotFound)
}

func TestConnectedShopsAreDirected(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateShop(ctx, &models.Shop{UID: uuid.New(), Name: "x", Slug: "x"}))
	require.NoError(t, s.CreateShop(ctx, &models.Shop{UID: uuid.New(), Name: "y", Slug: "y"}))
	x, _ := s.GetShopBySlug(ctx, "x")
	y, _ := s.GetShopBySlug(ctx, "y")

	require.NoError(t, s.CreateConnection(ctx, &models.ShopConnection{
		UID: uuid.New(), SenderShopID: x.ID, ReceiverShopID: y.ID, Status: models.ConnectionStatusApproved,
	}))

	fromX, err := s.ListConnectedShops(ctx, x.ID)
	require.NoError(t, err)
	require.Len(t, fromX, 1)
	assert.Equal(t, y.ID, fromX[0].ID)

	fromY, err := s.ListConnectedShops(ctx, y.ID)
	require.NoError(t, err)
	assert.Empty(t, fromY)
}

func TestDeleteCartCascadesItems(t *testing.T) {
	s := New()
	ctx := context.Background()

	cart := &models.Cart{UID: uuid.New(), MerchantID: 1, ShopID: 2}
	require.NoError(t, s.CreateCart(ctx, cart))
	require.NoError(t, s.CreateCartItem(ctx, &models.CartItem{UID: uuid.New(), CartID: cart.ID, ProductID: 7, Quantity: 2, NetPrice: decimal.NewFromInt(4)}))

	total, err := s.SumCartItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(total))

	require.NoError(t, s.DeleteCart(ctx, cart.ID))
	items, err := s.ListCartItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
