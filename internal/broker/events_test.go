package broker

import (
	"context"
	"encoding/json"
	"testing"

	"b2b-commerce/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	keys   []string
	events []interface{}
}

func (w *recordingWriter) PublishEvent(ctx context.Context, key string, event interface{}) error {
	w.keys = append(w.keys, key)
	w.events = append(w.events, event)
	return nil
}

func message(t *testing.T, event interface{}) kafka.Message {
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: body}
}

func TestEventPublisherKeysByShop(t *testing.T) {
	w := &recordingWriter{}
	ep := NewEventPublisher(w)
	ctx := context.Background()

	require.NoError(t, ep.PublishShopCreated(ctx, &models.ShopCreatedEvent{ShopID: 4}))
	require.NoError(t, ep.PublishConnectionEvent(ctx, &models.ConnectionEvent{SenderShopID: 5, ReceiverShopID: 6}))
	require.NoError(t, ep.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{ShopID: 7}))

	assert.Equal(t, []string{"shop-4", "shop-5", "shop-7"}, w.keys)
}

func TestHandleMessageRoutesByType(t *testing.T) {
	eh := NewEventHandler()
	ctx := context.Background()

	var gotShop *models.ShopCreatedEvent
	var gotConnections []string
	var gotOrder *models.OrderPlacedEvent

	eh.OnShopCreated(func(_ context.Context, e *models.ShopCreatedEvent) error {
		gotShop = e
		return nil
	})
	eh.OnConnectionEvent(func(_ context.Context, e *models.ConnectionEvent) error {
		gotConnections = append(gotConnections, e.EventType)
		return nil
	})
	eh.OnOrderPlaced(func(_ context.Context, e *models.OrderPlacedEvent) error {
		gotOrder = e
		return nil
	})

	shop := &models.ShopCreatedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeShopCreated), ShopID: 1, ShopName: "Acme"}
	require.NoError(t, eh.HandleMessage(ctx, message(t, shop)))
	require.NotNil(t, gotShop)
	assert.Equal(t, "Acme", gotShop.ShopName)

	for _, typ := range []string{models.EventTypeConnectionRequested, models.EventTypeConnectionApproved, models.EventTypeConnectionDeclined} {
		conn := &models.ConnectionEvent{BaseEvent: models.NewBaseEvent(typ), ConnectionUID: uuid.New()}
		require.NoError(t, eh.HandleMessage(ctx, message(t, conn)))
	}
	assert.Equal(t, []string{
		models.EventTypeConnectionRequested,
		models.EventTypeConnectionApproved,
		models.EventTypeConnectionDeclined,
	}, gotConnections)

	order := &models.OrderPlacedEvent{
		BaseEvent:     models.NewBaseEvent(models.EventTypeOrderPlaced),
		ShopID:        2,
		SellerShopIDs: []int64{3},
		TotalPrice:    decimal.RequireFromString("12.50"),
	}
	require.NoError(t, eh.HandleMessage(ctx, message(t, order)))
	require.NotNil(t, gotOrder)
	assert.Equal(t, []int64{3}, gotOrder.SellerShopIDs)
	assert.True(t, order.TotalPrice.Equal(gotOrder.TotalPrice))
}

func TestHandleMessageIgnoresUnknownAndRejectsGarbage(t *testing.T) {
	eh := NewEventHandler()
	ctx := context.Background()

	assert.NoError(t, eh.HandleMessage(ctx, message(t, models.NewBaseEvent("SOMETHING_ELSE"))))
	assert.Error(t, eh.HandleMessage(ctx, kafka.Message{Value: []byte("{not json")}))
}
