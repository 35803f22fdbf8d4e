package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeShopCreated         = "SHOP_CREATED"
	EventTypeConnectionRequested = "CONNECTION_REQUESTED"
	EventTypeConnectionApproved  = "CONNECTION_APPROVED"
	EventTypeConnectionDeclined  = "CONNECTION_DECLINED"
	EventTypeOrderPlaced         = "ORDER_PLACED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ShopCreatedEvent published when a merchant opens a shop
type ShopCreatedEvent struct {
	BaseEvent
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
}

// ConnectionEvent published on every connection state change
type ConnectionEvent struct {
	BaseEvent
	ConnectionUID    uuid.UUID `json:"connection_uid"`
	SenderShopID     int64     `json:"sender_shop_id"`
	SenderShopName   string    `json:"sender_shop_name"`
	ReceiverShopID   int64     `json:"receiver_shop_id"`
	ReceiverShopName string    `json:"receiver_shop_name"`
}

// OrderPlacedEvent published when a cart is checked out
type OrderPlacedEvent struct {
	BaseEvent
	OrderUID      uuid.UUID       `json:"order_uid"`
	ShopID        int64           `json:"shop_id"`
	ShopName      string          `json:"shop_name"`
	SellerShopIDs []int64         `json:"seller_shop_ids"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	NetPrice  decimal.Decimal `json:"net_price"`
}
