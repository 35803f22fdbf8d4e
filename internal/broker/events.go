package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"b2b-commerce/internal/models"
	"b2b-commerce/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the part of Producer the publisher needs
type Writer interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events.
// Events are keyed by the shop they originate from so one shop's events stay ordered.
type EventPublisher struct {
	producer Writer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Writer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func shopKey(shopID int64) string {
	return fmt.Sprintf("shop-%d", shopID)
}

// PublishShopCreated publishes ShopCreated event
func (ep *EventPublisher) PublishShopCreated(ctx context.Context, event *models.ShopCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, shopKey(event.ShopID), event)
}

// PublishConnectionEvent publishes a connection requested/approved/declined event
func (ep *EventPublisher) PublishConnectionEvent(ctx context.Context, event *models.ConnectionEvent) error {
	return ep.producer.PublishEvent(ctx, shopKey(event.SenderShopID), event)
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, shopKey(event.ShopID), event)
}

// NoopPublisher drops every event; used when Kafka is disabled
type NoopPublisher struct{}

func (NoopPublisher) PublishShopCreated(context.Context, *models.ShopCreatedEvent) error { return nil }
func (NoopPublisher) PublishConnectionEvent(context.Context, *models.ConnectionEvent) error {
	return nil
}
func (NoopPublisher) PublishOrderPlaced(context.Context, *models.OrderPlacedEvent) error { return nil }

// EventHandler handles incoming events
type EventHandler struct {
	onShopCreated     func(context.Context, *models.ShopCreatedEvent) error
	onConnectionEvent func(context.Context, *models.ConnectionEvent) error
	onOrderPlaced     func(context.Context, *models.OrderPlacedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnShopCreated registers a handler for ShopCreated events
func (eh *EventHandler) OnShopCreated(handler func(context.Context, *models.ShopCreatedEvent) error) {
	eh.onShopCreated = handler
}

// OnConnectionEvent registers one handler for every connection event type
func (eh *EventHandler) OnConnectionEvent(handler func(context.Context, *models.ConnectionEvent) error) {
	eh.onConnectionEvent = handler
}

// OnOrderPlaced registers a handler for OrderPlaced events
func (eh *EventHandler) OnOrderPlaced(handler func(context.Context, *models.OrderPlacedEvent) error) {
	eh.onOrderPlaced = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeShopCreated:
		if eh.onShopCreated != nil {
			var event models.ShopCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ShopCreated event: %w", err)
			}
			return eh.onShopCreated(ctx, &event)
		}

	case models.EventTypeConnectionRequested, models.EventTypeConnectionApproved, models.EventTypeConnectionDeclined:
		if eh.onConnectionEvent != nil {
			var event models.ConnectionEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
			}
			return eh.onConnectionEvent(ctx, &event)
		}

	case models.EventTypeOrderPlaced:
		if eh.onOrderPlaced != nil {
			var event models.OrderPlacedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPlaced event: %w", err)
			}
			return eh.onOrderPlaced(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
