package worker

import (
	"context"

	"b2b-commerce/internal/broker"
	"b2b-commerce/internal/service"
	"b2b-commerce/internal/util"

	"go.uber.org/zap"
)

// MessageSource is the consumer side of the broker
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ActivityWorker projects domain events into shop activity logs
type ActivityWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewActivityWorker creates a new activity worker
func NewActivityWorker(consumer MessageSource, activity *service.ActivityService) *ActivityWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnShopCreated(activity.HandleShopCreated)
	eventHandler.OnConnectionEvent(activity.HandleConnectionEvent)
	eventHandler.OnOrderPlaced(activity.HandleOrderPlaced)

	return &ActivityWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start consumes until ctx is cancelled
func (w *ActivityWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting activity worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ActivityWorker) Stop() error {
	w.logger.Info("Stopping activity worker")
	return w.consumer.Close()
}
