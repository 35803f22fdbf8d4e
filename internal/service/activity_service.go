package service

import (
	"context"
	"fmt"

	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/util"

	"go.uber.org/zap"
)

// ActivityService projects domain events into per-shop activity logs
type ActivityService struct {
	store    Store
	pageSize int
	logger   *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(store Store, pageSize int) *ActivityService {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &ActivityService{store: store, pageSize: pageSize, logger: util.GetLogger()}
}

type entry struct {
	shopID  int64
	summary string
}

// HandleShopCreated records the opening of a shop
func (s *ActivityService) HandleShopCreated(ctx context.Context, event *models.ShopCreatedEvent) error {
	return s.project(ctx, event.BaseEvent, []entry{
		{event.ShopID, fmt.Sprintf("Shop %s was opened", event.ShopName)},
	})
}

// HandleConnectionEvent records a connection transition on both shops
func (s *ActivityService) HandleConnectionEvent(ctx context.Context, event *models.ConnectionEvent) error {
	var sent, received string
	switch event.EventType {
	case models.EventTypeConnectionRequested:
		sent = fmt.Sprintf("Requested a connection to %s", event.ReceiverShopName)
		received = fmt.Sprintf("%s requested a connection", event.SenderShopName)
	case models.EventTypeConnectionApproved:
		sent = fmt.Sprintf("%s approved your connection request", event.ReceiverShopName)
		received = fmt.Sprintf("Approved the connection request of %s", event.SenderShopName)
	case models.EventTypeConnectionDeclined:
		sent = fmt.Sprintf("%s declined your connection request", event.ReceiverShopName)
		received = fmt.Sprintf("Declined the connection request of %s", event.SenderShopName)
	default:
		return fmt.Errorf("unexpected connection event type %q", event.EventType)
	}

	return s.project(ctx, event.BaseEvent, []entry{
		{event.SenderShopID, sent},
		{event.ReceiverShopID, received},
	})
}

// HandleOrderPlaced records an order on the buyer and on every seller
func (s *ActivityService) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	entries := []entry{{
		event.ShopID,
		fmt.Sprintf("Placed order %s for %s", event.OrderUID, event.TotalPrice.StringFixed(2)),
	}}
	for _, seller := range event.SellerShopIDs {
		if seller == event.ShopID {
			continue
		}
		entries = append(entries, entry{seller, fmt.Sprintf("Received order %s from %s", event.OrderUID, event.ShopName)})
	}
	return s.project(ctx, event.BaseEvent, entries)
}

// project writes one activity row per entry unless the event was seen before
func (s *ActivityService) project(ctx context.Context, base models.BaseEvent, entries []entry) error {
	ctx, span := util.StartSpan(ctx, "ActivityService.project")
	defer span.End()

	processed, err := s.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if processed {
		util.ActivityEventsTotal.WithLabelValues(base.EventType, "duplicate").Inc()
		s.logger.Debug("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	err = s.store.RunInTx(ctx, func(repo store.Repository) error {
		for _, e := range entries {
			row := &models.ShopActivity{
				ShopID:     e.shopID,
				EventID:    base.EventID,
				EventType:  base.EventType,
				Summary:    e.summary,
				OccurredAt: base.Timestamp,
			}
			if err := repo.CreateActivity(ctx, row); err != nil {
				return fmt.Errorf("failed to record activity: %w", err)
			}
		}
		return repo.MarkEventProcessed(ctx, base.EventID, base.EventType)
	})
	if err != nil {
		util.ActivityEventsTotal.WithLabelValues(base.EventType, "error").Inc()
		return err
	}

	util.ActivityEventsTotal.WithLabelValues(base.EventType, "projected").Inc()
	return nil
}

// ListActivity returns the newest activity of shop
func (s *ActivityService) ListActivity(ctx context.Context, shop *models.Shop, limit int) ([]models.ShopActivity, error) {
	ctx, span := util.StartSpan(ctx, "ActivityService.ListActivity")
	defer span.End()

	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	return s.store.ListActivity(ctx, shop.ID, limit)
}
