package service

import (
	"context"
	"errors"
	"fmt"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConnectionService runs the request / approve / decline workflow between shops
type ConnectionService struct {
	store     Store
	publisher EventPublisher
	logger    *zap.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(store Store, publisher EventPublisher) *ConnectionService {
	return &ConnectionService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// RespondRequest carries the receiver's decision
type RespondRequest struct {
	Status string `json:"status" binding:"required"`
}

// Request asks receiverShopID to let sender buy from it
func (s *ConnectionService) Request(ctx context.Context, sender *models.Shop, receiverShopID int64) (*models.ShopConnection, error) {
	ctx, span := util.StartSpan(ctx, "ConnectionService.Request")
	defer span.End()

	receiver, err := s.store.GetShopByID(ctx, receiverShopID)
	if err != nil {
		return nil, notFound(err, "shop %d not found", receiverShopID)
	}
	if receiver.ID == sender.ID {
		util.ConnectionRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("a shop cannot connect to itself")
	}
	if receiver.CategoryID != sender.CategoryID {
		util.ConnectionRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.Validation("you are not in the same category")
	}

	conn := &models.ShopConnection{
		UID:            uuid.New(),
		SenderShopID:   sender.ID,
		ReceiverShopID: receiver.ID,
		Status:         models.ConnectionStatusPending,
	}

	err = s.store.RunInTx(ctx, func(repo store.Repository) error {
		existing, err := repo.FindConnection(ctx, sender.ID, receiver.ID)
		if err == nil {
			return apperr.Validation("a %s request to this shop already exists", existing.Status)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := repo.CreateConnection(ctx, conn); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Validation("a request to this shop already exists").Wrap(err)
			}
			return fmt.Errorf("failed to create connection: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			util.ConnectionRequestsTotal.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	util.ConnectionRequestsTotal.WithLabelValues(models.ConnectionStatusPending).Inc()
	s.logger.Info("Connection requested",
		zap.Int64("sender_shop_id", sender.ID),
		zap.Int64("receiver_shop_id", receiver.ID))

	s.publish(ctx, models.EventTypeConnectionRequested, conn, sender, receiver)
	return conn, nil
}

// ListSent retrieves the requests shop has sent
func (s *ConnectionService) ListSent(ctx context.Context, shop *models.Shop) ([]models.ShopConnection, error) {
	ctx, span := util.StartSpan(ctx, "ConnectionService.ListSent")
	defer span.End()

	return s.store.ListConnectionsBySender(ctx, shop.ID)
}

// ListReceived retrieves the requests shop has received
func (s *ConnectionService) ListReceived(ctx context.Context, shop *models.Shop) ([]models.ShopConnection, error) {
	ctx, span := util.StartSpan(ctx, "ConnectionService.ListReceived")
	defer span.End()

	return s.store.ListConnectionsByReceiver(ctx, shop.ID)
}

// GetReceived retrieves one request addressed to shop
func (s *ConnectionService) GetReceived(ctx context.Context, shop *models.Shop, uid uuid.UUID) (*models.ShopConnection, error) {
	ctx, span := util.StartSpan(ctx, "ConnectionService.GetReceived")
	defer span.End()

	conn, err := s.store.GetConnectionByUID(ctx, uid)
	return addressedTo(conn, err, shop, uid)
}

func addressedTo(conn *models.ShopConnection, err error, shop *models.Shop, uid uuid.UUID) (*models.ShopConnection, error) {
	if err != nil {
		return nil, notFound(err, "connection request %s not found", uid)
	}
	// requests addressed to other shops are invisible rather than forbidden
	if conn.ReceiverShopID != shop.ID {
		return nil, apperr.NotFound("connection request %s not found", uid)
	}
	return conn, nil
}

// Respond approves or declines a pending request addressed to receiver.
// Approval also grants the reverse direction; declining deletes the request.
func (s *ConnectionService) Respond(ctx context.Context, receiver *models.Shop, uid uuid.UUID, decision string) (*models.ShopConnection, error) {
	ctx, span := util.StartSpan(ctx, "ConnectionService.Respond")
	defer span.End()

	if decision != models.ConnectionStatusApproved && decision != models.ConnectionStatusDeclined {
		return nil, apperr.FieldValidation(map[string]string{
			"status": fmt.Sprintf("must be one of: %s %s", models.ConnectionStatusApproved, models.ConnectionStatusDeclined),
		})
	}

	var conn *models.ShopConnection
	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		// the row lock makes a concurrent approve and decline of one request take turns
		locked, err := repo.GetConnectionForUpdate(ctx, uid)
		conn, err = addressedTo(locked, err, receiver, uid)
		if err != nil {
			return err
		}
		if conn.Status != models.ConnectionStatusPending {
			return apperr.Validation("connection request is already %s", conn.Status)
		}

		if decision == models.ConnectionStatusDeclined {
			if err := repo.DeleteConnection(ctx, conn.ID); err != nil {
				return fmt.Errorf("failed to delete connection: %w", err)
			}
			conn.Status = models.ConnectionStatusDeclined
			return nil
		}

		if err := repo.UpdateConnectionStatus(ctx, conn.ID, models.ConnectionStatusApproved); err != nil {
			return fmt.Errorf("failed to approve connection: %w", err)
		}
		conn.Status = models.ConnectionStatusApproved
		return approveReverse(ctx, repo, conn)
	})
	if err != nil {
		return nil, err
	}

	util.ConnectionRequestsTotal.WithLabelValues(conn.Status).Inc()
	s.logger.Info("Connection request answered",
		zap.String("connection_uid", conn.UID.String()),
		zap.String("status", conn.Status))

	sender, err := s.store.GetShopByID(ctx, conn.SenderShopID)
	if err != nil {
		s.logger.Error("Failed to load sender shop for event", zap.Error(err))
		return conn, nil
	}
	eventType := models.EventTypeConnectionApproved
	if conn.Status == models.ConnectionStatusDeclined {
		eventType = models.EventTypeConnectionDeclined
	}
	s.publish(ctx, eventType, conn, sender, receiver)
	return conn, nil
}

// approveReverse creates or upgrades the receiver→sender edge
func approveReverse(ctx context.Context, repo store.Repository, conn *models.ShopConnection) error {
	reverse, err := repo.FindConnection(ctx, conn.ReceiverShopID, conn.SenderShopID)
	if errors.Is(err, store.ErrNotFound) {
		err = repo.CreateConnection(ctx, &models.ShopConnection{
			UID:            uuid.New(),
			SenderShopID:   conn.ReceiverShopID,
			ReceiverShopID: conn.SenderShopID,
			Status:         models.ConnectionStatusApproved,
		})
		if !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		// the receiver sent its own request meanwhile; upgrade that one
		reverse, err = repo.FindConnection(ctx, conn.ReceiverShopID, conn.SenderShopID)
	}
	if err != nil {
		return err
	}
	if reverse.Status == models.ConnectionStatusApproved {
		return nil
	}
	return repo.UpdateConnectionStatus(ctx, reverse.ID, models.ConnectionStatusApproved)
}

func (s *ConnectionService) publish(ctx context.Context, eventType string, conn *models.ShopConnection, sender, receiver *models.Shop) {
	event := &models.ConnectionEvent{
		BaseEvent:        models.NewBaseEvent(eventType),
		ConnectionUID:    conn.UID,
		SenderShopID:     sender.ID,
		SenderShopName:   sender.Name,
		ReceiverShopID:   receiver.ID,
		ReceiverShopName: receiver.Name,
	}
	if err := s.publisher.PublishConnectionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish connection event", zap.String("type", eventType), zap.Error(err))
	}
}
