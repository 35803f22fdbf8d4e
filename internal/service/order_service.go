package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService checks carts out into orders
type OrderService struct {
	store                 Store
	publisher             EventPublisher
	clearCartOnListOrders bool
	logger                *zap.Logger
}

// NewOrderService creates a new order service. clearCartOnList restores the
// legacy behaviour where listing orders also deletes the shop's cart.
func NewOrderService(store Store, publisher EventPublisher, clearCartOnList bool) *OrderService {
	return &OrderService{
		store:                 store,
		publisher:             publisher,
		clearCartOnListOrders: clearCartOnList,
		logger:                util.GetLogger(),
	}
}

// PlaceOrderRequest represents a checkout
type PlaceOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" binding:"required" validate:"required,max=150"`
	PaymentMethod   string `json:"payment_method" binding:"required" validate:"required"`
	IdempotencyKey  string `json:"idempotency_key,omitempty" validate:"max=128"`
}

// OrderView is an order with its line items
type OrderView struct {
	Order *models.Order
	Items []models.LineItem
}

// PlaceOrder turns the cart of (merchant, shop) into an order and deletes the cart
func (s *OrderService) PlaceOrder(ctx context.Context, merchantID int64, shop *models.Shop, req *PlaceOrderRequest) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if err := apperr.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, apperr.FieldValidation(map[string]string{
			"payment_method": fmt.Sprintf("must be one of: %s %s %s",
				models.PaymentCashOnDelivery, models.PaymentBankTransfer, models.PaymentCard),
		})
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, merchantID, req.IdempotencyKey)
		if err == nil && existing.ShopID != shop.ID {
			return nil, apperr.Conflict("idempotency key already used")
		}
		if err == nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_uid", existing.UID.String()))
			return s.view(ctx, existing)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	var (
		order    *models.Order
		items    []models.CartItem
		sellers  []int64
		lineView []models.LineItem
	)
	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		cart, err := repo.GetCartForUpdate(ctx, merchantID, shop.ID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("no cart to check out")
		}
		if err != nil {
			return err
		}

		items, err = repo.ListCartItems(ctx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to list cart items: %w", err)
		}
		if len(items) == 0 {
			return apperr.Validation("cart is empty")
		}
		lineView, err = repo.ListCartLineItems(ctx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to list cart items: %w", err)
		}

		total, err := repo.SumCartItems(ctx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to sum cart items: %w", err)
		}

		order = &models.Order{
			UID:             uuid.New(),
			MerchantID:      merchantID,
			ShopID:          shop.ID,
			DeliveryAddress: req.DeliveryAddress,
			PaymentMethod:   req.PaymentMethod,
			TotalPrice:      total,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			order.IdempotencyKey = &key
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("idempotency key already used").Wrap(err)
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		seen := map[int64]bool{}
		for _, item := range items {
			orderItem := &models.OrderItem{
				UID:        uuid.New(),
				MerchantID: merchantID,
				ShopID:     shop.ID,
				OrderID:    order.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				NetPrice:   item.NetPrice,
			}
			if err := repo.CreateOrderItem(ctx, orderItem); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		for _, line := range lineView {
			if !seen[line.SellerShopID] {
				seen[line.SellerShopID] = true
				sellers = append(sellers, line.SellerShopID)
			}
		}

		if err := repo.DeleteCart(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	util.OrderValue.Observe(order.TotalPrice.InexactFloat64())
	s.logger.Info("Order placed",
		zap.String("order_uid", order.UID.String()),
		zap.Int64("shop_id", shop.ID),
		zap.String("total", order.TotalPrice.StringFixed(2)))

	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			NetPrice:  item.NetPrice,
		})
	}
	event := &models.OrderPlacedEvent{
		BaseEvent:     models.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderUID:      order.UID,
		ShopID:        shop.ID,
		ShopName:      shop.Name,
		SellerShopIDs: sellers,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		Items:         eventItems,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &OrderView{Order: order, Items: lineView}, nil
}

// ListOrders retrieves the orders shop placed, newest first
func (s *OrderService) ListOrders(ctx context.Context, merchantID int64, shop *models.Shop) ([]OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if s.clearCartOnListOrders {
		err := s.store.RunInTx(ctx, func(repo store.Repository) error {
			return clearCart(ctx, repo, merchantID, shop.ID)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
	}

	orders, err := s.store.ListOrdersByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		view, err := s.view(ctx, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// GetOrder retrieves one order placed by shop
func (s *OrderService) GetOrder(ctx context.Context, shop *models.Shop, uid uuid.UUID) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByUID(ctx, uid)
	if err != nil {
		return nil, notFound(err, "order %s not found", uid)
	}
	if order.ShopID != shop.ID {
		return nil, apperr.NotFound("order %s not found", uid)
	}
	return s.view(ctx, order)
}

func (s *OrderService) view(ctx context.Context, order *models.Order) (*OrderView, error) {
	items, err := s.store.ListOrderLineItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return &OrderView{Order: order, Items: items}, nil
}

func failureReason(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "invalid_cart"
	case apperr.KindConflict:
		return "duplicate"
	case "":
		return "db_error"
	default:
		return strings.ToLower(string(apperr.KindOf(err)))
	}
}
