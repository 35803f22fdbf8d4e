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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService stages purchases of a merchant acting as one of their shops
type CartService struct {
	store  Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store Store) *CartService {
	return &CartService{store: store, logger: util.GetLogger()}
}

// AddToCartRequest represents a purchase of a connected shop's product
type AddToCartRequest struct {
	ProductUID uuid.UUID `json:"product_uid" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required"`
}

// CartView is a cart with its line items
type CartView struct {
	Cart  *models.Cart
	Items []models.LineItem
}

// AddToCart stages quantity units of a product for buyerShop. A product already
// in the cart has its quantity and net price replaced.
func (s *CartService) AddToCart(ctx context.Context, merchantID int64, buyerShop *models.Shop, req *AddToCartRequest) (*models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddToCart")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, apperr.FieldValidation(map[string]string{"quantity": "must be greater than 0"})
	}

	var item *models.CartItem
	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		product, err := s.purchasable(ctx, repo, buyerShop, req.ProductUID)
		if err != nil {
			return err
		}
		if req.Quantity > product.Quantity {
			return apperr.FieldValidation(map[string]string{
				"quantity": fmt.Sprintf("only %d available", product.Quantity),
			})
		}

		cart, err := lockOrCreateCart(ctx, repo, merchantID, buyerShop.ID)
		if err != nil {
			return err
		}

		netPrice := product.Price.Mul(decimal.NewFromInt(req.Quantity))
		item, err = repo.GetCartItem(ctx, cart.ID, product.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			item = &models.CartItem{
				UID:        uuid.New(),
				MerchantID: merchantID,
				ShopID:     buyerShop.ID,
				CartID:     cart.ID,
				ProductID:  product.ID,
				Quantity:   req.Quantity,
				NetPrice:   netPrice,
			}
			if err := repo.CreateCartItem(ctx, item); err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
		case err != nil:
			return err
		default:
			if err := repo.UpdateCartItem(ctx, item.ID, req.Quantity, netPrice); err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
			item.Quantity = req.Quantity
			item.NetPrice = netPrice
		}

		_, err = recomputeTotal(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	util.CartAdditionsTotal.Inc()
	s.logger.Debug("Cart item staged",
		zap.Int64("shop_id", buyerShop.ID),
		zap.String("product_uid", req.ProductUID.String()),
		zap.Int64("quantity", item.Quantity))
	return item, nil
}

// RemoveFromCart drops a product from the cart
func (s *CartService) RemoveFromCart(ctx context.Context, merchantID int64, buyerShop *models.Shop, productUID uuid.UUID) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveFromCart")
	defer span.End()

	var view *CartView
	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		cart, err := repo.GetCartForUpdate(ctx, merchantID, buyerShop.ID)
		if err != nil {
			return notFound(err, "no cart")
		}
		product, err := repo.GetProductByUID(ctx, productUID)
		if err != nil {
			return notFound(err, "product %s not found", productUID)
		}
		if err := repo.DeleteCartItem(ctx, cart.ID, product.ID); err != nil {
			return notFound(err, "product %s is not in the cart", productUID)
		}

		view, err = recomputeTotal(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ViewCart returns the cart of buyerShop with a freshly computed total
func (s *CartService) ViewCart(ctx context.Context, merchantID int64, buyerShop *models.Shop) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.ViewCart")
	defer span.End()

	var view *CartView
	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		cart, err := repo.GetCartForUpdate(ctx, merchantID, buyerShop.ID)
		if err != nil {
			return notFound(err, "no cart")
		}
		view, err = recomputeTotal(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ClearCart deletes the cart of buyerShop and its items
func (s *CartService) ClearCart(ctx context.Context, merchantID int64, buyerShop *models.Shop) error {
	ctx, span := util.StartSpan(ctx, "CartService.ClearCart")
	defer span.End()

	return s.store.RunInTx(ctx, func(repo store.Repository) error {
		return clearCart(ctx, repo, merchantID, buyerShop.ID)
	})
}

// purchasable loads a product that buyerShop has an approved connection to
func (s *CartService) purchasable(ctx context.Context, repo store.Repository, buyerShop *models.Shop, uid uuid.UUID) (*models.Product, error) {
	product, err := repo.GetProductByUID(ctx, uid)
	if err != nil {
		return nil, notFound(err, "product %s not found", uid)
	}
	connected, err := repo.IsConnected(ctx, buyerShop.ID, product.ShopID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, apperr.NotFound("product %s not found", uid)
	}
	return product, nil
}

func lockOrCreateCart(ctx context.Context, repo store.Repository, merchantID, shopID int64) (*models.Cart, error) {
	cart, err := repo.GetCartForUpdate(ctx, merchantID, shopID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// CreateCart is a no-op when a concurrent first add won the insert
	err = repo.CreateCart(ctx, &models.Cart{
		UID:        uuid.New(),
		MerchantID: merchantID,
		ShopID:     shopID,
		TotalPrice: decimal.Zero,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return repo.GetCartForUpdate(ctx, merchantID, shopID)
}

// recomputeTotal sets the cart total to the sum of its items as they are now
func recomputeTotal(ctx context.Context, repo store.Repository, cart *models.Cart) (*CartView, error) {
	total, err := repo.SumCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum cart items: %w", err)
	}
	if err := repo.UpdateCartTotal(ctx, cart.ID, total); err != nil {
		return nil, fmt.Errorf("failed to update cart total: %w", err)
	}
	cart.TotalPrice = total

	items, err := repo.ListCartLineItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return &CartView{Cart: cart, Items: items}, nil
}

func clearCart(ctx context.Context, repo store.Repository, merchantID, shopID int64) error {
	cart, err := repo.GetCartForUpdate(ctx, merchantID, shopID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := repo.DeleteCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
