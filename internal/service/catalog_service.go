package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"b2b-commerce/internal/apperr"
	"b2b-commerce/internal/models"
	"b2b-commerce/internal/slug"
	"b2b-commerce/internal/store"
	"b2b-commerce/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService handles categories, shops, activation and products
type CatalogService struct {
	store     Store
	publisher EventPublisher
	cache     CategoryCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store Store, publisher EventPublisher, cache CategoryCache, cacheTTL time.Duration) *CatalogService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &CatalogService{
		store:     store,
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

// CreateShopRequest represents a request to open a shop
type CreateShopRequest struct {
	Name        string `json:"name" binding:"required" validate:"required,max=100"`
	CategoryID  int64  `json:"category_id" binding:"required" validate:"required,gt=0"`
	Address     string `json:"address" binding:"required" validate:"required,max=500"`
	Description string `json:"description" binding:"required" validate:"required"`
}

// CreateProductRequest represents a request to list a product
type CreateProductRequest struct {
	Title    string          `json:"title" binding:"required" validate:"required,max=250"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity" validate:"gte=0"`
}

// ShopDetail is a shop with its owner and category
type ShopDetail struct {
	Shop     *models.Shop
	Merchant *models.Merchant
	Category *models.Category
}

// ListCategories serves the category list from cache when possible
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListCategories")
	defer span.End()

	cached, ok, err := s.cache.GetCategories(ctx)
	if err != nil {
		s.logger.Warn("Category cache read failed", zap.Error(err))
	}
	if ok {
		util.CategoryCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	util.CategoryCacheTotal.WithLabelValues("miss").Inc()

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if err := s.cache.SetCategories(ctx, categories, s.cacheTTL); err != nil {
		s.logger.Warn("Category cache write failed", zap.Error(err))
	}
	return categories, nil
}

// CreateCategory creates a category; only staff may do so
func (s *CatalogService) CreateCategory(ctx context.Context, isStaff bool, title string) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCategory")
	defer span.End()

	if !isStaff {
		return nil, apperr.Forbidden("only staff can create categories")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.FieldValidation(map[string]string{"title": "this field is required"})
	}
	if len(title) > 50 {
		return nil, apperr.FieldValidation(map[string]string{"title": "must be at most 50 characters"})
	}

	categorySlug, err := slug.Unique(title, func(c string) (bool, error) { return s.store.CategorySlugExists(ctx, c) })
	if err != nil {
		return nil, err
	}

	category := &models.Category{UID: uuid.New(), Title: title, Slug: categorySlug}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("category %q already exists", title).Wrap(err)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	if err := s.cache.InvalidateCategories(ctx); err != nil {
		s.logger.Warn("Category cache invalidation failed", zap.Error(err))
	}
	return category, nil
}

// ListShops retrieves every shop
func (s *CatalogService) ListShops(ctx context.Context) ([]models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListShops")
	defer span.End()

	return s.store.ListShops(ctx)
}

// ListMyShops retrieves the caller's shops
func (s *CatalogService) ListMyShops(ctx context.Context, merchantID int64) ([]models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListMyShops")
	defer span.End()

	return s.store.ListShopsByMerchant(ctx, merchantID)
}

// GetActiveShop retrieves the caller's current shop
func (s *CatalogService) GetActiveShop(ctx context.Context, merchantID int64) (*models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetActiveShop")
	defer span.End()

	shop, err := s.store.GetActiveShop(ctx, merchantID)
	if err != nil {
		return nil, notFound(err, "no active shop")
	}
	return shop, nil
}

// CreateShop opens a shop and makes it the merchant's active one
func (s *CatalogService) CreateShop(ctx context.Context, merchantID int64, req *CreateShopRequest) (*models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateShop")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Description = strings.TrimSpace(req.Description)
	if err := apperr.ValidateStruct(req); err != nil {
		return nil, err
	}

	var shop *models.Shop
	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		if _, err := repo.GetCategoryByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.FieldValidation(map[string]string{"category_id": "unknown category"})
			}
			return err
		}

		shopSlug, err := slug.Unique(req.Name, func(c string) (bool, error) { return repo.ShopSlugExists(ctx, c) })
		if err != nil {
			return err
		}

		shop = &models.Shop{
			UID:         uuid.New(),
			Name:        req.Name,
			Slug:        shopSlug,
			MerchantID:  merchantID,
			CategoryID:  req.CategoryID,
			Address:     req.Address,
			Description: req.Description,
		}
		if err := repo.CreateShop(ctx, shop); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("shop with this name already exists").Wrap(err)
			}
			return fmt.Errorf("failed to create shop: %w", err)
		}

		if err := activate(ctx, repo, merchantID, shop.ID); err != nil {
			return err
		}
		shop.Active = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.ShopsCreatedTotal.Inc()
	s.logger.Info("Shop created", zap.Int64("shop_id", shop.ID), zap.String("slug", shop.Slug))

	event := &models.ShopCreatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeShopCreated),
		ShopID:    shop.ID,
		ShopName:  shop.Name,
	}
	if err := s.publisher.PublishShopCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ShopCreated event", zap.Error(err))
	}

	return shop, nil
}

// ResolveShop loads the shop behind slug and checks the caller owns it
func (s *CatalogService) ResolveShop(ctx context.Context, merchantID int64, shopSlug string) (*models.Shop, error) {
	shop, err := s.store.GetShopBySlug(ctx, shopSlug)
	if err != nil {
		return nil, notFound(err, "shop %q not found", shopSlug)
	}
	if shop.MerchantID != merchantID {
		return nil, apperr.Forbidden("you do not own this shop")
	}
	return shop, nil
}

// ActivateShop makes shop the only active shop of its merchant
func (s *CatalogService) ActivateShop(ctx context.Context, shop *models.Shop) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.ActivateShop")
	defer span.End()

	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		return activate(ctx, repo, shop.MerchantID, shop.ID)
	})
	if err != nil {
		return err
	}
	shop.Active = true
	return nil
}

// activate locks the merchant row so concurrent activations serialize
func activate(ctx context.Context, repo store.Repository, merchantID, shopID int64) error {
	if err := repo.LockMerchant(ctx, merchantID); err != nil {
		return notFound(err, "merchant not found")
	}
	if err := repo.ActivateShop(ctx, merchantID, shopID); err != nil {
		return fmt.Errorf("failed to activate shop: %w", err)
	}
	return nil
}

// GetShopDetail returns the shop with owner and category; viewing a shop activates it
func (s *CatalogService) GetShopDetail(ctx context.Context, shop *models.Shop) (*ShopDetail, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetShopDetail")
	defer span.End()

	if err := s.ActivateShop(ctx, shop); err != nil {
		return nil, err
	}

	merchant, err := s.store.GetMerchantByID(ctx, shop.MerchantID)
	if err != nil {
		return nil, notFound(err, "merchant not found")
	}
	category, err := s.store.GetCategoryByID(ctx, shop.CategoryID)
	if err != nil {
		return nil, notFound(err, "category not found")
	}
	return &ShopDetail{Shop: shop, Merchant: merchant, Category: category}, nil
}

// ListMyProducts retrieves the products shop sells
func (s *CatalogService) ListMyProducts(ctx context.Context, shop *models.Shop) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListMyProducts")
	defer span.End()

	return s.store.ListProductsByShop(ctx, shop.ID)
}

// CreateProduct lists a product in shop and activates the shop
func (s *CatalogService) CreateProduct(ctx context.Context, shop *models.Shop, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	req.Title = strings.TrimSpace(req.Title)
	if err := apperr.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperr.FieldValidation(map[string]string{"price": "must be greater than or equal to 0"})
	}

	product := &models.Product{
		UID:      uuid.New(),
		Title:    req.Title,
		Slug:     slug.Make(req.Title),
		Price:    req.Price.Round(2),
		Quantity: req.Quantity,
		ShopID:   shop.ID,
	}

	err := s.store.RunInTx(ctx, func(repo store.Repository) error {
		if err := repo.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return activate(ctx, repo, shop.MerchantID, shop.ID)
	})
	if err != nil {
		return nil, err
	}
	shop.Active = true

	s.logger.Info("Product created", zap.Int64("shop_id", shop.ID), zap.String("product_uid", product.UID.String()))
	return product, nil
}

// ListSameCategoryShops retrieves every shop in shop's category, shop included
func (s *CatalogService) ListSameCategoryShops(ctx context.Context, shop *models.Shop) ([]models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListSameCategoryShops")
	defer span.End()

	return s.store.ListShopsByCategory(ctx, shop.CategoryID)
}

// ListConnectedShops retrieves the shops shop may buy from
func (s *CatalogService) ListConnectedShops(ctx context.Context, shop *models.Shop) ([]models.Shop, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListConnectedShops")
	defer span.End()

	return s.store.ListConnectedShops(ctx, shop.ID)
}

// ListPurchasableProducts retrieves the products of every connected shop
func (s *CatalogService) ListPurchasableProducts(ctx context.Context, shop *models.Shop) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListPurchasableProducts")
	defer span.End()

	return s.store.ListProductsOfConnectedShops(ctx, shop.ID)
}
