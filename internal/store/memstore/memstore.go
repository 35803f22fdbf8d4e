// Package memstore is an in-memory store.Repository used by the memory
// driver and by service and handler tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"b2b-commerce/internal/models"
	"b2b-commerce/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type tables struct {
	merchants   map[int64]models.Merchant
	categories  map[int64]models.Category
	shops       map[int64]models.Shop
	connections map[int64]models.ShopConnection
	products    map[int64]models.Product
	carts       map[int64]models.Cart
	cartItems   map[int64]models.CartItem
	orders      map[int64]models.Order
	orderItems  map[int64]models.OrderItem
	activity    map[int64]models.ShopActivity
	processed   map[string]models.ProcessedEvent
	seq         int64
}

func newTables() tables {
	return tables{
		merchants:   map[int64]models.Merchant{},
		categories:  map[int64]models.Category{},
		shops:       map[int64]models.Shop{},
		connections: map[int64]models.ShopConnection{},
		products:    map[int64]models.Product{},
		carts:       map[int64]models.Cart{},
		cartItems:   map[int64]models.CartItem{},
		orders:      map[int64]models.Order{},
		orderItems:  map[int64]models.OrderItem{},
		activity:    map[int64]models.ShopActivity{},
		processed:   map[string]models.ProcessedEvent{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t tables) clone() tables {
	return tables{
		merchants:   cloneMap(t.merchants),
		categories:  cloneMap(t.categories),
		shops:       cloneMap(t.shops),
		connections: cloneMap(t.connections),
		products:    cloneMap(t.products),
		carts:       cloneMap(t.carts),
		cartItems:   cloneMap(t.cartItems),
		orders:      cloneMap(t.orders),
		orderItems:  cloneMap(t.orderItems),
		activity:    cloneMap(t.activity),
		processed:   cloneMap(t.processed),
		seq:         t.seq,
	}
}

// Store keeps every table in maps guarded by one mutex.
// Transactions are serialized and restore a snapshot on error; writes made
// outside a transaction wait for the running one.
type Store struct {
	*engine
	inTx bool
}

type engine struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	t    tables
	now  func() time.Time
}

var _ store.Repository = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{engine: &engine{t: newTables(), now: time.Now}}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *Store) Close() error { return nil }

// RunInTx runs fn against the store; any error from fn discards its writes
func (s *Store) RunInTx(ctx context.Context, fn func(repo store.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.t.clone()
	s.mu.RUnlock()

	if err := fn(&Store{engine: s.engine, inTx: true}); err != nil {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// write serializes a mutation made outside RunInTx with running transactions
func (s *Store) write() func() {
	if s.inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (s *Store) nextID() int64 {
	s.t.seq++
	return s.t.seq
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", store.ErrDuplicate, constraint)
}

func sortedByID[V any](m map[int64]V, keep func(V) bool) []V {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func reverse[V any](s []V) []V {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// Merchants

func (s *Store) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.merchants {
		if existing.Email == m.Email {
			return duplicate("merchants_email_key")
		}
	}
	m.ID = s.nextID()
	m.CreatedAt, m.UpdatedAt = s.now(), s.now()
	s.t.merchants[m.ID] = *m
	return nil
}

func (s *Store) GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.t.merchants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *Store) GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.t.merchants {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.merchants, func(models.Merchant) bool { return true }), nil
}

// LockMerchant only checks existence; RunInTx already serializes writers
func (s *Store) LockMerchant(ctx context.Context, id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.t.merchants[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.categories {
		if existing.Slug == c.Slug {
			return duplicate("categories_slug_key")
		}
	}
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.t.categories[c.ID] = *c
	return nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.t.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := sortedByID(s.t.categories, func(models.Category) bool { return true })
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Title < categories[j].Title })
	return categories, nil
}

func (s *Store) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.t.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// Shops

func (s *Store) CreateShop(ctx context.Context, shop *models.Shop) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.shops {
		if existing.Name == shop.Name {
			return duplicate("shops_name_key")
		}
		if existing.Slug == shop.Slug {
			return duplicate("shops_slug_key")
		}
	}
	shop.ID = s.nextID()
	shop.CreatedAt, shop.UpdatedAt = s.now(), s.now()
	s.t.shops[shop.ID] = *shop
	return nil
}

func (s *Store) GetShopByID(ctx context.Context, id int64) (*models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shop, ok := s.t.shops[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &shop, nil
}

func (s *Store) GetShopBySlug(ctx context.Context, slug string) (*models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, shop := range s.t.shops {
		if shop.Slug == slug {
			return &shop, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ShopSlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.GetShopBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) ListShops(ctx context.Context) ([]models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.shops, func(models.Shop) bool { return true }), nil
}

func (s *Store) ListShopsByMerchant(ctx context.Context, merchantID int64) ([]models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.shops, func(sh models.Shop) bool { return sh.MerchantID == merchantID }), nil
}

func (s *Store) ListShopsByCategory(ctx context.Context, categoryID int64) ([]models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.shops, func(sh models.Shop) bool { return sh.CategoryID == categoryID }), nil
}

func (s *Store) GetActiveShop(ctx context.Context, merchantID int64) (*models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, shop := range s.t.shops {
		if shop.MerchantID == merchantID && shop.Active {
			return &shop, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ActivateShop(ctx context.Context, merchantID, shopID int64) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := false
	for id, shop := range s.t.shops {
		if shop.MerchantID != merchantID {
			continue
		}
		shop.Active = id == shopID
		shop.UpdatedAt = s.now()
		s.t.shops[id] = shop
		touched = true
	}
	if !touched {
		return store.ErrNotFound
	}
	return nil
}

// Connections

func (s *Store) CreateConnection(ctx context.Context, c *models.ShopConnection) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.connections {
		if existing.SenderShopID == c.SenderShopID && existing.ReceiverShopID == c.ReceiverShopID {
			return duplicate("shop_connections_sender_shop_id_receiver_shop_id_key")
		}
	}
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.t.connections[c.ID] = *c
	return nil
}

func (s *Store) GetConnectionByUID(ctx context.Context, uid uuid.UUID) (*models.ShopConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.t.connections {
		if c.UID == uid {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetConnectionForUpdate(ctx context.Context, uid uuid.UUID) (*models.ShopConnection, error) {
	return s.GetConnectionByUID(ctx, uid)
}

func (s *Store) FindConnection(ctx context.Context, senderID, receiverID int64) (*models.ShopConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := sortedByID(s.t.connections, func(c models.ShopConnection) bool {
		return c.SenderShopID == senderID && c.ReceiverShopID == receiverID
	})
	if len(matches) == 0 {
		return nil, store.ErrNotFound
	}
	return &matches[0], nil
}

func (s *Store) ListConnectionsBySender(ctx context.Context, shopID int64) ([]models.ShopConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reverse(sortedByID(s.t.connections, func(c models.ShopConnection) bool { return c.SenderShopID == shopID })), nil
}

func (s *Store) ListConnectionsByReceiver(ctx context.Context, shopID int64) ([]models.ShopConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reverse(sortedByID(s.t.connections, func(c models.ShopConnection) bool { return c.ReceiverShopID == shopID })), nil
}

func (s *Store) UpdateConnectionStatus(ctx context.Context, id int64, status string) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.t.connections[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = s.now()
	s.t.connections[id] = c
	return nil
}

func (s *Store) DeleteConnection(ctx context.Context, id int64) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.t.connections[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.t.connections, id)
	return nil
}

func (s *Store) isConnected(senderID, receiverID int64) bool {
	for _, c := range s.t.connections {
		if c.SenderShopID == senderID && c.ReceiverShopID == receiverID && c.Status == models.ConnectionStatusApproved {
			return true
		}
	}
	return false
}

func (s *Store) IsConnected(ctx context.Context, senderID, receiverID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected(senderID, receiverID), nil
}

func (s *Store) ListConnectedShops(ctx context.Context, shopID int64) ([]models.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.shops, func(sh models.Shop) bool { return s.isConnected(shopID, sh.ID) }), nil
}

// Products

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID()
	p.CreatedAt, p.UpdatedAt = s.now(), s.now()
	s.t.products[p.ID] = *p
	return nil
}

func (s *Store) GetProductByUID(ctx context.Context, uid uuid.UUID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.t.products {
		if p.UID == uid {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListProductsByShop(ctx context.Context, shopID int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.products, func(p models.Product) bool { return p.ShopID == shopID }), nil
}

func (s *Store) ListProductsOfConnectedShops(ctx context.Context, shopID int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.products, func(p models.Product) bool { return s.isConnected(shopID, p.ShopID) }), nil
}

// Carts

func (s *Store) GetCart(ctx context.Context, merchantID, shopID int64) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.t.carts {
		if c.MerchantID == merchantID && c.ShopID == shopID {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetCartForUpdate(ctx context.Context, merchantID, shopID int64) (*models.Cart, error) {
	return s.GetCart(ctx, merchantID, shopID)
}

// CreateCart leaves an existing cart of (merchant, shop) in place
func (s *Store) CreateCart(ctx context.Context, c *models.Cart) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.carts {
		if existing.MerchantID == c.MerchantID && existing.ShopID == c.ShopID {
			return nil
		}
	}
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = s.now(), s.now()
	s.t.carts[c.ID] = *c
	return nil
}

func (s *Store) UpdateCartTotal(ctx context.Context, cartID int64, total decimal.Decimal) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.t.carts[cartID]
	if !ok {
		return store.ErrNotFound
	}
	c.TotalPrice = total
	c.UpdatedAt = s.now()
	s.t.carts[cartID] = c
	return nil
}

func (s *Store) DeleteCart(ctx context.Context, cartID int64) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.t.carts[cartID]; !ok {
		return store.ErrNotFound
	}
	delete(s.t.carts, cartID)
	for id, item := range s.t.cartItems {
		if item.CartID == cartID {
			delete(s.t.cartItems, id)
		}
	}
	return nil
}

func (s *Store) GetCartItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.t.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			return &item, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.cartItems {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			return duplicate("cart_items_cart_id_product_id_key")
		}
	}
	item.ID = s.nextID()
	item.CreatedAt, item.UpdatedAt = s.now(), s.now()
	s.t.cartItems[item.ID] = *item
	return nil
}

func (s *Store) UpdateCartItem(ctx context.Context, id int64, quantity int64, netPrice decimal.Decimal) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.t.cartItems[id]
	if !ok {
		return store.ErrNotFound
	}
	item.Quantity = quantity
	item.NetPrice = netPrice
	item.UpdatedAt = s.now()
	s.t.cartItems[id] = item
	return nil
}

func (s *Store) DeleteCartItem(ctx context.Context, cartID, productID int64) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.t.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			delete(s.t.cartItems, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.t.cartItems, func(i models.CartItem) bool { return i.CartID == cartID }), nil
}

func (s *Store) lineItem(productID, quantity int64, netPrice decimal.Decimal) models.LineItem {
	p := s.t.products[productID]
	return models.LineItem{
		ProductID:    productID,
		ProductUID:   p.UID,
		ProductTitle: p.Title,
		SellerShopID: p.ShopID,
		SellerShop:   s.t.shops[p.ShopID].Name,
		Quantity:     quantity,
		NetPrice:     netPrice,
	}
}

func (s *Store) ListCartLineItems(ctx context.Context, cartID int64) ([]models.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := sortedByID(s.t.cartItems, func(i models.CartItem) bool { return i.CartID == cartID })
	lines := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, s.lineItem(item.ProductID, item.Quantity, item.NetPrice))
	}
	return lines, nil
}

func (s *Store) SumCartItems(ctx context.Context, cartID int64) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, item := range s.t.cartItems {
		if item.CartID == cartID {
			total = total.Add(item.NetPrice)
		}
	}
	return total, nil
}

// Orders

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.IdempotencyKey != nil {
		for _, existing := range s.t.orders {
			if existing.MerchantID == o.MerchantID && existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *o.IdempotencyKey {
				return duplicate("orders_merchant_id_idempotency_key_key")
			}
		}
	}
	o.ID = s.nextID()
	o.CreatedAt, o.UpdatedAt = s.now(), s.now()
	s.t.orders[o.ID] = *o
	return nil
}

func (s *Store) GetOrderByUID(ctx context.Context, uid uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.t.orders {
		if o.UID == uid {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, merchantID int64, key string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.t.orders {
		if o.MerchantID == merchantID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListOrdersByShop(ctx context.Context, shopID int64) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reverse(sortedByID(s.t.orders, func(o models.Order) bool { return o.ShopID == shopID })), nil
}

func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.nextID()
	item.CreatedAt, item.UpdatedAt = s.now(), s.now()
	s.t.orderItems[item.ID] = *item
	return nil
}

func (s *Store) ListOrderLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := sortedByID(s.t.orderItems, func(i models.OrderItem) bool { return i.OrderID == orderID })
	lines := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, s.lineItem(item.ProductID, item.Quantity, item.NetPrice))
	}
	return lines, nil
}

// Activity

func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.t.processed[eventID]
	return ok, nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.t.processed[eventID]; !ok {
		s.t.processed[eventID] = models.ProcessedEvent{EventID: eventID, EventType: eventType, ProcessedAt: s.now()}
	}
	return nil
}

func (s *Store) CreateActivity(ctx context.Context, a *models.ShopActivity) error {
	defer s.write()()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.t.activity {
		if existing.ShopID == a.ShopID && existing.EventID == a.EventID {
			return nil
		}
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	s.t.activity[a.ID] = *a
	return nil
}

func (s *Store) ListActivity(ctx context.Context, shopID int64, limit int) ([]models.ShopActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := reverse(sortedByID(s.t.activity, func(a models.ShopActivity) bool { return a.ShopID == shopID }))
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OccurredAt.After(rows[j].OccurredAt) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
