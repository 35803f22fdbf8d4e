package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Merchant is an authenticated account that owns shops
type Merchant struct {
	ID           int64     `db:"id" json:"-"`
	UID          uuid.UUID `db:"uid" json:"uid"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	DOB          time.Time `db:"dob" json:"-"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Category groups shops for connection eligibility
type Category struct {
	ID        int64     `db:"id" json:"id"`
	UID       uuid.UUID `db:"uid" json:"uid"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Shop is owned by exactly one merchant and belongs to one category
type Shop struct {
	ID          int64     `db:"id" json:"id"`
	UID         uuid.UUID `db:"uid" json:"uid"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	MerchantID  int64     `db:"merchant_id" json:"-"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	Address     string    `db:"address" json:"address"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ShopConnection is a directed edge: the sender asks to purchase from the receiver
type ShopConnection struct {
	ID             int64     `db:"id" json:"-"`
	UID            uuid.UUID `db:"uid" json:"uid"`
	SenderShopID   int64     `db:"sender_shop_id" json:"sender_shop_id"`
	ReceiverShopID int64     `db:"receiver_shop_id" json:"receiver_shop_id"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Product is sold by a shop
type Product struct {
	ID        int64           `db:"id" json:"-"`
	UID       uuid.UUID       `db:"uid" json:"uid"`
	Title     string          `db:"title" json:"title"`
	Slug      string          `db:"slug" json:"slug"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	ShopID    int64           `db:"shop_id" json:"-"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Cart stages purchases of one merchant acting as one buyer shop
type Cart struct {
	ID         int64           `db:"id" json:"-"`
	UID        uuid.UUID       `db:"uid" json:"uid"`
	MerchantID int64           `db:"merchant_id" json:"-"`
	ShopID     int64           `db:"shop_id" json:"-"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// CartItem is a staged purchase line
type CartItem struct {
	ID         int64           `db:"id" json:"-"`
	UID        uuid.UUID       `db:"uid" json:"uid"`
	MerchantID int64           `db:"merchant_id" json:"-"`
	ShopID     int64           `db:"shop_id" json:"-"`
	CartID     int64           `db:"cart_id" json:"-"`
	ProductID  int64           `db:"product_id" json:"-"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	NetPrice   decimal.Decimal `db:"net_price" json:"net_price"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Order is the immutable record of a checkout
type Order struct {
	ID              int64           `db:"id" json:"-"`
	UID             uuid.UUID       `db:"uid" json:"uid"`
	MerchantID      int64           `db:"merchant_id" json:"-"`
	ShopID          int64           `db:"shop_id" json:"-"`
	DeliveryAddress string          `db:"delivery_address" json:"delivery_address"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"total_price"`
	IdempotencyKey  *string         `db:"idempotency_key" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is the permanent snapshot of a cart item
type OrderItem struct {
	ID         int64           `db:"id" json:"-"`
	UID        uuid.UUID       `db:"uid" json:"uid"`
	MerchantID int64           `db:"merchant_id" json:"-"`
	ShopID     int64           `db:"shop_id" json:"-"`
	OrderID    int64           `db:"order_id" json:"-"`
	ProductID  int64           `db:"product_id" json:"-"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	NetPrice   decimal.Decimal `db:"net_price" json:"net_price"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// LineItem is a cart or order item joined with its product and seller shop
type LineItem struct {
	ProductID    int64           `db:"product_id" json:"-"`
	ProductUID   uuid.UUID       `db:"product_uid" json:"product_uid"`
	ProductTitle string          `db:"product_title" json:"product"`
	SellerShopID int64           `db:"seller_shop_id" json:"-"`
	SellerShop   string          `db:"seller_shop" json:"seller_shop"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	NetPrice     decimal.Decimal `db:"net_price" json:"net_price"`
}

// ShopActivity is one projected domain event in a shop's activity log
type ShopActivity struct {
	ID         int64     `db:"id" json:"-"`
	ShopID     int64     `db:"shop_id" json:"-"`
	EventID    string    `db:"event_id" json:"event_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	Summary    string    `db:"summary" json:"summary"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

// Connection statuses. Declined connections are deleted, never stored.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusApproved = "approved"
	ConnectionStatusDeclined = "declined"
)

// Payment methods accepted at checkout
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentBankTransfer   = "bank_transfer"
	PaymentCard           = "card"
)

// ValidPaymentMethod reports whether m is an accepted payment method
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCashOnDelivery, PaymentBankTransfer, PaymentCard:
		return true
	}
	return false
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
