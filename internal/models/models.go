package models

import (
	"encoding/json"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type Product struct {
	ID            uint     `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name          string   `gorm:"not null"                   json:"name"`
	Description   string   `json:"description"`
	Price         float64  `gorm:"not null"                   json:"price"`
	PromoPrice    *float64 `json:"promo_price"`
	PowerWatts    int      `json:"power_watts"`
	Efficiency    float64  `json:"efficiency"`
	WarrantyYears int      `json:"warranty_years"`
	Stock         int      `gorm:"default:0"                  json:"stock"`
	LowStockAt    int      `gorm:"default:5"                  json:"low_stock_at"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Specs         string   `json:"specs"`
	Active        bool     `gorm:"default:true"               json:"active"`
	Featured      bool     `gorm:"default:false"              json:"featured"`
	Sales         int      `gorm:"default:0"                  json:"sales"`
	CreatedAt     time.Time `json:"created_at"`
}

// EffectivePrice is the promotional price when one is set, else the base price.
func (p *Product) EffectivePrice() float64 {
	if p.PromoPrice != nil {
		return *p.PromoPrice
	}
	return p.Price
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Phone        string    `json:"phone"`
	TaxID        string    `json:"tax_id"`
	Street       string    `json:"street"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Role         string    `gorm:"not null;default:customer" json:"role"`
	Active       bool      `gorm:"default:true"             json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
}

const (
	CartStatusActive    = "active"
	CartStatusConverted = "converted"
)

// CartLine is one snapshot entry of a stored cart. The unit price here is
// only a client-side display hint; checkout recomputes prices from the
// catalog and never trusts it.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type Cart struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	UserID    uint      `gorm:"index;not null"        json:"user_id"`
	ItemsJSON string    `gorm:"not null"              json:"-"`
	Total     float64   `gorm:"default:0"             json:"total"`
	Status    string    `gorm:"not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Lines() []CartLine {
	var lines []CartLine
	if c.ItemsJSON == "" {
		return lines
	}
	_ = json.Unmarshal([]byte(c.ItemsJSON), &lines)
	return lines
}

const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"

	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusPaid            = "paid"
	OrderStatusShipped         = "shipped"
	OrderStatusDelivered       = "delivered"
	OrderStatusCancelled       = "cancelled"
	OrderStatusFailed          = "failed"
)

// OrderLine is a validated, self-contained order item. Later product edits
// never alter it.
type OrderLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type Order struct {
	ID            uint       `gorm:"primaryKey"      json:"id"`
	UserID        uint       `gorm:"index;not null"  json:"user_id"`
	CustomerName  string     `gorm:"not null"        json:"customer_name"`
	Email         string     `gorm:"not null"        json:"email"`
	Phone         string     `json:"phone"`
	TaxID         string     `json:"tax_id"`
	Street        string     `gorm:"not null"        json:"street"`
	City          string     `gorm:"not null"        json:"city"`
	State         string     `gorm:"not null"        json:"state"`
	PostalCode    string     `gorm:"not null"        json:"postal_code"`
	ItemsJSON     string     `gorm:"not null"        json:"-"`
	Subtotal      float64    `gorm:"not null"        json:"subtotal"`
	Discount      float64    `gorm:"default:0"       json:"discount"`
	Total         float64    `gorm:"not null"        json:"total"`
	CouponCode    *string    `json:"coupon_code"`
	PaymentStatus string     `gorm:"not null;default:pending"           json:"payment_status"`
	Status        string     `gorm:"not null;default:awaiting_payment"  json:"status"`
	PaymentRef    string     `json:"payment_ref"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at"`
	ShippedAt     *time.Time `json:"shipped_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
}

func (o *Order) Lines() []OrderLine {
	var lines []OrderLine
	if o.ItemsJSON == "" {
		return lines
	}
	_ = json.Unmarshal([]byte(o.ItemsJSON), &lines)
	return lines
}

const (
	CouponKindPercent = "percent"
	CouponKindFixed   = "fixed"
)

type Coupon struct {
	ID          uint       `gorm:"primaryKey"      json:"id"`
	Code        string     `gorm:"unique;not null" json:"code"`
	Description string     `json:"description"`
	Kind        string     `gorm:"not null;default:percent" json:"kind"`
	Value       float64    `gorm:"not null"        json:"value"`
	MinOrder    float64    `gorm:"default:0"       json:"min_order"`
	UsageLimit  *int       `json:"usage_limit"`
	UsedCount   int        `gorm:"default:0"       json:"used_count"`
	Active      bool       `gorm:"default:true"    json:"active"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

const (
	SettingKindText    = "text"
	SettingKindNumber  = "number"
	SettingKindBoolean = "boolean"
	SettingKindSecret  = "secret"
)

type Setting struct {
	ID          uint      `gorm:"primaryKey"      json:"id"`
	Key         string    `gorm:"unique;not null" json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	Kind        string    `gorm:"default:text"    json:"kind"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null"   json:"name"`
	Email     string    `gorm:"not null"   json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `gorm:"not null"   json:"message"`
	Answered  bool      `gorm:"default:false" json:"answered"`
	CreatedAt time.Time `json:"created_at"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                                  json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product"       json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminLog struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Action    string    `gorm:"not null"       json:"action"`
	Details   string    `json:"details"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}
