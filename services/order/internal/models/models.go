package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                      json:"-"`
	OrderID   string          `gorm:"index;not null;size:64"          json:"order_id"`
	Position  int             `gorm:"not null"                        json:"-"`
	ProductID string          `gorm:"not null;size:64"                json:"product_id"`
	Name      string          `gorm:"not null"                        json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"     json:"price"`
	Image     string          `                                       json:"image,omitempty"`
	Quantity  int             `gorm:"not null;check:quantity > 0"     json:"quantity"`
}

type Order struct {
	ID               string          `gorm:"primaryKey;size:64"               json:"id"`
	SessionID        string          `gorm:"index;not null;size:64"           json:"session_id"`
	Status           string          `gorm:"index;not null;size:32"           json:"status"`
	CustomerName     string          `gorm:"not null;size:255"                json:"customer_name"`
	Phone            string          `gorm:"not null;size:20"                 json:"phone"`
	Address          string          `                                        json:"address,omitempty"`
	DeliveryMethod   string          `gorm:"not null;size:16"                 json:"delivery_method"`
	PaymentMethod    string          `gorm:"not null;size:16"                 json:"payment_method"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"subtotal"`
	DeliveryFee      decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"delivery_fee"`
	Total            decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"total"`
	CreatedAt        time.Time       `gorm:"index;not null"                   json:"created_at"`
	UpdatedAt        time.Time       `                                        json:"updated_at"`
	EstimatedArrival time.Time       `gorm:"not null"                         json:"estimated_arrival"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// ActiveOrder points a session at the order its tracking view follows.
type ActiveOrder struct {
	SessionID string    `gorm:"primaryKey;size:64"`
	OrderID   string    `gorm:"not null;size:64"`
	UpdatedAt time.Time
}
