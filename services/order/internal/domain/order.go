package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCard
}

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReadyForPickup OrderStatus = "ready-for-pickup"
	StatusOutForDelivery OrderStatus = "out-for-delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusPickedUp       OrderStatus = "picked-up"
	StatusCancelled      OrderStatus = "cancelled"
)

var allStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReadyForPickup,
	StatusOutForDelivery,
	StatusDelivered,
	StatusPickedUp,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// OrderLineItem is a frozen copy of a cart line taken at submission time.
type OrderLineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (i OrderLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID               string          `json:"id"`
	SessionID        string          `json:"-"`
	Items            []OrderLineItem `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	Total            decimal.Decimal `json:"total"`
	Status           OrderStatus     `json:"status"`
	CustomerName     string          `json:"customer_name"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address,omitempty"`
	DeliveryMethod   DeliveryMethod  `json:"delivery_method"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	CreatedAt        time.Time       `json:"created_at"`
	EstimatedArrival time.Time       `json:"estimated_arrival"`
}

// Pricing holds the business rules applied when a cart becomes an order.
type Pricing struct {
	DeliveryFee decimal.Decimal
	DeliveryETA time.Duration
	PickupETA   time.Duration
}

func DefaultPricing() Pricing {
	return Pricing{
		DeliveryFee: decimal.NewFromInt(5),
		DeliveryETA: 45 * time.Minute,
		PickupETA:   20 * time.Minute,
	}
}

func (p Pricing) FeeFor(m DeliveryMethod) decimal.Decimal {
	if m == DeliveryMethodDelivery {
		return p.DeliveryFee
	}
	return decimal.Zero
}

func (p Pricing) ETAFor(m DeliveryMethod) time.Duration {
	if m == DeliveryMethodDelivery {
		return p.DeliveryETA
	}
	return p.PickupETA
}

// NewOrder snapshots the cart and prices it. The order has no id until the
// order backend assigns one.
func NewOrder(sessionID string, form CheckoutForm, cart *Cart, pricing Pricing, now time.Time) *Order {
	subtotal := cart.Total()
	fee := pricing.FeeFor(form.DeliveryMethod)

	address := ""
	if form.DeliveryMethod == DeliveryMethodDelivery {
		address = form.Address
	}

	return &Order{
		SessionID:        sessionID,
		Items:            cart.Snapshot(),
		Subtotal:         subtotal,
		DeliveryFee:      fee,
		Total:            subtotal.Add(fee),
		Status:           StatusPending,
		CustomerName:     form.CustomerName,
		Phone:            form.Phone,
		Address:          address,
		DeliveryMethod:   form.DeliveryMethod,
		PaymentMethod:    form.PaymentMethod,
		CreatedAt:        now,
		EstimatedArrival: now.Add(pricing.ETAFor(form.DeliveryMethod)),
	}
}
