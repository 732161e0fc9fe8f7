package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

type AddItemRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
}

func (r AddItemRequest) Item() domain.CartLineItem {
	return domain.CartLineItem{ID: r.ID, Name: r.Name, UnitPrice: r.UnitPrice, Image: r.Image}
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type CartResponse struct {
	Items []domain.CartLineItem `json:"items"`
	Total decimal.Decimal       `json:"total"`
	Count int                   `json:"count"`
}

func NewCartResponse(c *domain.Cart) CartResponse {
	return CartResponse{Items: c.Items(), Total: c.Total(), Count: c.Count()}
}

type CheckoutResponse struct {
	Step        domain.Step         `json:"step"`
	Form        domain.CheckoutForm `json:"form"`
	CanAdvance  bool                `json:"can_advance"`
	Submittable bool                `json:"submittable"`
	Fields      map[string]string   `json:"fields,omitempty"`
}

// NewCheckoutResponse reports the current step's outstanding field errors so
// the client can gate its "next" control without a round trip.
func NewCheckoutResponse(c *domain.Checkout) CheckoutResponse {
	res := CheckoutResponse{
		Step:        c.Step(),
		Form:        c.Form(),
		CanAdvance:  true,
		Submittable: c.Submittable(),
	}
	if verr := c.Validate(c.Step()); verr != nil {
		res.CanAdvance = false
		res.Fields = verr.Fields
	}
	return res
}

type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type ErrorResponse struct {
	Error         string            `json:"error"`
	Fields        map[string]string `json:"fields,omitempty"`
	Kind          string            `json:"kind,omitempty"`
	Retry         bool              `json:"retry,omitempty"`
	Paid          bool              `json:"paid,omitempty"`
	TimedOut      bool              `json:"timed_out,omitempty"`
	RemoteOrderID string            `json:"remote_order_id,omitempty"`
}
