package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

type createOrderItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

type createOrderRequest struct {
	CustomerName     string            `json:"customer_name"`
	Phone            string            `json:"phone"`
	Address          *string           `json:"address"`
	DeliveryMethod   string            `json:"delivery_method"`
	PaymentMethod    string            `json:"payment_method"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	DeliveryFee      decimal.Decimal   `json:"delivery_fee"`
	Total            decimal.Decimal   `json:"total"`
	EstimatedArrival time.Time         `json:"estimated_arrival"`
	Items            []createOrderItem `json:"items"`
}

type createOrderResponse struct {
	ID json.RawMessage `json:"id"`
}

// OrderClient registers orders with the order backend, which assigns their ids.
type OrderClient struct {
	*Client
}

func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{Client: NewClient(baseURL)}
}

func (c *OrderClient) CreateOrder(ctx context.Context, o *domain.Order) (string, error) {
	const op = "create order"

	req := createOrderRequest{
		CustomerName:     o.CustomerName,
		Phone:            o.Phone,
		DeliveryMethod:   string(o.DeliveryMethod),
		PaymentMethod:    string(o.PaymentMethod),
		Subtotal:         o.Subtotal,
		DeliveryFee:      o.DeliveryFee,
		Total:            o.Total,
		EstimatedArrival: o.EstimatedArrival.UTC(),
		Items:            make([]createOrderItem, 0, len(o.Items)),
	}
	if o.Address != "" {
		addr := o.Address
		req.Address = &addr
	}
	for _, it := range o.Items {
		req.Items = append(req.Items, createOrderItem{
			Name:     it.Name,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}

	var resp createOrderResponse
	status, raw, err := c.postJSON(ctx, op, "/orders/", req, &resp)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", &RemoteError{Op: op, Status: status, Message: errorMessage(raw)}
	}

	id, err := parseID(resp.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// parseID accepts numeric and string ids.
func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("response has no order id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("response has an empty order id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("unexpected order id %s", raw)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return "", fmt.Errorf("unexpected order id %s", raw)
	}
	return n.String(), nil
}
