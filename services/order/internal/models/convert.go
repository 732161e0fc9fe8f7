package models

import (
	"sort"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

func FromDomain(o *domain.Order) *Order {
	items := make([]OrderItem, 0, len(o.Items))
	for i, it := range o.Items {
		items = append(items, OrderItem{
			OrderID:   o.ID,
			Position:  i,
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}

	return &Order{
		ID:               o.ID,
		SessionID:        o.SessionID,
		Status:           string(o.Status),
		CustomerName:     o.CustomerName,
		Phone:            o.Phone,
		Address:          o.Address,
		DeliveryMethod:   string(o.DeliveryMethod),
		PaymentMethod:    string(o.PaymentMethod),
		Subtotal:         o.Subtotal,
		DeliveryFee:      o.DeliveryFee,
		Total:            o.Total,
		CreatedAt:        o.CreatedAt,
		EstimatedArrival: o.EstimatedArrival,
		Items:            items,
	}
}

func (m *Order) ToDomain() *domain.Order {
	rows := make([]OrderItem, len(m.Items))
	copy(rows, m.Items)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	items := make([]domain.OrderLineItem, 0, len(rows))
	for _, it := range rows {
		items = append(items, domain.OrderLineItem{
			ID:        it.ProductID,
			Name:      it.Name,
			UnitPrice: it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
		})
	}

	return &domain.Order{
		ID:               m.ID,
		SessionID:        m.SessionID,
		Items:            items,
		Subtotal:         m.Subtotal,
		DeliveryFee:      m.DeliveryFee,
		Total:            m.Total,
		Status:           domain.OrderStatus(m.Status),
		CustomerName:     m.CustomerName,
		Phone:            m.Phone,
		Address:          m.Address,
		DeliveryMethod:   domain.DeliveryMethod(m.DeliveryMethod),
		PaymentMethod:    domain.PaymentMethod(m.PaymentMethod),
		CreatedAt:        m.CreatedAt,
		EstimatedArrival: m.EstimatedArrival,
	}
}
