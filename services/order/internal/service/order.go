package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/restaurant/pkg/events"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/repo"
)

type OrderService struct {
	Orders OrderStore
	Events events.Publisher
	Now    func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func mapRepoErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

// Owned returns the order only when it belongs to the session.
func (s *OrderService) Owned(ctx context.Context, sessionID, id string) (*domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SessionID != sessionID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return o, nil
}

func (s *OrderService) Active(ctx context.Context, sessionID string) (*domain.Order, error) {
	o, err := s.Orders.ActiveOrder(ctx, sessionID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return o, nil
}

func (s *OrderService) SetActive(ctx context.Context, sessionID, id string) error {
	if _, err := s.Owned(ctx, sessionID, id); err != nil {
		return err
	}
	return mapRepoErr(s.Orders.SetActive(ctx, sessionID, id))
}

type Tracking struct {
	Order        *domain.Order        `json:"order"`
	Stages       []domain.Stage       `json:"stages"`
	Progress     float64              `json:"progress"`
	Terminal     bool                 `json:"terminal"`
	NextStatuses []domain.OrderStatus `json:"next_statuses,omitempty"`
}

func NewTracking(o *domain.Order) Tracking {
	return Tracking{
		Order:    o,
		Stages:   domain.Stages(o),
		Progress: domain.Progress(o),
		Terminal: domain.IsTerminal(o.Status),
	}
}

// UpdateStatus is the admin transition. Every status change goes through
// CanTransition before it reaches the store.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, target domain.OrderStatus, actor string) (*domain.Order, error) {
	if !target.Valid() {
		return nil, &domain.ValidationError{Fields: map[string]string{"status": fmt.Sprintf("unknown status %q", target)}}
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, target, actor)
}

// Cancel lets the owning session cancel an order nobody has started preparing.
func (s *OrderService) Cancel(ctx context.Context, sessionID, id string) (*domain.Order, error) {
	o, err := s.Owned(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusPending && o.Status != domain.StatusConfirmed {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	return s.transition(ctx, o, domain.StatusCancelled, sessionID)
}

func (s *OrderService) transition(ctx context.Context, o *domain.Order, target domain.OrderStatus, actor string) (*domain.Order, error) {
	if !domain.CanTransition(o, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	if o.Status == target {
		return o, nil
	}

	found, err := s.Orders.SetStatus(ctx, o.ID, target)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, o.ID)
	}

	from := o.Status
	o.Status = target
	publish(ctx, s.Events, o.ID, StatusChangedEvent{
		Type:    EventOrderStatusChanged,
		OrderID: o.ID,
		From:    string(from),
		To:      string(target),
		Actor:   actor,
		At:      s.now(),
	})
	logging.FromContext(ctx).Info("order_status_changed", "order_id", o.ID, "from", from, "to", target)
	return o, nil
}

func (s *OrderService) List(ctx context.Context, status domain.OrderStatus, offset, limit int) (int64, []domain.Order, error) {
	if status != "" && !status.Valid() {
		return 0, nil, &domain.ValidationError{Fields: map[string]string{"status": fmt.Sprintf("unknown status %q", status)}}
	}
	return s.Orders.ListOrders(ctx, repo.ListFilter{Status: status}, offset, limit)
}

func (s *OrderService) History(ctx context.Context, sessionID string, offset, limit int) (int64, []domain.Order, error) {
	return s.Orders.ListOrders(ctx, repo.ListFilter{SessionID: sessionID}, offset, limit)
}
