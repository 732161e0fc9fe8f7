package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/pkg/session"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

type CartService struct {
	Sessions SessionStore
	Locks    Locker
}

// loadCart returns an empty cart when nothing is stored or the stored blob
// has an older schema.
func loadCart(ctx context.Context, store SessionStore, sessionID string) (*domain.Cart, error) {
	cart := domain.NewCart()
	err := store.Load(ctx, sessionID, nsCart, cart)
	switch {
	case err == nil:
		return cart, nil
	case errors.Is(err, session.ErrNotFound):
		return domain.NewCart(), nil
	case errors.Is(err, session.ErrVersion):
		logging.FromContext(ctx).Warn("cart_discarded", "reason", "stale schema", "error", err)
		return domain.NewCart(), nil
	default:
		return nil, fmt.Errorf("load cart: %w", err)
	}
}

func (s *CartService) Cart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return loadCart(ctx, s.Sessions, sessionID)
}

const (
	// cartLockTTL bounds a single load-mutate-save; it only matters if the
	// process dies while holding the lock.
	cartLockTTL = 5 * time.Second

	cartLockWait  = 200 * time.Millisecond
	cartLockRetry = 20 * time.Millisecond
)

// withCartLock runs fn holding the session's checkout lock, so a mutation and
// a submission never overlap. Another mutation is waited out briefly; a
// submission in progress yields ErrCartLocked.
func (s *CartService) withCartLock(ctx context.Context, sessionID string, fn func() error) error {
	name := checkoutLock(sessionID)
	deadline := time.Now().Add(cartLockWait)
	for {
		token, ok, err := s.Locks.Acquire(ctx, name, cartLockTTL)
		if err != nil {
			return fmt.Errorf("acquire cart lock: %w", err)
		}
		if ok {
			defer func() {
				if err := s.Locks.Release(context.WithoutCancel(ctx), name, token); err != nil {
					logging.FromContext(ctx).Warn("release_lock_error", "error", err)
				}
			}()
			return fn()
		}
		if time.Now().After(deadline) {
			return ErrCartLocked
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cartLockRetry):
		}
	}
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.withCartLock(ctx, sessionID, func() error {
		c, err := loadCart(ctx, s.Sessions, sessionID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := s.Sessions.Save(ctx, sessionID, nsCart, c); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartLineItem) (*domain.Cart, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		c.Add(item)
		return nil
	})
}

func (s *CartService) SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		if !c.SetQuantity(itemID, quantity) {
			return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		if !c.Remove(itemID) {
			return fmt.Errorf("%w: cart item %s", ErrNotFound, itemID)
		}
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.withCartLock(ctx, sessionID, func() error {
		return s.Sessions.Delete(ctx, sessionID, nsCart)
	})
}
