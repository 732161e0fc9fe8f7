package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/models"
)

var (
	ErrNotFound  = errors.New("order not found")
	ErrDuplicate = errors.New("order id already exists")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.ActiveOrder{})
}

// CreateOrder stores the order with its items and makes it the session's active order.
func (r *GormRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	row := models.FromDomain(order)

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Order{}).Where("id = ?", row.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicate, row.ID)
		}

		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return upsertActive(tx, row.SessionID, row.ID)
	})
}

func upsertActive(tx *gorm.DB, sessionID, orderID string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"order_id", "updated_at"}),
	}).Create(&models.ActiveOrder{SessionID: sessionID, OrderID: orderID, UpdatedAt: time.Now().UTC()}).Error
}

// SetStatus replaces the stored status without checking the transition.
// It reports false when no order has the id.
func (r *GormRepo) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var row models.Order
	err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// ActiveOrder returns the order the session marked active, falling back to the
// session's most recent order.
func (r *GormRepo) ActiveOrder(ctx context.Context, sessionID string) (*domain.Order, error) {
	var active models.ActiveOrder
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&active).Error
	switch {
	case err == nil:
		o, err := r.GetOrder(ctx, active.OrderID)
		if !errors.Is(err, ErrNotFound) {
			return o, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var row models.Order
	err = r.DB.WithContext(ctx).
		Preload("Items").
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *GormRepo) SetActive(ctx context.Context, sessionID, orderID string) error {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return upsertActive(r.DB.WithContext(ctx), sessionID, orderID)
}

type ListFilter struct {
	Status    domain.OrderStatus
	SessionID string
}

// ListOrders pages through orders most-recent-first.
func (r *GormRepo) ListOrders(ctx context.Context, f ListFilter, offset, limit int) (int64, []domain.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []models.Order
	if err := q.Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return 0, nil, err
	}

	out := make([]domain.Order, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return total, out, nil
}
