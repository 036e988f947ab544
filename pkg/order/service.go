package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/audit"
	"github.com/example/restaurant/pkg/cart"
	"github.com/example/restaurant/pkg/metrics"
	"github.com/example/restaurant/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxNumberAttempts = 3

// Carts is the part of the cart service checkout depends on.
type Carts interface {
	Get(ctx context.Context, sessionID string) ([]cart.Entry, error)
	Clear(ctx context.Context, sessionID string) error
}

type Service struct {
	db      *gorm.DB
	carts   Carts
	audit   audit.Recorder
	metrics *metrics.Metrics
	logger  *zap.Logger

	now    func() time.Time
	random io.Reader

	// one checkout in flight per session
	flight singleflight.Group
}

func NewService(db *gorm.DB, carts Carts, recorder audit.Recorder, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		carts:   carts,
		audit:   recorder,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		random:  rand.Reader,
	}
}

// Checkout turns the session's cart into a completed order and clears the
// cart. Concurrent calls for the same session share a single result. The
// shared work is detached from any one caller's cancellation; a caller whose
// ctx ends stops waiting but the checkout still completes for the others.
func (s *Service) Checkout(ctx context.Context, sessionID string) (*models.Order, error) {
	work := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(sessionID, func() (interface{}, error) {
		return s.checkout(work, sessionID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Concurrent checkout collapsed", zap.String("session_id", sessionID))
		}
		return res.Val.(*models.Order), nil
	}
}

func (s *Service) checkout(ctx context.Context, sessionID string) (*models.Order, error) {
	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperrors.EmptyCart()
	}

	total := cart.Total(entries)

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order, err = s.persist(ctx, entries, total)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxNumberAttempts {
			s.logger.Warn("Order number collision, retrying", zap.Int("attempt", attempt))
			continue
		}
		s.logger.Error("Failed to create order", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		// the order is committed; a stale cart is the lesser evil
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}

	s.metrics.OrderPlaced(order.TotalAmount)
	s.audit.Record(audit.ActionOrderPlaced, order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.StringFixed(2),
		"items":        len(order.Items),
	})

	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	return order, nil
}

// persist writes the order and its lines in one transaction.
func (s *Service) persist(ctx context.Context, entries []cart.Entry, total decimal.Decimal) (*models.Order, error) {
	now := s.now().UTC()
	number, err := NewOrderNumber(now, s.random)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber: number,
		TotalAmount: total,
		Status:      models.OrderStatusCompleted,
		OrderDate:   now,
	}
	items := make([]models.OrderItem, len(entries))
	for i, e := range entries {
		items[i] = models.OrderItem{
			MenuItemID: e.MenuID,
			Quantity:   e.Quantity,
			Price:      e.Price,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

// List returns the most recent orders first.
func (s *Service) List(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("order_date DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
