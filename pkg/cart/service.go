package cart

import (
	"context"
	"fmt"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/metrics"
	"go.uber.org/zap"
)

type Service struct {
	store   Store
	menu    MenuLookup
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(store Store, menu MenuLookup, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		menu:    menu,
		metrics: m,
		logger:  logger,
	}
}

func (s *Service) Get(ctx context.Context, sessionID string) ([]Entry, error) {
	entries, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Add puts quantity of menuID into the cart, merging with an existing entry.
func (s *Service) Add(ctx context.Context, sessionID string, menuID uint, quantity int) ([]Entry, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	item, err := s.menu.Get(ctx, menuID)
	if err != nil {
		return nil, err
	}

	entries, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range entries {
		if entries[i].MenuID == menuID {
			entries[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, Entry{
			MenuID:    item.ID,
			Name:      item.Name,
			Price:     item.Price,
			ImagePath: item.ImagePath,
			Quantity:  quantity,
		})
	}

	return s.save(ctx, sessionID, "add", entries)
}

// Update sets the quantity of menuID. Zero or less removes the entry; an
// absent entry is left alone.
func (s *Service) Update(ctx context.Context, sessionID string, menuID uint, quantity int) ([]Entry, error) {
	entries, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].MenuID != menuID {
			continue
		}
		if quantity <= 0 {
			entries = append(entries[:i], entries[i+1:]...)
		} else {
			entries[i].Quantity = quantity
		}
		break
	}

	return s.save(ctx, sessionID, "update", entries)
}

func (s *Service) Remove(ctx context.Context, sessionID string, menuID uint) ([]Entry, error) {
	entries, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.MenuID != menuID {
			kept = append(kept, e)
		}
	}

	return s.save(ctx, sessionID, "remove", kept)
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.metrics.CartOperation("clear")
	return nil
}

func (s *Service) save(ctx context.Context, sessionID, op string, entries []Entry) ([]Entry, error) {
	if err := s.store.Save(ctx, sessionID, entries); err != nil {
		s.logger.Error("Failed to save cart",
			zap.String("session_id", sessionID),
			zap.String("op", op),
			zap.Error(err))
		return nil, fmt.Errorf("save cart: %w", err)
	}
	s.metrics.CartOperation(op)
	return entries, nil
}
