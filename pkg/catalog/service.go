package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/audit"
	"github.com/example/restaurant/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageUpload is an uploaded image file.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// MenuInput carries the admin form. Nil fields are left unchanged on update.
// ImageURL wins over Upload when both are given.
type MenuInput struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	ImageURL    string
	Upload      *ImageUpload
}

type Service struct {
	db     *gorm.DB
	images ImageStore
	audit  audit.Recorder
	logger *zap.Logger
}

func NewService(db *gorm.DB, images ImageStore, recorder audit.Recorder, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		images: images,
		audit:  recorder,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Menu item not found")
		}
		return nil, fmt.Errorf("get menu item %d: %w", id, err)
	}
	return &item, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.MenuItem{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count menu items: %w", err)
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, in MenuInput) (*models.MenuItem, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	if in.Price == nil {
		return nil, apperrors.Validation("price is required")
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}

	item := &models.MenuItem{
		Name:  strings.TrimSpace(*in.Name),
		Price: *in.Price,
	}
	if in.Description != nil {
		item.Description = *in.Description
	}

	imagePath, uploaded, err := s.resolveImage(in)
	if err != nil {
		return nil, err
	}
	item.ImagePath = imagePath

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		s.logger.Error("Failed to create menu item", zap.Error(err))
		if uploaded {
			s.discardImage(imagePath)
		}
		return nil, fmt.Errorf("create menu item: %w", err)
	}

	s.audit.Record(audit.ActionMenuCreated, item.ID, map[string]interface{}{
		"name":  item.Name,
		"price": item.Price.String(),
	})

	return item, nil
}

func (s *Service) Update(ctx context.Context, id uint, in MenuInput) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		updates["price"] = *in.Price
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	imagePath, uploaded, err := s.resolveImage(in)
	if err != nil {
		return nil, err
	}
	if imagePath != "" {
		updates["image_path"] = imagePath
	}

	if err := s.db.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
		s.logger.Error("Failed to update menu item", zap.Uint("id", id), zap.Error(err))
		if uploaded {
			s.discardImage(imagePath)
		}
		return nil, fmt.Errorf("update menu item %d: %w", id, err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.ActionMenuUpdated, updated.ID, map[string]interface{}{
		"name":  updated.Name,
		"price": updated.Price.String(),
	})

	return updated, nil
}

// Delete removes the menu row. Order lines that reference it keep their own
// copied price and quantity.
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete menu item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Menu item not found")
	}

	s.audit.Record(audit.ActionMenuDeleted, id, nil)
	return nil
}

// resolveImage picks the image path for a write. uploaded reports whether a
// new file was stored, which the caller owns until the row is written.
func (s *Service) resolveImage(in MenuInput) (imagePath string, uploaded bool, err error) {
	if url := strings.TrimSpace(in.ImageURL); url != "" {
		return url, false, nil
	}
	if in.Upload == nil || in.Upload.Filename == "" {
		return "", false, nil
	}
	p, err := s.images.Save(in.Upload.Filename, in.Upload.Body)
	if err != nil {
		s.logger.Error("Failed to store uploaded image",
			zap.String("filename", in.Upload.Filename),
			zap.Error(err))
		return "", false, err
	}
	return p, true, nil
}

func (s *Service) discardImage(imagePath string) {
	if err := s.images.Remove(imagePath); err != nil {
		s.logger.Warn("Failed to remove orphaned image",
			zap.String("image_path", imagePath),
			zap.Error(err))
	}
}

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return apperrors.Validation("price must be greater than zero")
	}
	return nil
}
