// Package seed fills an empty installation with the house menu and its
// placeholder photos.
package seed

import (
	"context"
	"fmt"
	"image/color"

	"github.com/example/restaurant/pkg/catalog"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Dish struct {
	Name       string
	Price      decimal.Decimal
	ImageURL   string
	Background color.RGBA
	Text       color.RGBA
}

var (
	brown = color.RGBA{139, 69, 19, 255}
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

func unsplash(id string) string {
	return fmt.Sprintf("https://images.unsplash.com/%s?w=400&h=300&fit=crop", id)
}

// DefaultMenu is what a fresh database starts with.
var DefaultMenu = []Dish{
	{"Idly", decimal.NewFromInt(30), unsplash("photo-1589301760014-eed999baf231"), color.RGBA{255, 255, 240, 255}, brown},
	{"Dosa", decimal.NewFromInt(50), unsplash("photo-1589090190199-f61b1a626480"), color.RGBA{255, 218, 185, 255}, brown},
	{"Poori", decimal.NewFromInt(40), unsplash("photo-1567620905732-2d1ec7ab7445"), color.RGBA{255, 215, 0, 255}, brown},
	{"Vada", decimal.NewFromInt(25), unsplash("photo-1599599810694-b3ea7c2b1a13"), color.RGBA{222, 184, 135, 255}, brown},
	{"Tea", decimal.NewFromInt(15), unsplash("photo-1597318972826-c0a1d3a76f6b"), brown, white},
	{"Coffee", decimal.NewFromInt(20), unsplash("photo-1559056199-641a0ac8b3f4"), color.RGBA{101, 67, 33, 255}, white},
	{"Milk", decimal.NewFromInt(18), unsplash("photo-1608270861620-7476fad8b5f9"), white, black},
	{"Boost", decimal.NewFromInt(25), unsplash("photo-1577003833154-a92bdbd3e8a8"), color.RGBA{255, 140, 0, 255}, white},
}

type Seeder struct {
	catalog *catalog.Service
	fs      afero.Fs
	dir     string
	logger  *zap.Logger
}

func NewSeeder(menu *catalog.Service, fs afero.Fs, imageDir string, logger *zap.Logger) *Seeder {
	return &Seeder{
		catalog: menu,
		fs:      fs,
		dir:     imageDir,
		logger:  logger,
	}
}

// Menu inserts DefaultMenu when the catalog is empty and reports how many
// items it created.
func (s *Seeder) Menu(ctx context.Context) (int, error) {
	n, err := s.catalog.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i, d := range DefaultMenu {
		name, price := d.Name, d.Price
		_, err := s.catalog.Create(ctx, catalog.MenuInput{
			Name:     &name,
			Price:    &price,
			ImageURL: d.ImageURL,
		})
		if err != nil {
			return i, fmt.Errorf("seed %s: %w", d.Name, err)
		}
	}

	s.logger.Info("Default menu items added", zap.Int("count", len(DefaultMenu)))
	return len(DefaultMenu), nil
}

// Images writes a placeholder JPEG per default dish unless the file is
// already there. It returns the file names it wrote.
func (s *Seeder) Images(ctx context.Context) ([]string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	var written []string
	for _, d := range DefaultMenu {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		name, err := s.writePlaceholder(d)
		if err != nil {
			return written, err
		}
		if name != "" {
			s.logger.Info("Generated image", zap.String("file", name))
			written = append(written, name)
		}
	}
	return written, nil
}
