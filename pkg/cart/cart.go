// Package cart keeps a per-session basket of menu items.
//
// Entries freeze the menu item's name, price and image when first added.
// The price is never refreshed from the catalog afterwards; checkout charges
// what the customer saw.
package cart

import (
	"context"

	"github.com/example/restaurant/pkg/models"
	"github.com/shopspring/decimal"
)

type Entry struct {
	MenuID    uint            `json:"menuId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImagePath string          `json:"imagePath"`
	Quantity  int             `json:"quantity"`
}

func (e Entry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Total sums price × quantity over entries.
func Total(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// Store persists carts by session id. A missing cart loads as empty.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Entry, error)
	Save(ctx context.Context, sessionID string, entries []Entry) error
	Delete(ctx context.Context, sessionID string) error
}

// MenuLookup resolves a menu item, returning an apperrors NotFound when absent.
type MenuLookup interface {
	Get(ctx context.Context, id uint) (*models.MenuItem, error)
}
