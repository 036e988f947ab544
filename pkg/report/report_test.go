package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/database/dbtest"
	"github.com/example/restaurant/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type line struct {
	menuID uint
	qty    int
	price  string
}

var seq int

func placeOrder(t *testing.T, db *gorm.DB, at time.Time, lines ...line) *models.Order {
	t.Helper()
	seq++
	total := decimal.Zero
	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		p := decimal.RequireFromString(l.price)
		items[i] = models.OrderItem{MenuItemID: l.menuID, Quantity: l.qty, Price: p}
		total = total.Add(p.Mul(decimal.NewFromInt(int64(l.qty))))
	}
	o := &models.Order{
		OrderNumber: fmt.Sprintf("ORD-TEST-%04d", seq),
		TotalAmount: total,
		Status:      models.OrderStatusCompleted,
		OrderDate:   at.UTC(),
		Items:       items,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func seedMenu(t *testing.T, db *gorm.DB, names ...string) []models.MenuItem {
	t.Helper()
	items := make([]models.MenuItem, len(names))
	for i, n := range names {
		items[i] = models.MenuItem{Name: n, Price: decimal.NewFromInt(10)}
		require.NoError(t, db.Create(&items[i]).Error)
	}
	return items
}

func TestWindow(t *testing.T) {
	start, end := Window(2026, 12)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)

	start, end = Window(2024, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 29*24*time.Hour, end.Sub(start))
}

func TestEmptyMonth(t *testing.T) {
	svc := NewService(dbtest.Open(t))

	rep, err := svc.Sales(context.Background(), 2, 2026)
	require.NoError(t, err)

	assert.True(t, rep.TotalSales.IsZero())
	assert.Zero(t, rep.TotalOrders)
	assert.NotNil(t, rep.TopItems)
	assert.Empty(t, rep.TopItems)
	assert.NotNil(t, rep.DailySales)
	assert.Empty(t, rep.DailySales)
}

func TestMonthlyReport(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	ctx := context.Background()
	menu := seedMenu(t, db, "Idly", "Dosa", "Tea")
	idly, dosa, tea := menu[0].ID, menu[1].ID, menu[2].ID

	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 30, 0, 0, time.UTC) }

	placeOrder(t, db, day(1, 0), line{idly, 2, "30"}, line{tea, 1, "15"})
	placeOrder(t, db, day(1, 18), line{dosa, 1, "50"})
	placeOrder(t, db, day(15, 9), line{tea, 4, "15"}, line{dosa, 2, "55"})
	// outside the window on both sides
	placeOrder(t, db, time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC), line{idly, 100, "30"})
	placeOrder(t, db, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), line{idly, 100, "30"})

	rep, err := svc.Sales(ctx, 3, 2026)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Month)
	assert.Equal(t, 2026, rep.Year)
	assert.Equal(t, int64(3), rep.TotalOrders)
	assert.Equal(t, "295", rep.TotalSales.String())

	require.Len(t, rep.TopItems, 3)
	assert.Equal(t, "Tea", rep.TopItems[0].Name)
	assert.Equal(t, int64(5), rep.TopItems[0].Quantity)
	assert.Equal(t, "75", rep.TopItems[0].Revenue.String())
	assert.Equal(t, "Dosa", rep.TopItems[1].Name)
	assert.Equal(t, int64(3), rep.TopItems[1].Quantity)
	assert.Equal(t, "160", rep.TopItems[1].Revenue.String())
	assert.Equal(t, "Idly", rep.TopItems[2].Name)

	require.Len(t, rep.DailySales, 2)
	assert.Equal(t, "2026-03-01", rep.DailySales[0].Date)
	assert.Equal(t, "125", rep.DailySales[0].Total.String())
	assert.Equal(t, int64(2), rep.DailySales[0].Orders)
	assert.Equal(t, "2026-03-15", rep.DailySales[1].Date)
	assert.Equal(t, "170", rep.DailySales[1].Total.String())
}

func TestTopItemsTieBreakByMenuID(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	menu := seedMenu(t, db, "Coffee", "Milk", "Boost")
	at := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

	placeOrder(t, db, at, line{menu[2].ID, 2, "25"}, line{menu[0].ID, 2, "20"}, line{menu[1].ID, 2, "18"})

	rep, err := svc.Sales(context.Background(), 6, 2026)
	require.NoError(t, err)
	require.Len(t, rep.TopItems, 3)
	assert.Equal(t, []string{"Coffee", "Milk", "Boost"},
		[]string{rep.TopItems[0].Name, rep.TopItems[1].Name, rep.TopItems[2].Name})
}

func TestTopItemsLimit(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	names := make([]string, 12)
	for i := range names {
		names[i] = fmt.Sprintf("Item %d", i)
	}
	menu := seedMenu(t, db, names...)
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	lines := make([]line, len(menu))
	for i, m := range menu {
		lines[i] = line{m.ID, i + 1, "10"}
	}
	placeOrder(t, db, at, lines...)

	rep, err := svc.Sales(context.Background(), 7, 2026)
	require.NoError(t, err)
	require.Len(t, rep.TopItems, 10)
	assert.Equal(t, "Item 11", rep.TopItems[0].Name)
	assert.Equal(t, int64(12), rep.TopItems[0].Quantity)
}

func TestDeletedMenuItemStillReported(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	menu := seedMenu(t, db, "Vada")
	at := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)

	o := placeOrder(t, db, at, line{menu[0].ID, 3, "25"})
	require.NoError(t, db.Delete(&models.MenuItem{}, menu[0].ID).Error)

	rep, err := svc.Sales(context.Background(), 8, 2026)
	require.NoError(t, err)
	assert.Equal(t, "75", rep.TotalSales.String())
	require.Len(t, rep.TopItems, 1)
	assert.Equal(t, fmt.Sprintf("Item #%d (removed)", menu[0].ID), rep.TopItems[0].Name)

	var stored models.Order
	require.NoError(t, db.Preload("Items").First(&stored, o.ID).Error)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("75")))
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("25")))
}

func TestDefaultsToCurrentMonth(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC) }
	menu := seedMenu(t, db, "Idly")

	placeOrder(t, db, time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC), line{menu[0].ID, 1, "30"})
	placeOrder(t, db, time.Date(2026, 9, 30, 10, 0, 0, 0, time.UTC), line{menu[0].ID, 1, "30"})

	for _, args := range [][2]int{{0, 0}, {10, 0}, {0, 2026}} {
		rep, err := svc.Sales(context.Background(), args[0], args[1])
		require.NoError(t, err)
		assert.Equal(t, 10, rep.Month)
		assert.Equal(t, int64(1), rep.TotalOrders)
	}
}

func TestInvalidMonth(t *testing.T) {
	svc := NewService(dbtest.Open(t))

	_, err := svc.Sales(context.Background(), 13, 2026)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.Sales(context.Background(), -1, 2026)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestFractionalRevenueIsRounded(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	menu := seedMenu(t, db, "Chai")
	at := time.Date(2026, 9, 9, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		placeOrder(t, db, at.Add(time.Duration(i)*time.Minute), line{menu[0].ID, 1, "0.10"})
	}

	rep, err := svc.Sales(context.Background(), 9, 2026)
	require.NoError(t, err)
	assert.Equal(t, "0.3", rep.TotalSales.String())
	assert.Equal(t, "0.3", rep.TopItems[0].Revenue.String())
	assert.Equal(t, "0.3", rep.DailySales[0].Total.String())
}
