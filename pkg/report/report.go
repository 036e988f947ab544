// Package report aggregates completed orders into monthly sales figures.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const topItemsLimit = 10

type TopItem struct {
	MenuID   uint            `json:"menuId"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DailySale struct {
	Date   string          `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Orders int64           `json:"orders"`
}

type Report struct {
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalOrders int64           `json:"totalOrders"`
	TopItems    []TopItem       `json:"topItems"`
	DailySales  []DailySale     `json:"dailySales"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Window returns [first day of month, first day of next month) in UTC.
func Window(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Sales reports on the given month, or the current UTC month when either
// month or year is zero.
func (s *Service) Sales(ctx context.Context, month, year int) (*Report, error) {
	if month == 0 || year == 0 {
		now := s.now().UTC()
		month, year = int(now.Month()), now.Year()
	}
	if month < 1 || month > 12 {
		return nil, apperrors.Validation("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, apperrors.Validation("year is out of range")
	}

	start, end := Window(year, month)
	rep := &Report{
		Month:      month,
		Year:       year,
		TopItems:   []TopItem{},
		DailySales: []DailySale{},
	}

	var err error
	if rep.TotalSales, rep.TotalOrders, err = s.totals(ctx, start, end); err != nil {
		return nil, err
	}
	if rep.TotalOrders == 0 {
		return rep, nil
	}
	if rep.TopItems, err = s.topItems(ctx, start, end); err != nil {
		return nil, err
	}
	if rep.DailySales, err = s.daily(ctx, start, end); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) totals(ctx context.Context, start, end time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("order_date >= ? AND order_date < ?", start, end).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("sum orders: %w", err)
	}
	return row.Total.Round(2), row.Count, nil
}

// topItems ranks by quantity sold; ties go to the lower menu id so the
// ranking is reproducible across database engines.
func (s *Service) topItems(ctx context.Context, start, end time.Time) ([]TopItem, error) {
	var rows []struct {
		MenuItemID uint
		Name       string
		Quantity   int64
		Revenue    decimal.Decimal
	}
	err := s.db.WithContext(ctx).Table("order_items AS oi").
		Select("oi.menu_item_id AS menu_item_id, COALESCE(m.name, '') AS name, "+
			"SUM(oi.quantity) AS quantity, SUM(oi.quantity * oi.price) AS revenue").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("LEFT JOIN menu_items m ON m.id = oi.menu_item_id").
		Where("o.order_date >= ? AND o.order_date < ?", start, end).
		Group("oi.menu_item_id, m.name").
		Order("quantity DESC, oi.menu_item_id ASC").
		Limit(topItemsLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rank items: %w", err)
	}

	items := make([]TopItem, len(rows))
	for i, r := range rows {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("Item #%d (removed)", r.MenuItemID)
		}
		items[i] = TopItem{
			MenuID:   r.MenuItemID,
			Name:     name,
			Quantity: r.Quantity,
			Revenue:  r.Revenue.Round(2),
		}
	}
	return items, nil
}

// daily buckets by UTC calendar day in Go so the same code works on every
// dialect's date functions.
func (s *Service) daily(ctx context.Context, start, end time.Time) ([]DailySale, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Select("id", "order_date", "total_amount").
		Where("order_date >= ? AND order_date < ?", start, end).
		Order("order_date ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	days := []DailySale{}
	for _, o := range orders {
		date := o.OrderDate.UTC().Format("2006-01-02")
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Total = days[n-1].Total.Add(o.TotalAmount)
			days[n-1].Orders++
			continue
		}
		days = append(days, DailySale{Date: date, Total: o.TotalAmount, Orders: 1})
	}
	for i := range days {
		days[i].Total = days[i].Total.Round(2)
	}
	return days, nil
}
