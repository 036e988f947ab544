package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderStatusCompleted = "completed"

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderNumber string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderNumber"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Status      string          `gorm:"type:varchar(20);default:'completed'" json:"status"`
	OrderDate   time.Time       `gorm:"index;not null" json:"orderDate"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem keeps its own copy of the unit price. MenuItemID is a plain
// reference: the menu item may be edited or deleted later.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"orderId"`
	MenuItemID uint            `gorm:"not null;index" json:"menuId"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is price × quantity for the line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
