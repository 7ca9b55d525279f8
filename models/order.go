package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPreparing OrderStatus = "Preparing"
	StatusReady     OrderStatus = "Ready"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// StatusClaimed is the state a rider claim moves an order into.
const StatusClaimed = StatusPreparing

// OrderStatuses lists the recognised status vocabulary in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled,
}

// ParseOrderStatus reports whether s is a recognised status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	UserID          uint                 `json:"user_id" gorm:"not null;index"`
	User            *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	RestaurantID    uint                 `json:"restaurant_id" gorm:"not null;index"`
	Restaurant      *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	RiderID         *uint                `json:"rider_id" gorm:"index"`
	Rider           *User                `json:"rider,omitempty" gorm:"foreignKey:RiderID"`
	Status          OrderStatus          `json:"status" gorm:"size:20;not null;default:'Pending';index"`
	PaymentStatus   PaymentStatus        `json:"payment_status" gorm:"size:20;not null;default:'Pending'"`
	Total           decimal.Decimal      `json:"total" gorm:"type:decimal(10,2);not null"`
	DeliveryAddress string               `json:"delivery_address" gorm:"size:255;not null"`
	Notes           string               `json:"notes"`
	Lines           []OrderLine          `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// OrderLine is one menu item of an order. Name and UnitPrice are copied
// from the menu item when the order is placed and never change afterwards.
type OrderLine struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"not null;index"`
	MenuItemID uint            `json:"menu_item_id" gorm:"not null"`
	MenuItem   *MenuItem       `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
}

// Subtotal is quantity times the snapshotted unit price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
