package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of a marketplace order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted"
	StatusPreparing  OrderStatus = "preparing"
	StatusReady      OrderStatus = "ready"
	StatusPickedUp   OrderStatus = "picked_up"
	StatusInspecting OrderStatus = "inspecting"
	StatusApproved   OrderStatus = "approved"
	StatusCompleted  OrderStatus = "completed"
	StatusDisputed   OrderStatus = "disputed"
	StatusCancelled  OrderStatus = "cancelled"
)

var allStatuses = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusPreparing,
	StatusReady,
	StatusPickedUp,
	StatusInspecting,
	StatusApproved,
	StatusCompleted,
	StatusDisputed,
	StatusCancelled,
}

// AllStatuses returns every status in pipeline order
func AllStatuses() []OrderStatus {
	out := make([]OrderStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseOrderStatus reports whether s names a known status
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type Order struct {
	ID            string               `json:"id" gorm:"primaryKey;size:36"`
	ConsumerID    string               `json:"consumer_id" gorm:"size:36;not null;index"`
	VendorID      string               `json:"vendor_id" gorm:"size:36;not null;index"`
	ShopperID     *string              `json:"shopper_id" gorm:"size:36;index"`
	Status        OrderStatus          `json:"status" gorm:"size:16;not null;default:'pending';index"`
	Total         decimal.Decimal      `json:"total" gorm:"type:numeric;not null"`
	Notes         string               `json:"notes"`
	Items         []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// ItemsTotal sums quantity * unit price over the order lines
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   string          `json:"order_id" gorm:"size:36;not null;index"`
	Name      string          `json:"name" gorm:"not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric;not null"` // snapshot at order time
}

// OrderStatusHistory is the audit trail, one row per committed transition
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"order_id" gorm:"size:36;not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ActorRole  UserRole    `json:"actor_role"`
	ChangedBy  string      `json:"changed_by" gorm:"size:36"`
	CreatedAt  time.Time   `json:"created_at"`
}

// StatusChange describes a committed transition
type StatusChange struct {
	OrderID   string
	From      OrderStatus
	To        OrderStatus
	Role      UserRole
	ChangedBy string
	At        time.Time
}
