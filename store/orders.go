package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-api/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record changed concurrently")
	ErrTotalMismatch = errors.New("order total does not match its items")
	ErrEmptyOrder    = errors.New("order has no items")
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Get loads a single order with its items
func (s *OrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

// ConditionalUpdate moves the order to next only if it is still at expected, and records the
// transition in the status history within the same transaction.
func (s *OrderStore) ConditionalUpdate(ctx context.Context, id string, expected, next models.OrderStatus,
	at time.Time, actorRole models.UserRole, changedBy string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(map[string]interface{}{
				"status":     next,
				"updated_at": at,
			})
		if res.Error != nil {
			return fmt.Errorf("update order %s status: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("recheck order %s: %w", id, err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}

		history := models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: expected,
			ToStatus:   next,
			ActorRole:  actorRole,
			ChangedBy:  changedBy,
			CreatedAt:  at,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("record history for order %s: %w", id, err)
		}
		return nil
	})
}

// Create stores a new pending order. The total must equal the sum of its items.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return ErrEmptyOrder
	}
	if !order.Total.Equal(order.ItemsTotal()) {
		return ErrTotalMismatch
	}
	order.Status = models.StatusPending
	order.ShopperID = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ActorRole: models.RoleConsumer,
			ChangedBy: order.ConsumerID,
			CreatedAt: order.CreatedAt,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("record initial history: %w", err)
		}
		return nil
	})
}

// AssignShopper attaches a shopper to a ready order that has none yet,
// stamping updated_at with at
func (s *OrderStore) AssignShopper(ctx context.Context, orderID, shopperID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND shopper_id IS NULL", orderID, models.StatusReady).
		Updates(map[string]interface{}{
			"shopper_id": shopperID,
			"updated_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("assign shopper to order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, orderID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// ListFilter narrows order listings. Empty fields are ignored.
type ListFilter struct {
	ConsumerID string
	VendorID   string
	ShopperID  string
	Status     models.OrderStatus
}

func (s *OrderStore) List(ctx context.Context, f ListFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Items")
	if f.ConsumerID != "" {
		query = query.Where("consumer_id = ?", f.ConsumerID)
	}
	if f.VendorID != "" {
		query = query.Where("vendor_id = ?", f.VendorID)
	}
	if f.ShopperID != "" {
		query = query.Where("shopper_id = ?", f.ShopperID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListAvailable returns ready orders that no shopper has claimed, oldest first
func (s *OrderStore) ListAvailable(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND shopper_id IS NULL", models.StatusReady).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list available orders: %w", err)
	}
	return orders, nil
}

// History returns the audit trail of an order, oldest first
func (s *OrderStore) History(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("order %s history: %w", orderID, err)
	}
	return history, nil
}
