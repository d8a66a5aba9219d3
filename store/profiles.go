package store

import (
	"context"
	"errors"
	"fmt"

	"marketplace-api/models"

	"gorm.io/gorm"
)

var ErrProfileExists = errors.New("profile already exists")

type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// VendorProfileID returns the vendor profile id of a user, or "" if the user sells nothing
func (s *ProfileStore) VendorProfileID(ctx context.Context, userID string) (string, error) {
	return s.profileID(ctx, &models.Vendor{}, userID)
}

// ShopperProfileID returns the shopper profile id of a user, or "" if the user does not deliver
func (s *ProfileStore) ShopperProfileID(ctx context.Context, userID string) (string, error) {
	return s.profileID(ctx, &models.Shopper{}, userID)
}

func (s *ProfileStore) profileID(ctx context.Context, model interface{}, userID string) (string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("profile lookup for %s: %w", userID, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// CreateVendor creates the vendor profile and grants the vendor role
func (s *ProfileStore) CreateVendor(ctx context.Context, vendor *models.Vendor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vendor).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrProfileExists
			}
			return fmt.Errorf("create vendor: %w", err)
		}
		return grantRole(tx, vendor.UserID, models.RoleVendor)
	})
}

// CreateShopper creates the shopper profile and grants the shopper role
func (s *ProfileStore) CreateShopper(ctx context.Context, shopper *models.Shopper) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shopper).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrProfileExists
			}
			return fmt.Errorf("create shopper: %w", err)
		}
		return grantRole(tx, shopper.UserID, models.RoleShopper)
	})
}

// GetVendor loads a vendor profile by id
func (s *ProfileStore) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.db.WithContext(ctx).First(&vendor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor %s: %w", id, err)
	}
	return &vendor, nil
}
