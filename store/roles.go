package store

import (
	"context"
	"fmt"

	"marketplace-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleStore struct {
	db *gorm.DB
}

func NewRoleStore(db *gorm.DB) *RoleStore {
	return &RoleStore{db: db}
}

// ListRoles returns the global role grants of a user
func (s *RoleStore) ListRoles(ctx context.Context, userID string) ([]models.UserRole, error) {
	var roles []models.UserRole
	err := s.db.WithContext(ctx).Model(&models.RoleGrant{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &roles).Error
	if err != nil {
		return nil, fmt.Errorf("list roles of %s: %w", userID, err)
	}
	return roles, nil
}

// Grant adds a role to a user. Granting an existing role is a no-op.
func (s *RoleStore) Grant(ctx context.Context, userID string, role models.UserRole) error {
	return grantRole(s.db.WithContext(ctx), userID, role)
}

func grantRole(db *gorm.DB, userID string, role models.UserRole) error {
	grant := models.RoleGrant{UserID: userID, Role: role}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error
	if err != nil {
		return fmt.Errorf("grant %s to %s: %w", role, userID, err)
	}
	return nil
}
