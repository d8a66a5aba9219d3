// Package access decides under which role a caller may act on a given order.
package access

import (
	"context"
	"fmt"

	"marketplace-api/models"
)

// RoleLister returns the global role grants of a user
type RoleLister interface {
	ListRoles(ctx context.Context, userID string) ([]models.UserRole, error)
}

// ProfileLookup returns the vendor and shopper profile ids of a user, "" when absent
type ProfileLookup interface {
	VendorProfileID(ctx context.Context, userID string) (string, error)
	ShopperProfileID(ctx context.Context, userID string) (string, error)
}

type Resolver struct {
	roles    RoleLister
	profiles ProfileLookup
}

func NewResolver(roles RoleLister, profiles ProfileLookup) *Resolver {
	return &Resolver{roles: roles, profiles: profiles}
}

// Resolve returns the effective role of callerID on order, or models.RoleNone.
// Precedence: admin grant, then vendor of the order, then its shopper, then its consumer.
// Errors only come from failed lookups, never from the decision itself.
func (r *Resolver) Resolve(ctx context.Context, callerID string, order *models.Order) (models.UserRole, error) {
	roles, err := r.roles.ListRoles(ctx, callerID)
	if err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	for _, role := range roles {
		if role == models.RoleAdmin {
			return models.RoleAdmin, nil
		}
	}

	vendorID, err := r.profiles.VendorProfileID(ctx, callerID)
	if err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	if vendorID != "" && vendorID == order.VendorID {
		return models.RoleVendor, nil
	}

	shopperID, err := r.profiles.ShopperProfileID(ctx, callerID)
	if err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	if shopperID != "" && order.ShopperID != nil && shopperID == *order.ShopperID {
		return models.RoleShopper, nil
	}

	if callerID != "" && callerID == order.ConsumerID {
		return models.RoleConsumer, nil
	}
	return models.RoleNone, nil
}

// HasRole reports whether userID holds the given global grant
func (r *Resolver) HasRole(ctx context.Context, userID string, role models.UserRole) (bool, error) {
	roles, err := r.roles.ListRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, got := range roles {
		if got == role {
			return true, nil
		}
	}
	return false, nil
}
