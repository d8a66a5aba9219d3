package statemachine

import (
	"testing"

	"marketplace-api/models"

	"github.com/stretchr/testify/assert"
)

func TestAllowedNextMatchesPolicyTable(t *testing.T) {
	tests := []struct {
		role models.UserRole
		from models.OrderStatus
		want []models.OrderStatus
	}{
		{models.RoleConsumer, models.StatusInspecting, []models.OrderStatus{models.StatusApproved, models.StatusDisputed}},
		{models.RoleConsumer, models.StatusApproved, []models.OrderStatus{models.StatusCompleted}},
		{models.RoleConsumer, models.StatusPending, []models.OrderStatus{}},
		{models.RoleVendor, models.StatusPending, []models.OrderStatus{models.StatusAccepted, models.StatusCancelled}},
		{models.RoleVendor, models.StatusAccepted, []models.OrderStatus{models.StatusPreparing}},
		{models.RoleVendor, models.StatusPreparing, []models.OrderStatus{models.StatusReady}},
		{models.RoleVendor, models.StatusReady, []models.OrderStatus{}},
		{models.RoleShopper, models.StatusReady, []models.OrderStatus{models.StatusPickedUp}},
		{models.RoleShopper, models.StatusPickedUp, []models.OrderStatus{models.StatusInspecting}},
		{models.RoleShopper, models.StatusInspecting, []models.OrderStatus{}},
		{models.RoleAdmin, models.StatusCompleted, []models.OrderStatus{models.StatusDisputed}},
		{models.RoleAdmin, models.StatusDisputed, []models.OrderStatus{models.StatusCompleted, models.StatusCancelled}},
		{models.RoleAdmin, models.StatusCancelled, []models.OrderStatus{}},
		{models.RoleAdmin, models.StatusPending, []models.OrderStatus{
			models.StatusAccepted, models.StatusPreparing, models.StatusReady, models.StatusPickedUp,
			models.StatusInspecting, models.StatusApproved, models.StatusCompleted, models.StatusDisputed,
			models.StatusCancelled,
		}},
		{models.RoleAdmin, models.StatusApproved, []models.OrderStatus{
			models.StatusPending, models.StatusAccepted, models.StatusPreparing, models.StatusReady,
			models.StatusPickedUp, models.StatusInspecting, models.StatusCompleted, models.StatusDisputed,
			models.StatusCancelled,
		}},
		{models.RoleNone, models.StatusPending, []models.OrderStatus{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedNext(tt.role, tt.from))
		})
	}
}

func TestAdminOpenStatusesReachEverythingButThemselves(t *testing.T) {
	open := []models.OrderStatus{
		models.StatusPending, models.StatusAccepted, models.StatusPreparing, models.StatusReady,
		models.StatusPickedUp, models.StatusInspecting, models.StatusApproved,
	}
	for _, from := range open {
		nexts := AllowedNext(models.RoleAdmin, from)
		assert.Len(t, nexts, len(models.AllStatuses())-1, "from %s", from)
		assert.NotContains(t, nexts, from)
	}
}

func TestCancelledIsTerminalForEveryRole(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleConsumer, models.RoleVendor, models.RoleShopper, models.RoleAdmin} {
		assert.Empty(t, AllowedNext(role, models.StatusCancelled), "role %s", role)
		assert.True(t, IsTerminalFor(role, models.StatusCancelled), "role %s", role)
	}
}

func TestOrdinaryRolesReachStrictSubset(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleConsumer, models.RoleVendor, models.RoleShopper} {
		reachable := map[models.OrderStatus]bool{}
		for _, from := range models.AllStatuses() {
			for _, to := range AllowedNext(role, from) {
				reachable[to] = true
			}
		}
		assert.Less(t, len(reachable), len(models.AllStatuses()), "role %s", role)
	}
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed(models.RoleVendor, models.StatusPending, models.StatusAccepted))
	assert.False(t, IsAllowed(models.RoleVendor, models.StatusPending, models.StatusReady))
	assert.True(t, IsAllowed(models.RoleShopper, models.StatusReady, models.StatusPickedUp))
	assert.False(t, IsAllowed(models.RoleAdmin, models.StatusCompleted, models.StatusPending))
	assert.False(t, IsAllowed(models.RoleAdmin, models.StatusPending, models.StatusPending))
	assert.False(t, IsAllowed(models.RoleNone, models.StatusInspecting, models.StatusApproved))
	assert.False(t, IsAllowed(models.RoleConsumer, models.OrderStatus("shipped"), models.StatusApproved))
	assert.False(t, IsAllowed(models.RoleConsumer, models.StatusInspecting, models.OrderStatus("shipped")))
}

func TestAllowedNextIsDeterministicAndDetached(t *testing.T) {
	first := AllowedNext(models.RoleAdmin, models.StatusReady)
	first[0] = models.StatusCancelled
	assert.Equal(t, models.StatusPending, AllowedNext(models.RoleAdmin, models.StatusReady)[0])

	for i := 0; i < 50; i++ {
		assert.Equal(t, AllowedNext(models.RoleConsumer, models.StatusInspecting),
			[]models.OrderStatus{models.StatusApproved, models.StatusDisputed})
	}
}

func TestGetAllTransitionsCoversTable(t *testing.T) {
	all := GetAllTransitions()
	// consumer 3 + vendor 4 + shopper 2 + admin (7 open * 9 + 1 + 2)
	assert.Len(t, all, 3+4+2+7*9+1+2)
	for _, tr := range all {
		assert.True(t, IsAllowed(tr.Role, tr.From, tr.To))
	}
}
