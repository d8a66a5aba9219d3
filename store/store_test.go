package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-api/config"
	"marketplace-api/models"
	"marketplace-api/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newOrder(consumerID, vendorID string) *models.Order {
	return &models.Order{
		ConsumerID: consumerID,
		VendorID:   vendorID,
		Total:      decimal.RequireFromString("25.50"),
		Items: []models.OrderItem{
			{Name: "Tomatoes (kg)", Quantity: 2, UnitPrice: decimal.RequireFromString("7.25")},
			{Name: "Plantain", Quantity: 1, UnitPrice: decimal.RequireFromString("11.00")},
		},
	}
}

func TestOrderCreateAndGet(t *testing.T) {
	ctx := context.Background()
	orders := store.NewOrderStore(openTestDB(t))

	o := newOrder("consumer-1", "vendor-1")
	o.Status = models.StatusApproved
	require.NoError(t, orders.Create(ctx, o))
	assert.NotEmpty(t, o.ID)

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ShopperID)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("25.50")))
	assert.Len(t, got.Items, 2)

	history, err := orders.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPending, history[0].ToStatus)
}

func TestOrderCreateRejectsBadTotals(t *testing.T) {
	ctx := context.Background()
	orders := store.NewOrderStore(openTestDB(t))

	o := newOrder("consumer-1", "vendor-1")
	o.Total = decimal.RequireFromString("20")
	assert.ErrorIs(t, orders.Create(ctx, o), store.ErrTotalMismatch)

	empty := &models.Order{ConsumerID: "c", VendorID: "v"}
	assert.ErrorIs(t, orders.Create(ctx, empty), store.ErrEmptyOrder)
}

func TestOrderGetNotFound(t *testing.T) {
	_, err := store.NewOrderStore(openTestDB(t)).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	orders := store.NewOrderStore(openTestDB(t))

	o := newOrder("consumer-1", "vendor-1")
	require.NoError(t, orders.Create(ctx, o))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, orders.ConditionalUpdate(ctx, o.ID, models.StatusPending, models.StatusAccepted, at, models.RoleVendor, "vendor-user"))

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.True(t, got.UpdatedAt.Equal(at))

	t.Run("stale expected status conflicts", func(t *testing.T) {
		err := orders.ConditionalUpdate(ctx, o.ID, models.StatusPending, models.StatusCancelled, at, models.RoleVendor, "vendor-user")
		assert.ErrorIs(t, err, store.ErrConflict)

		got, err := orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, got.Status)
	})

	t.Run("missing order", func(t *testing.T) {
		err := orders.ConditionalUpdate(ctx, "missing", models.StatusPending, models.StatusAccepted, at, models.RoleAdmin, "admin")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("history records only committed transitions", func(t *testing.T) {
		history, err := orders.History(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, models.StatusPending, history[1].FromStatus)
		assert.Equal(t, models.StatusAccepted, history[1].ToStatus)
		assert.Equal(t, models.RoleVendor, history[1].ActorRole)
		assert.Equal(t, "vendor-user", history[1].ChangedBy)
	})
}

func TestConcurrentTransitionsFromSameStatusOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	orders := store.NewOrderStore(openTestDB(t))

	o := newOrder("consumer-1", "vendor-1")
	require.NoError(t, orders.Create(ctx, o))
	now := time.Now().UTC()
	for _, step := range []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady} {
		cur, err := orders.Get(ctx, o.ID)
		require.NoError(t, err)
		require.NoError(t, orders.ConditionalUpdate(ctx, o.ID, cur.Status, step, now, models.RoleAdmin, "admin"))
	}

	targets := []models.OrderStatus{models.StatusPickedUp, models.StatusCancelled}
	results := make(chan error, len(targets))
	for _, to := range targets {
		go func(to models.OrderStatus) {
			results <- orders.ConditionalUpdate(ctx, o.ID, models.StatusReady, to, now, models.RoleAdmin, "admin")
		}(to)
	}

	var ok, conflicts int
	for range targets {
		if err := <-results; err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, store.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestAssignShopper(t *testing.T) {
	ctx := context.Background()
	orders := store.NewOrderStore(openTestDB(t))

	o := newOrder("consumer-1", "vendor-1")
	require.NoError(t, orders.Create(ctx, o))

	// not ready yet
	assert.ErrorIs(t, orders.AssignShopper(ctx, o.ID, "shopper-1", time.Now().UTC()), store.ErrConflict)

	now := time.Now().UTC()
	for _, step := range []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady} {
		cur, err := orders.Get(ctx, o.ID)
		require.NoError(t, err)
		require.NoError(t, orders.ConditionalUpdate(ctx, o.ID, cur.Status, step, now, models.RoleVendor, "v"))
	}

	available, err := orders.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)

	claimedAt := now.Add(time.Second)
	require.NoError(t, orders.AssignShopper(ctx, o.ID, "shopper-1", claimedAt))
	assert.ErrorIs(t, orders.AssignShopper(ctx, o.ID, "shopper-2", time.Now().UTC()), store.ErrConflict)
	assert.ErrorIs(t, orders.AssignShopper(ctx, "missing", "shopper-2", time.Now().UTC()), store.ErrNotFound)

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ShopperID)
	assert.Equal(t, "shopper-1", *got.ShopperID)
	assert.Equal(t, claimedAt.UnixMicro(), got.UpdatedAt.UnixMicro())

	available, err = orders.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	mine, err := orders.List(ctx, store.ListFilter{ShopperID: "shopper-1"})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	orders := store.NewOrderStore(openTestDB(t))

	require.NoError(t, orders.Create(ctx, newOrder("c1", "v1")))
	require.NoError(t, orders.Create(ctx, newOrder("c1", "v2")))
	require.NoError(t, orders.Create(ctx, newOrder("c2", "v1")))

	byConsumer, err := orders.List(ctx, store.ListFilter{ConsumerID: "c1"})
	require.NoError(t, err)
	assert.Len(t, byConsumer, 2)

	byVendor, err := orders.List(ctx, store.ListFilter{VendorID: "v1"})
	require.NoError(t, err)
	assert.Len(t, byVendor, 2)

	byStatus, err := orders.List(ctx, store.ListFilter{Status: models.StatusAccepted})
	require.NoError(t, err)
	assert.Empty(t, byStatus)

	all, err := orders.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRoleGrantsAreASet(t *testing.T) {
	ctx := context.Background()
	roles := store.NewRoleStore(openTestDB(t))

	require.NoError(t, roles.Grant(ctx, "u1", models.RoleAdmin))
	require.NoError(t, roles.Grant(ctx, "u1", models.RoleAdmin))
	require.NoError(t, roles.Grant(ctx, "u1", models.RoleVendor))

	got, err := roles.ListRoles(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.UserRole{models.RoleAdmin, models.RoleVendor}, got)

	none, err := roles.ListRoles(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	profiles := store.NewProfileStore(db)
	roles := store.NewRoleStore(db)

	id, err := profiles.VendorProfileID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, id)

	vendor := &models.Vendor{UserID: "u1", Name: "Makola Greens"}
	require.NoError(t, profiles.CreateVendor(ctx, vendor))
	assert.ErrorIs(t, profiles.CreateVendor(ctx, &models.Vendor{UserID: "u1", Name: "again"}), store.ErrProfileExists)

	id, err = profiles.VendorProfileID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, id)

	got, err := profiles.GetVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Makola Greens", got.Name)
	_, err = profiles.GetVendor(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	shopper := &models.Shopper{UserID: "u1", DisplayName: "Kofi"}
	require.NoError(t, profiles.CreateShopper(ctx, shopper))
	id, err = profiles.ShopperProfileID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, shopper.ID, id)

	granted, err := roles.ListRoles(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.UserRole{models.RoleVendor, models.RoleShopper}, granted)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := store.NewUserStore(db)

	u := &models.User{Email: "ama@example.com", PasswordHash: "x", FullName: "Ama"}
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, &models.User{Email: "ama@example.com", PasswordHash: "y"}), store.ErrEmailTaken)

	got, err := users.FindByEmail(ctx, "ama@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	granted, err := store.NewRoleStore(db).ListRoles(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.UserRole{models.RoleConsumer}, granted)
}

func TestListUsersByRole(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := store.NewUserStore(db)

	a := &models.User{Email: "a@example.com", PasswordHash: "x"}
	b := &models.User{Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, a))
	require.NoError(t, users.Create(ctx, b))
	require.NoError(t, store.NewRoleStore(db).Grant(ctx, b.ID, models.RoleAdmin))

	all, err := users.List(ctx, models.RoleNone)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admins, err := users.List(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, b.ID, admins[0].ID)
}

func TestConcurrentRegistrationsSameEmail(t *testing.T) {
	ctx := context.Background()
	users := store.NewUserStore(openTestDB(t))

	const attempts = 6
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = users.Create(ctx, &models.User{Email: "race@example.com", PasswordHash: "x"})
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, store.ErrEmailTaken)
	}
	assert.Equal(t, 1, created)
}

func TestDuplicateShopperProfile(t *testing.T) {
	ctx := context.Background()
	profiles := store.NewProfileStore(openTestDB(t))

	require.NoError(t, profiles.CreateShopper(ctx, &models.Shopper{UserID: "u1", DisplayName: "Kofi"}))
	err := profiles.CreateShopper(ctx, &models.Shopper{UserID: "u1", DisplayName: "Kofi again"})
	assert.ErrorIs(t, err, store.ErrProfileExists)
}
