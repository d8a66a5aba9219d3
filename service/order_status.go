// Package service applies role-aware order status changes.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marketplace-api/auth"
	"marketplace-api/models"
	"marketplace-api/statemachine"
	"marketplace-api/store"
)

// Authenticator maps a bearer token to a user id.
// Invalid tokens must yield auth.ErrInvalidToken; any other error is treated as an outage.
type Authenticator interface {
	Verify(ctx context.Context, token string) (string, error)
}

type OrderStore interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	ConditionalUpdate(ctx context.Context, id string, expected, next models.OrderStatus,
		at time.Time, actorRole models.UserRole, changedBy string) error
}

type RoleResolver interface {
	Resolve(ctx context.Context, callerID string, order *models.Order) (models.UserRole, error)
}

// StatusListener is told about every committed transition. Failures are logged, never returned.
type StatusListener interface {
	StatusChanged(ctx context.Context, change models.StatusChange) error
}

// SnapshotCache serves reads only; writes always go to the store
type SnapshotCache interface {
	Get(ctx context.Context, id string) (*models.Order, bool, error)
	Set(ctx context.Context, order *models.Order) error
}

// Result describes an applied transition
type Result struct {
	OrderID        string             `json:"orderId"`
	PreviousStatus models.OrderStatus `json:"previousStatus"`
	NewStatus      models.OrderStatus `json:"newStatus"`
	Role           models.UserRole    `json:"-"`
}

type Option func(*OrderStatusService)

func WithListeners(listeners ...StatusListener) Option {
	return func(s *OrderStatusService) { s.listeners = append(s.listeners, listeners...) }
}

func WithCache(c SnapshotCache) Option {
	return func(s *OrderStatusService) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *OrderStatusService) { s.now = now }
}

type OrderStatusService struct {
	auth      Authenticator
	orders    OrderStore
	resolver  RoleResolver
	cache     SnapshotCache
	listeners []StatusListener
	now       func() time.Time
	tracer    trace.Tracer
}

func NewOrderStatusService(a Authenticator, orders OrderStore, resolver RoleResolver, opts ...Option) *OrderStatusService {
	s := &OrderStatusService{
		auth:     a,
		orders:   orders,
		resolver: resolver,
		now:      time.Now,
		tracer:   otel.Tracer("marketplace-api/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate returns the caller's user id
func (s *OrderStatusService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	userID, err := s.auth.Verify(ctx, token)
	if errors.Is(err, auth.ErrInvalidToken) {
		return "", errors.Join(ErrUnauthenticated, err)
	}
	if err != nil {
		return "", infra("verify token", err)
	}
	return userID, nil
}

// UpdateStatus authenticates the token and applies the transition
func (s *OrderStatusService) UpdateStatus(ctx context.Context, token, orderID string, requested models.OrderStatus) (*Result, error) {
	callerID, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.UpdateStatusAs(ctx, callerID, orderID, requested)
}

// UpdateStatusAs moves orderID to requested on behalf of an authenticated caller.
// The write only lands if the order still holds the status the decision was made against.
func (s *OrderStatusService) UpdateStatusAs(ctx context.Context, callerID, orderID string, requested models.OrderStatus) (res *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderStatusService.UpdateStatus",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.to", string(requested)),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.from", string(order.Status)))

	role, err := s.resolver.Resolve(ctx, callerID, order)
	if err != nil {
		return nil, infra("resolve role", err)
	}
	span.SetAttributes(attribute.String("order.role", string(role)))
	if role == models.RoleNone {
		return nil, ErrForbidden
	}

	from := order.Status
	if !statemachine.IsAllowed(role, from, requested) {
		return nil, &TransitionError{Role: role, From: from, To: requested}
	}

	at := s.now().UTC()
	err = s.orders.ConditionalUpdate(ctx, order.ID, from, requested, at, role, callerID)
	switch {
	case errors.Is(err, store.ErrConflict):
		return nil, ErrConflict
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, infra("update status", err)
	}

	s.notify(ctx, models.StatusChange{
		OrderID:   order.ID,
		From:      from,
		To:        requested,
		Role:      role,
		ChangedBy: callerID,
		At:        at,
	})

	return &Result{OrderID: order.ID, PreviousStatus: from, NewStatus: requested, Role: role}, nil
}

// ReadOrder returns the order along with the caller's effective role on it
func (s *OrderStatusService) ReadOrder(ctx context.Context, callerID, orderID string) (*models.Order, models.UserRole, error) {
	order, err := s.cached(ctx, orderID)
	if err != nil {
		return nil, models.RoleNone, err
	}
	role, err := s.resolver.Resolve(ctx, callerID, order)
	if err != nil {
		return nil, models.RoleNone, infra("resolve role", err)
	}
	if role == models.RoleNone {
		return nil, models.RoleNone, ErrForbidden
	}
	return order, role, nil
}

func (s *OrderStatusService) load(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, infra("load order", err)
	}
	return order, nil
}

func (s *OrderStatusService) cached(ctx context.Context, orderID string) (*models.Order, error) {
	if s.cache == nil {
		return s.load(ctx, orderID)
	}
	order, ok, err := s.cache.Get(ctx, orderID)
	if err != nil {
		log.Printf("order cache get %s: %v", orderID, err)
	}
	if ok {
		return order, nil
	}
	order, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, order); err != nil {
		log.Printf("order cache set %s: %v", orderID, err)
	}
	return order, nil
}

func (s *OrderStatusService) notify(ctx context.Context, change models.StatusChange) {
	for _, l := range s.listeners {
		if err := l.StatusChanged(ctx, change); err != nil {
			log.Printf("status listener for order %s: %v", change.OrderID, err)
		}
	}
}
