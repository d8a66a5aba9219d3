package statemachine

import (
	"marketplace-api/models"
)

// Transition defines a valid status change and the effective role allowed to perform it
type Transition struct {
	Role models.UserRole    `json:"role"`
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// roleTransitions is the authoritative policy: role -> current status -> allowed next statuses.
// Ordinary roles each own one segment of the pipeline.
var roleTransitions = map[models.UserRole]map[models.OrderStatus][]models.OrderStatus{
	models.RoleConsumer: {
		models.StatusInspecting: {models.StatusApproved, models.StatusDisputed},
		models.StatusApproved:   {models.StatusCompleted},
	},
	models.RoleVendor: {
		models.StatusPending:   {models.StatusAccepted, models.StatusCancelled},
		models.StatusAccepted:  {models.StatusPreparing},
		models.StatusPreparing: {models.StatusReady},
	},
	models.RoleShopper: {
		models.StatusReady:    {models.StatusPickedUp},
		models.StatusPickedUp: {models.StatusInspecting},
	},
	models.RoleAdmin: adminTransitions(),
}

// adminTransitions lets admins move any open order anywhere else. Settled orders only allow
// completed <-> disputed (and disputed -> cancelled); cancelled is terminal even for admins.
func adminTransitions() map[models.OrderStatus][]models.OrderStatus {
	m := make(map[models.OrderStatus][]models.OrderStatus)
	for _, from := range models.AllStatuses() {
		switch from {
		case models.StatusCompleted:
			m[from] = []models.OrderStatus{models.StatusDisputed}
		case models.StatusDisputed:
			m[from] = []models.OrderStatus{models.StatusCompleted, models.StatusCancelled}
		case models.StatusCancelled:
			m[from] = nil
		default:
			for _, to := range models.AllStatuses() {
				if to != from {
					m[from] = append(m[from], to)
				}
			}
		}
	}
	return m
}

// transitionKey is used to look up the allowed set quickly
type transitionKey struct {
	Role models.UserRole
	From models.OrderStatus
}

// Build the lookup map once; it is never written after package init
var transitionMap = func() map[transitionKey]map[models.OrderStatus]struct{} {
	m := make(map[transitionKey]map[models.OrderStatus]struct{})
	for role, byFrom := range roleTransitions {
		for from, tos := range byFrom {
			set := make(map[models.OrderStatus]struct{}, len(tos))
			for _, to := range tos {
				set[to] = struct{}{}
			}
			m[transitionKey{Role: role, From: from}] = set
		}
	}
	return m
}()

// AllowedNext returns the statuses role may move an order into from the given status,
// in pipeline order. Undefined combinations yield an empty slice.
func AllowedNext(role models.UserRole, from models.OrderStatus) []models.OrderStatus {
	set := transitionMap[transitionKey{Role: role, From: from}]
	nexts := make([]models.OrderStatus, 0, len(set))
	for _, s := range models.AllStatuses() {
		if _, ok := set[s]; ok {
			nexts = append(nexts, s)
		}
	}
	return nexts
}

// IsAllowed reports whether role may move an order from one status to another
func IsAllowed(role models.UserRole, from, to models.OrderStatus) bool {
	_, ok := transitionMap[transitionKey{Role: role, From: from}][to]
	return ok
}

// GetAllTransitions returns the full policy for documentation, grouped by role
// then ordered along the pipeline
func GetAllTransitions() []Transition {
	var all []Transition
	for _, role := range []models.UserRole{models.RoleConsumer, models.RoleVendor, models.RoleShopper, models.RoleAdmin} {
		for _, from := range models.AllStatuses() {
			for _, to := range AllowedNext(role, from) {
				all = append(all, Transition{Role: role, From: from, To: to})
			}
		}
	}
	return all
}

// IsTerminalFor reports whether no transition leaves the given status for role
func IsTerminalFor(role models.UserRole, status models.OrderStatus) bool {
	return len(transitionMap[transitionKey{Role: role, From: status}]) == 0
}
