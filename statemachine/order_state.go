package statemachine

import (
	"fmt"
	"strings"

	"food-marketplace-api/models"
)

// Transition defines a lifecycle edge and who normally performs it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.UserRole    `json:"actor"`
}

// lifecycle is the documented order flow. Users and riders are held to it;
// owners and admins may set any recognised status.
var lifecycle = []Transition{
	// Rider claims a pending order, or the kitchen starts it directly
	{From: models.StatusPending, To: models.StatusPreparing, Actor: models.RoleRider},
	{From: models.StatusPending, To: models.StatusPreparing, Actor: models.RoleOwner},
	// Either side can cancel before the food is ready
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleUser},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleOwner},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleUser},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleOwner},
	// Kitchen marks the order ready
	{From: models.StatusPreparing, To: models.StatusReady, Actor: models.RoleOwner},
	// Rider hands it over
	{From: models.StatusReady, To: models.StatusCompleted, Actor: models.RoleRider},
	{From: models.StatusReady, To: models.StatusCompleted, Actor: models.RoleOwner},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range lifecycle {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all documented next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range lifecycle {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no documented edge leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// CanTransition checks if a given actor can move from one state to another.
// Admins are never restricted.
func CanTransition(from, to models.OrderStatus, actor models.UserRole) error {
	switch actor {
	case models.RoleAdmin:
		return nil
	case models.RoleUser, models.RoleRider, models.RoleOwner:
	default:
		return fmt.Errorf("unknown actor %q", actor)
	}
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for %s. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full lifecycle for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(lifecycle))
	copy(out, lifecycle)
	return out
}
