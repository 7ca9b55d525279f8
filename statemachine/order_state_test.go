package statemachine

import (
	"testing"

	"food-marketplace-api/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		actor   models.UserRole
		allowed bool
	}{
		{"rider claims pending", models.StatusPending, models.StatusPreparing, models.RoleRider, true},
		{"rider cannot claim ready", models.StatusReady, models.StatusPreparing, models.RoleRider, false},
		{"user cancels pending", models.StatusPending, models.StatusCancelled, models.RoleUser, true},
		{"user cancels preparing", models.StatusPreparing, models.StatusCancelled, models.RoleUser, true},
		{"user cannot cancel ready", models.StatusReady, models.StatusCancelled, models.RoleUser, false},
		{"rider delivers ready", models.StatusReady, models.StatusCompleted, models.RoleRider, true},
		{"rider cannot complete preparing", models.StatusPreparing, models.StatusCompleted, models.RoleRider, false},
		{"admin reopens completed", models.StatusCompleted, models.StatusPending, models.RoleAdmin, true},
		{"unknown actor", models.StatusPending, models.StatusCancelled, models.UserRole("host"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanTransition(tc.from, tc.to, tc.actor)
			if tc.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tc.allowed && err == nil {
				t.Error("expected rejection")
			}
		})
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range models.OrderStatuses {
		want := s == models.StatusCompleted || s == models.StatusCancelled
		if got := IsTerminal(s); got != want {
			t.Errorf("%s: expected terminal=%v, got %v", s, want, got)
		}
	}
}

func TestValidTransitionsFrom_Deduplicates(t *testing.T) {
	nexts := ValidTransitionsFrom(models.StatusPending)
	if len(nexts) != 2 {
		t.Fatalf("expected 2 next states from Pending, got %v", nexts)
	}
}
