// Package scope decides the billable unit for a movement: the movement
// alone, or the full rotation it belongs to.
package scope

import (
	"context"
	"fmt"
	"sort"

	"github.com/iurnickita/airbilling/internal/model"
	"go.uber.org/zap"
)

// MovementStore is the slice of the data store the resolver needs.
type MovementStore interface {
	MovementsGetByRotationID(ctx context.Context, rotationID string) ([]model.Movement, error)
}

type Resolver interface {
	ResolveBillingScope(ctx context.Context, movement model.Movement) model.BillingScope
}

type resolver struct {
	store  MovementStore
	zaplog *zap.Logger
}

func NewResolver(store MovementStore, zaplog *zap.Logger) Resolver {
	return &resolver{store: store, zaplog: zaplog}
}

// ResolveBillingScope never fails: a rotation link is honored only when
// both legs are present and retrievable, otherwise the scope degrades to
// the single movement so billing can proceed.
func (r *resolver) ResolveBillingScope(ctx context.Context, movement model.Movement) model.BillingScope {
	if movement.RotationID == nil || *movement.RotationID == "" {
		return model.BillingScope{
			Kind:      model.ScopeSingle,
			Movements: []model.Movement{movement},
		}
	}

	rotationID := *movement.RotationID
	movements, err := r.store.MovementsGetByRotationID(ctx, rotationID)
	if err != nil {
		r.zaplog.Warn("rotation fetch failed, billing single leg",
			zap.String("rotation", rotationID),
			zap.Int64("movement", movement.ID),
			zap.Error(err),
		)
		return model.BillingScope{
			Kind:      model.ScopeSingle,
			Movements: []model.Movement{movement},
			Degraded:  true,
		}
	}
	if len(movements) < 2 {
		return model.BillingScope{
			Kind:      model.ScopeSingle,
			Movements: []model.Movement{movement},
		}
	}

	sort.Slice(movements, func(i, j int) bool {
		return movements[i].ScheduledAt.Before(movements[j].ScheduledAt)
	})

	return model.BillingScope{
		Kind:       model.ScopeRotation,
		Movements:  movements,
		RotationID: rotationID,
	}
}

// ScopeLabel is a short human description for previews and audit entries.
func ScopeLabel(scope model.BillingScope) string {
	switch scope.Kind {
	case model.ScopeRotation:
		return fmt.Sprintf("rotation %s (%d movements)", scope.RotationID, len(scope.Movements))
	default:
		if len(scope.Movements) == 1 {
			return fmt.Sprintf("single movement %d", scope.Movements[0].ID)
		}
		return "single movement"
	}
}

// MovementsSummary lists one line per movement in scope order.
func MovementsSummary(scope model.BillingScope) []string {
	summary := make([]string, 0, len(scope.Movements))
	for _, movement := range scope.Movements {
		summary = append(summary, fmt.Sprintf("%s %s %s %s",
			movement.Kind,
			movement.Registration,
			movement.AirlineCode,
			movement.ScheduledAt.Format("2006-01-02 15:04"),
		))
	}
	return summary
}
