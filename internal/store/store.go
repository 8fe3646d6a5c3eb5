// Package store defines the durable persistence surface of the reminder
// engine: the template list, the assignment map, and the last successful
// reschedule key. Implementations live under internal/store/<driver>/.
package store

import (
	"context"

	"github.com/spherelog/spherelog/internal/model"
)

// Store persists the three state blobs the engine owns. Reads return the
// empty value when nothing has been written yet; they never invent
// defaults beyond that.
type Store interface {
	LoadTemplates(ctx context.Context) ([]model.Template, error)
	SaveTemplates(ctx context.Context, templates []model.Template) error

	LoadAssignments(ctx context.Context) (model.AssignmentMap, error)
	SaveAssignments(ctx context.Context, assignments model.AssignmentMap) error

	// LoadRescheduleKey returns "" when no schedule pass has persisted yet.
	LoadRescheduleKey(ctx context.Context) (string, error)
	SaveRescheduleKey(ctx context.Context, key string) error

	// Ping verifies connectivity for health probes.
	Ping(ctx context.Context) error
	Close() error
}
