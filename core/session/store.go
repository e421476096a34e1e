// Package session owns conversation persistence: the backing store, a
// read-through entity cache, and a deferred saver that coalesces writes off
// the event critical path.
package session

import (
	"context"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// EntityStore is the generic record CRUD consumed by form and select
// widgets to enumerate and mutate domain records.
type EntityStore interface {
	List(ctx context.Context, model string, filter map[string]any) ([]map[string]any, error)
	Get(ctx context.Context, model string, pk any) (map[string]any, error)
	Create(ctx context.Context, model string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, model string, pk any) error
}

// Store is the authoritative persistence surface for sessions plus the
// entity CRUD. Load returns dialog.ErrSessionNotFound for unknown
// conversations. Save is a synchronous, immediate write; deferral and
// coalescing live in the Saver, not here.
type Store interface {
	Load(ctx context.Context, id dialog.ConversationID) (*dialog.Session, error)
	Save(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error
	EntityStore
}
