package session

import (
	"context"
	"time"

	"github.com/m3rciful/dialogbot/core/dialog"
)

const sessionKind = "session"

// Manager combines the backing store, the snapshot cache, and the deferred
// saver into the dispatcher's session surface. Loads read through the
// cache; every save overwrites the cached snapshot synchronously before the
// write is queued or flushed.
type Manager struct {
	store Store
	cache *Cache
	saver *Saver
}

// NewManager wires a manager over the given store.
func NewManager(store Store, flushInterval time.Duration) *Manager {
	return &Manager{
		store: store,
		cache: NewCache(),
		saver: NewSaver(store, flushInterval),
	}
}

// Load returns the conversation's session, preferring the cached snapshot.
// Per-conversation exclusivity in the dispatcher makes handing out the
// cached instance safe.
func (m *Manager) Load(ctx context.Context, id dialog.ConversationID) (*dialog.Session, error) {
	if v, ok := m.cache.Get(sessionKind, id.String()); ok {
		if sess, ok := v.(*dialog.Session); ok {
			return sess, nil
		}
	}
	sess, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Put(sessionKind, id.String(), sess)
	return sess, nil
}

// Save updates the cache and enqueues a coalesced deferred write.
func (m *Manager) Save(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error {
	m.cache.Put(sessionKind, id.String(), sess)
	return m.saver.Save(ctx, id, sess)
}

// SaveForced updates the cache and writes through before returning.
func (m *Manager) SaveForced(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error {
	m.cache.Put(sessionKind, id.String(), sess)
	return m.saver.SaveForced(ctx, id, sess)
}

// Entities exposes the generic record CRUD of the backing store.
func (m *Manager) Entities() EntityStore {
	return m.store
}

// Close flushes pending writes and stops the saver.
func (m *Manager) Close() error {
	return m.saver.Close()
}
