package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/dialogbot/core/dialog"
	"github.com/m3rciful/dialogbot/core/logger"
)

// ErrSaverClosed is returned when a save is requested after Close.
var ErrSaverClosed = errors.New("session: saver closed")

// Saver decouples session persistence from the event critical path.
// Non-forced saves are enqueued and coalesced: repeated saves for the same
// conversation before a flush collapse into a single latest-wins write.
// Forced saves bypass the queue and flush synchronously, giving the next
// event on the same conversation a read-your-writes guarantee.
type Saver struct {
	store    Store
	interval time.Duration

	mu       sync.Mutex
	idle     *sync.Cond
	pending  map[dialog.ConversationID]*dialog.Session
	flushing map[dialog.ConversationID]int
	closed   bool

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSaver starts a saver flushing pending writes every interval.
// A non-positive interval defaults to 500ms.
func NewSaver(store Store, interval time.Duration) *Saver {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	s := &Saver{
		store:    store,
		interval: interval,
		pending:  make(map[dialog.ConversationID]*dialog.Session),
		flushing: make(map[dialog.ConversationID]int),
		stop:     make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.worker()
	return s
}

// Save enqueues a deferred write. The session is snapshotted so later
// in-place mutation does not leak into the queued value.
func (s *Saver) Save(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSaverClosed
	}
	s.pending[id] = sess.Clone()
	return nil
}

// SaveForced discards any pending deferred write for the conversation and
// writes through synchronously. If a flush is mid-write for the same
// conversation it waits the write out first, so the forced value is the one
// that lands last in the store.
func (s *Saver) SaveForced(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error {
	s.mu.Lock()
	for {
		if s.closed {
			s.mu.Unlock()
			return ErrSaverClosed
		}
		if s.flushing[id] == 0 {
			break
		}
		s.idle.Wait()
	}
	delete(s.pending, id)
	s.mu.Unlock()

	return s.store.Save(ctx, id, sess)
}

// Pending reports the number of queued, unflushed writes.
func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes out every queued session immediately. Each conversation in
// the batch is marked in-flight until its write returns, which keeps
// SaveForced from racing ahead of a stale snapshot.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[dialog.ConversationID]*dialog.Session)
	for id := range batch {
		s.flushing[id]++
	}
	s.mu.Unlock()

	var errs []error
	for id, sess := range batch {
		if err := s.store.Save(ctx, id, sess); err != nil {
			logger.Error(ctx, "session", "save.deferred_failed",
				slog.String("conversation", id.String()),
				slog.String("err", err.Error()),
			)
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	for id := range batch {
		if s.flushing[id]--; s.flushing[id] == 0 {
			delete(s.flushing, id)
		}
	}
	s.mu.Unlock()
	s.idle.Broadcast()

	return errors.Join(errs...)
}

// Close stops the worker after a final flush.
func (s *Saver) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
		s.wg.Wait()
		err = s.Flush(context.Background())
	})
	return err
}

func (s *Saver) worker() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.Flush(context.Background())
		case <-s.stop:
			return
		}
	}
}
