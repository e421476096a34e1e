// Package bootstrap initializes shared infrastructure and assembles the
// dialogue engine: logger, database, session manager, state registry, and
// dispatcher.
package bootstrap

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	coredatabase "github.com/m3rciful/dialogbot/core/database"
	"github.com/m3rciful/dialogbot/core/dialog"
	"github.com/m3rciful/dialogbot/core/dialog/field"
	"github.com/m3rciful/dialogbot/core/dialog/form"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/session"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	// States registers the application's states into the registry. The
	// start state must be registered here.
	States func(reg *dialog.Registry)

	// SkipMigrations leaves schema management to the operator.
	SkipMigrations bool
}

// Result exposes the assembled runtime components.
type Result struct {
	Sessions   *session.Manager
	Registry   *dialog.Registry
	Dispatcher *dialog.Dispatcher
}

// Close flushes deferred session writes and releases resources.
func (r *Result) Close() error {
	if r.Sessions == nil {
		return nil
	}
	return r.Sessions.Close()
}

// Run initializes the logger, connects the database, applies migrations, and
// wires the dialogue engine.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	if err := logger.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	db, err := coredatabase.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if !opts.SkipMigrations {
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	flush := time.Duration(cfg.Dialog.SaveFlushMS) * time.Millisecond
	sessions := session.NewManager(session.NewSQLStore(db), flush)

	field.SetDefaultPageSize(cfg.Dialog.PageSize)

	// Bind the form hook factory to the entity store so persisted forms
	// can be rebuilt on any later event.
	form.Register(sessions.Entities())

	registry := dialog.NewRegistry()
	if opts.States != nil {
		opts.States(registry)
	}
	if !registry.Has(dialog.StartState) {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: state %q is not registered", dialog.StartState)
	}

	return &Result{
		Sessions:   sessions,
		Registry:   registry,
		Dispatcher: dialog.NewDispatcher(registry, sessions),
	}, nil
}
