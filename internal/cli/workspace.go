package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mff-uk/dataspecer-sub018/internal/config"
	"github.com/mff-uk/dataspecer-sub018/internal/federated"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
	"github.com/mff-uk/dataspecer-sub018/internal/remote"
	"github.com/mff-uk/dataspecer-sub018/internal/store"
)

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // keeps JSON output parseable
		Verbose:   o.Verbose,
	}
}

// loadConfig reads the workspace file and applies flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.Workspace)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load workspace", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	return cfg, nil
}

// newLogger logs to w at the configured level; --verbose forces debug.
func (o *RootOptions) newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// workspace is an opened workspace: its database and a federation holding
// every stored schema as a write-through store.
type workspace struct {
	cfg    *config.Config
	db     *store.Store
	fed    *federated.Store
	logger *slog.Logger
}

// openDatabase loads the configuration and opens its database.
func openDatabase(opts *RootOptions, cmd *cobra.Command) (*config.Config, *store.Store, *slog.Logger, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("database opened", "path", cfg.Database)
	return cfg, db, logger, nil
}

// openWorkspace opens the database and loads every stored schema into a
// federation. With remotes set, the configured remote specifications are
// fetched and added as read-only stores.
func openWorkspace(ctx context.Context, opts *RootOptions, cmd *cobra.Command, remotes bool) (*workspace, error) {
	cfg, db, logger, err := openDatabase(opts, cmd)
	if err != nil {
		return nil, err
	}
	ws := &workspace{
		cfg:    cfg,
		db:     db,
		fed:    federated.New(federated.WithLogger(logger)),
		logger: logger,
	}
	if err := ws.load(ctx, remotes); err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

func (w *workspace) load(ctx context.Context, remotes bool) error {
	schemas, err := w.db.ListSchemas(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list schemas", err)
	}
	for _, iri := range schemas {
		s, err := store.OpenSynced(ctx, w.db, iri, w.storeOptions()...)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load schema %s", iri), err)
		}
		if err := w.fed.AddStore(ctx, s); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load schema %s", iri), err)
		}
	}
	if !remotes {
		return nil
	}
	for _, url := range w.cfg.Remotes {
		stores, err := remote.Fetch(ctx, nil, url)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to fetch remote specification", err)
		}
		for _, ro := range stores {
			if err := w.fed.AddStore(ctx, ro); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to add remote schema %s", ro.SchemaIRI()), err)
			}
		}
		w.logger.Debug("remote specification added", "url", url, "schemas", len(stores))
	}
	return nil
}

func (w *workspace) storeOptions() []memstore.Option {
	return []memstore.Option{
		memstore.WithGenerator(memstore.GeneratorForScheme(w.cfg.Identifiers)),
		memstore.WithLogger(w.logger),
	}
}

// newStore is the harness.StoreFactory for schema-creating script steps.
func (w *workspace) newStore(context.Context) (federated.WritableBackend, error) {
	return store.NewSynced(w.db, memstore.New(w.storeOptions()...)), nil
}

// Close releases the federation and the database.
func (w *workspace) Close() {
	w.fed.Close()
	_ = w.db.Close()
}
