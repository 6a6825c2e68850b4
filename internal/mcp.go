package internal

import (
	"context"
	"log/slog"
	"os"

	"github.com/starford/wanderlog/internal/catalog"
	"github.com/starford/wanderlog/internal/mcpserver"
	"github.com/starford/wanderlog/internal/postservice"
)

// ServeMCP serves the post tools over stdio until the client disconnects.
// Logs go to stderr; stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	db, err := openMirror(app.config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	var cat *catalog.Index
	var hooks []catalog.ChangeHook
	if db != nil {
		hooks = append(hooks, syncHook(ctx, db, &cat, app.logger))
	}
	cat, err = newCatalog(app.config, app.logger, hooks...)
	if err != nil {
		return err
	}
	if _, err := cat.Refresh(ctx); err != nil {
		app.logger.Warn("initial index build failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(postservice.NewService(cat, mirrorOf(db)), app.version)
	return srv.ServeStdio()
}
