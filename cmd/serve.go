package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/vidtrack/internal/repositories"
	"github.com/desertthunder/vidtrack/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the progress server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if h := cmd.String("host"); h != "" {
		host = h
	}
	port := r.config.Server.Port
	if p := cmd.Int("port"); p != 0 {
		port = p
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	defer db.Close()

	handler := server.New(server.Options{
		Segments: repositories.NewSegmentRepository(db),
		Progress: repositories.NewProgressRepository(db),
		Token:    r.config.Server.Token,
		Logger:   r.logger,
	})

	r.logger.Debug("routes registered", "patterns", handler.Routes())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx, fmt.Sprintf("%s:%d", host, port), handler, r.logger)
}
