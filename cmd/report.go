package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vidtrack/internal/formatter"
	"github.com/desertthunder/vidtrack/internal/repositories"
	"github.com/desertthunder/vidtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Report renders a user's progress across all live courses.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	user := cmd.String("user")
	format := cmd.String("format")

	db, err := r.database()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := repositories.NewProgressRepository(db).Report(user)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteReport(output, format, user, rows); err != nil {
			return err
		}
		r.logger.Info("report written", "path", output, "rows", len(rows))
		return r.writePlain("✓ Report saved to %s\n", output)
	}

	data, err := formatter.Render(format, user, rows)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Export writes one report file per user and prints progress as it goes.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	defer db.Close()

	exporter := tasks.NewReportExporter(repositories.NewProgressRepository(db), r.logger)

	prog := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := exporter.BulkExport(ctx, prog, cmd.StringSlice("user"), tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete")
	r.writePlain("Users: %d (%d ok, %d failed)\n", result.TotalUsers, result.SuccessfulExports, result.FailedExports)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}
