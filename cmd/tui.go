package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vidtrack/internal/player"
	"github.com/desertthunder/vidtrack/internal/repositories"
	"github.com/desertthunder/vidtrack/internal/services"
	"github.com/desertthunder/vidtrack/internal/shared"
	"github.com/desertthunder/vidtrack/internal/tracker"
	"github.com/desertthunder/vidtrack/internal/ui"
	"github.com/urfave/cli/v3"
)

const tickInterval = 250 * time.Millisecond

// watchControls maps view keys onto the engine and the simulated player.
type watchControls struct {
	engine *tracker.Engine
	sim    *player.Simulator
}

func (c watchControls) Seek(index int) bool { return c.engine.Seek(index) }

func (c watchControls) TogglePlayback(ctx context.Context) error {
	if c.sim.Playing() {
		return c.sim.Pause(ctx)
	}
	return c.sim.Play(ctx)
}

// Watch plays a segment in the simulated terminal player while the tracker records and syncs progress.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	segmentID := cmd.Int64("segment")
	duration := cmd.Float("duration")
	cfg := r.config

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cfg.Tracker.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(cfg.LogLevel))
	r.SetLogger(fileLogger)

	title := fmt.Sprintf("Segment %d", segmentID)
	var cache tracker.Cache = repositories.NewMemoryCache()
	if db, err := r.database(); err != nil {
		r.logger.Warn("database unavailable, progress snapshot kept in memory", "error", err)
	} else {
		defer db.Close()
		cache = repositories.NewWatchCacheRepository(db)

		if seg, err := repositories.NewSegmentRepository(db).Get(segmentID); err == nil {
			title = seg.Title
			if duration <= 0 {
				duration = seg.DurationSeconds
			}
		}
	}
	if duration <= 0 {
		return fmt.Errorf("%w: --duration is required for segments without a stored duration", shared.ErrMissingArgument)
	}

	sim, err := player.NewSimulator(player.SimulatorOpts{
		Duration: duration,
		Interval: tickInterval,
		Speed:    cmd.Float("speed"),
	})
	if err != nil {
		return err
	}
	defer sim.Close()

	deps := tracker.Deps{Cache: cache}
	if !cmd.Bool("offline") {
		user := cmd.String("user")
		if user == "" {
			user = cfg.Sync.UserID
		}
		client := services.NewHTTPClient(ctx, cfg.Sync.Token, cfg.Sync.Timeout.Duration)
		svc := services.NewProgressService(
			services.NewAPIService(cfg.Sync.BaseURL, user, client),
			services.ProgressServiceOpts{RateLimit: cfg.Sync.RateLimit, Logger: r.logger},
		)
		deps.Syncer, deps.Fetcher = svc, svc
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, ui.Options{
		Title:         title,
		SegmentCount:  cfg.Tracker.SegmentCount,
		ReducedMotion: cfg.Accessibility.ReducedMotion,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	deps.Projection = ui.NewProjector(p.Send)
	engine, err := tracker.New(tracker.Config{
		SegmentID:      segmentID,
		SegmentCount:   cfg.Tracker.SegmentCount,
		ThrottleWindow: cfg.Tracker.ThrottleWindow.Duration,
		ReducedMotion:  cfg.Accessibility.ReducedMotion,
		Logger:         r.logger,
	}, deps)
	if err != nil {
		return err
	}
	model.SetControls(watchControls{engine: engine, sim: sim})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Send(ui.EngineDone(r.track(ctx, engine, sim)))
	}()

	_, runErr := p.Run()
	cancel()
	sim.Close()
	<-done

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running watch view: %w", runErr)
	}
	return nil
}

// track connects to the player and runs the engine until ctx ends or the player closes.
func (r *Runner) track(ctx context.Context, engine *tracker.Engine, sim *player.Simulator) error {
	cfg := r.config.Tracker
	pl, err := player.Connect(ctx, sim.Factory(), player.ConnectOpts{
		Delay:       cfg.PlayerRetryDelay.Duration,
		MaxAttempts: cfg.PlayerMaxAttempts,
		Logger:      r.logger,
	})
	if err != nil {
		return err
	}

	if !r.config.Accessibility.ReducedMotion {
		if err := pl.Play(ctx); err != nil {
			r.logger.Warn("autoplay failed", "error", err)
		}
	}

	if err := engine.Run(ctx, pl); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
