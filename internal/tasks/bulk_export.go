package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/vidtrack/internal/formatter"
	"github.com/desertthunder/vidtrack/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk report exports.
type BulkExportOpts struct {
	Format     string  // Export format: txt, csv, markdown
	OutputDir  string  // Base output directory (default: reports_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max 10)
	RateLimit  float64 // Reports started per second, zero for unlimited
}

// ReportExportResult is the outcome for one user.
type ReportExportResult struct {
	UserID  string `json:"user_id"`
	File    string `json:"file,omitempty"`
	Rows    int    `json:"rows"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Message string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export, and is what the manifest contains.
type BulkExportResult struct {
	Format            string               `json:"format"`
	TotalUsers        int                  `json:"total_users"`
	SuccessfulExports int                  `json:"successful_exports"`
	FailedExports     int                  `json:"failed_exports"`
	OutputDirectory   string               `json:"output_directory"`
	ManifestPath      string               `json:"-"`
	Results           []ReportExportResult `json:"results"`
}

// BulkExport writes one report per user into opts.OutputDir. An empty users list means every user the source
// knows about.
func (e *ReportExporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	users []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: report source not initialized", shared.ErrServiceUnavailable)
	}

	ext, err := extension(opts.Format)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		if users, err = e.source.Users(); err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		e.sendProgress(prog, listUsersUpdate(len(users)))
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("reports_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		TotalUsers:      len(users),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ReportExportResult, 0, len(users)),
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	jobs := make(chan string, len(users))
	results := make(chan ReportExportResult, len(users))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts, ext)
	}

	go func() {
		defer close(jobs)
		for i, user := range users {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- user
			e.sendProgress(prog, exportingReportUpdate(i+1, len(users), user))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(users), res.UserID, res.Rows))
		} else {
			result.FailedExports++
			res.Message = res.Error.Error()
			e.logger.Warn("report export failed", "user", res.UserID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(users), res.UserID, res.Error))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].UserID < result.Results[j].UserID })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports reports for users from the jobs channel.
func (e *ReportExporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan string,
	results chan<- ReportExportResult,
	opts BulkExportOpts,
	ext string,
) {
	defer wg.Done()

	for user := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSingleReport(user, opts, ext)
	}
}

// exportSingleReport renders one user's report to {dir}/{escaped user}{ext}.
func (e *ReportExporter) exportSingleReport(user string, opts BulkExportOpts, ext string) ReportExportResult {
	result := ReportExportResult{UserID: user}

	rows, err := e.source.Report(user)
	if err != nil {
		result.Error = fmt.Errorf("failed to build report: %w", err)
		return result
	}

	path := filepath.Join(opts.OutputDir, url.PathEscape(user)+ext)
	if err := formatter.WriteReport(path, opts.Format, user, rows); err != nil {
		result.Error = err
		return result
	}

	result.File = path
	result.Rows = len(rows)
	result.Success = true
	return result
}

func extension(format string) (string, error) {
	switch format {
	case formatter.FormatText, "":
		return ".txt", nil
	case formatter.FormatCSV:
		return ".csv", nil
	case formatter.FormatMarkdown, "md":
		return ".md", nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
