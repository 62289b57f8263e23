// package formatter renders per-user progress reports in various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "txt"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Render dispatches to the exporter for format. "md" is accepted as an alias for markdown.
func Render(format, userID string, rows []models.ReportRow) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatText, "text", "":
		return ReportToText(userID, rows)
	case FormatCSV:
		return ReportToCSV(rows)
	case FormatMarkdown, "md":
		return ReportToMarkdown(userID, rows)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ReportToCSV converts report rows to CSV with columns: Course, Chapter, Segment ID, Segment, Percent, Completed
func ReportToCSV(rows []models.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Course", "Chapter", "Segment ID", "Segment", "Percent", "Completed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Course,
			row.Chapter,
			strconv.FormatInt(row.SegmentID, 10),
			row.Segment,
			formatPercent(row.PercentWatched),
			strconv.FormatBool(row.Completed),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders one section per course and a table per chapter.
func ReportToMarkdown(userID string, rows []models.ReportRow) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Progress for %s\n\n", userID)
	if len(rows) == 0 {
		buf.WriteString("_No courses._\n")
		return buf.Bytes(), nil
	}

	var course, chapter string
	for i, row := range rows {
		newCourse := i == 0 || row.Course != course
		if newCourse {
			if i > 0 {
				buf.WriteString("\n")
			}
			course = row.Course
			fmt.Fprintf(&buf, "## %s%s\n\n", escapeMarkdown(row.Course), doneSuffix(row.CourseCompleted))
		}
		if newCourse || row.Chapter != chapter {
			if !newCourse {
				buf.WriteString("\n")
			}
			chapter = row.Chapter
			fmt.Fprintf(&buf, "### %s%s\n\n", escapeMarkdown(row.Chapter), doneSuffix(row.ChapterCompleted))
			buf.WriteString("| Segment | Percent | Completed |\n")
			buf.WriteString("| --- | ---: | :---: |\n")
		}

		mark := ""
		if row.Completed {
			mark = "✓"
		}
		fmt.Fprintf(&buf, "| %s | %s%% | %s |\n", escapeMarkdown(row.Segment), formatPercent(row.PercentWatched), mark)
	}

	return buf.Bytes(), nil
}

// ReportToText converts report rows to an indented plain text outline
func ReportToText(userID string, rows []models.ReportRow) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Progress: %s\n", userID)
	if len(rows) == 0 {
		buf.WriteString("No courses.\n")
		return buf.Bytes(), nil
	}

	var course, chapter string
	for i, row := range rows {
		newCourse := i == 0 || row.Course != course
		if newCourse {
			course = row.Course
			fmt.Fprintf(&buf, "\n%s%s\n", row.Course, doneSuffix(row.CourseCompleted))
		}
		if newCourse || row.Chapter != chapter {
			chapter = row.Chapter
			fmt.Fprintf(&buf, "  %s%s\n", row.Chapter, doneSuffix(row.ChapterCompleted))
		}
		fmt.Fprintf(&buf, "    %-32s %6s%%\n", row.Segment, formatPercent(row.PercentWatched))
	}

	return buf.Bytes(), nil
}

// WriteReport renders the report and writes it to path.
func WriteReport(path, format, userID string, rows []models.ReportRow) error {
	data, err := Render(format, userID, rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func doneSuffix(done bool) string {
	if done {
		return " (complete)"
	}
	return ""
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
