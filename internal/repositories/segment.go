package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// SegmentRepository implements models.Repository[*models.Segment, int64].
type SegmentRepository struct {
	db *sql.DB
}

// NewSegmentRepository creates a new SegmentRepository with the given database connection
func NewSegmentRepository(db *sql.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

const segmentColumns = `id, chapter_id, title, position, duration_seconds, live, created_at, updated_at`

// Create appends a segment to the end of its chapter.
func (r *SegmentRepository) Create(segment *models.Segment) error {
	if err := segment.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if segment.ChapterID == "" {
		return fmt.Errorf("%w: segment %d has no chapter", shared.ErrInvalidInput, segment.ID)
	}

	return inTx(r.db, func(tx *sql.Tx) error {
		pos, err := NextPosition(tx, "segments", "chapter_id", segment.ChapterID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		segment.Position, segment.Live = pos, true
		segment.CreatedAt, segment.UpdatedAt = now, now

		_, err = tx.Exec(
			`INSERT INTO segments (`+segmentColumns+`) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			segment.ID, segment.ChapterID, segment.Title, pos, segment.DurationSeconds, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}
		return nil
	})
}

// Get retrieves a segment by ID, live or not.
func (r *SegmentRepository) Get(id int64) (*models.Segment, error) {
	return r.scan(r.db.QueryRow(`SELECT `+segmentColumns+` FROM segments WHERE id = ?`, id))
}

// Delete removes a segment by ID
func (r *SegmentRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM segments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrSegmentNotFound, id)
	}
	return nil
}

// List retrieves segments in position order.
//
// Supported criteria: "chapter_id" (string), "live" (bool).
func (r *SegmentRepository) List(criteria map[string]any) ([]*models.Segment, error) {
	query := `SELECT ` + segmentColumns + ` FROM segments WHERE 1 = 1`
	args := []any{}

	if chapterID, ok := criteria["chapter_id"].(string); ok && chapterID != "" {
		query += " AND chapter_id = ?"
		args = append(args, chapterID)
	}
	if live, ok := criteria["live"].(bool); ok {
		query += " AND live = ?"
		args = append(args, live)
	}
	query += " ORDER BY chapter_id, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []*models.Segment
	for rows.Next() {
		seg, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return segments, nil
}

func (r *SegmentRepository) scan(row scanner) (*models.Segment, error) {
	s := &models.Segment{}
	err := row.Scan(&s.ID, &s.ChapterID, &s.Title, &s.Position, &s.DurationSeconds, &s.Live, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSegmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan segment: %w", err)
	}
	return s, nil
}
