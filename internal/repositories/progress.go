package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/shared"
)

// CompleteThreshold is the percent at which a segment counts toward completion.
const CompleteThreshold = 100.0

// ProgressRepository persists per-user segment progress and chapter/course completion.
type ProgressRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProgressRepository creates a new ProgressRepository with the given database connection
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// RecordResult is the outcome of [ProgressRepository.Record].
type RecordResult struct {
	Progress         *models.SegmentProgress
	ChapterCompleted bool
	CourseCompleted  bool
	// ChapterFirst and CourseFirst report completion reached for the first time by this write.
	ChapterFirst bool
	CourseFirst  bool
}

// Record overwrites a user's percent for a segment and recomputes the completion of the segment's chapter
// and course in one transaction.
func (r *ProgressRepository) Record(userID string, segmentID int64, percent float64) (*RecordResult, error) {
	progress := &models.SegmentProgress{UserID: userID, SegmentID: segmentID, PercentWatched: percent}
	if err := progress.Validate(); err != nil {
		return nil, err
	}

	result := &RecordResult{Progress: progress}
	err := inTx(r.db, func(tx *sql.Tx) error {
		var chapterID, courseID string
		err := tx.QueryRow(`
			SELECT s.chapter_id, ch.course_id
			FROM segments s JOIN chapters ch ON ch.id = s.chapter_id
			WHERE s.id = ?
		`, segmentID).Scan(&chapterID, &courseID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", shared.ErrSegmentNotFound, segmentID)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve segment %d: %w", segmentID, err)
		}

		now := r.now()
		progress.LastUpdated = now
		if err := r.upsertSegment(tx, progress); err != nil {
			return err
		}

		if result.ChapterCompleted, err = chapterComplete(tx, userID, chapterID); err != nil {
			return err
		}
		if result.ChapterFirst, err = markCompletion(tx, "chapter_progress", "chapter_id", userID, chapterID, result.ChapterCompleted, now); err != nil {
			return err
		}

		if result.CourseCompleted, err = courseComplete(tx, userID, courseID); err != nil {
			return err
		}
		if result.CourseFirst, err = markCompletion(tx, "course_progress", "course_id", userID, courseID, result.CourseCompleted, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSegment returns a user's progress for one segment or [shared.ErrNotFound].
func (r *ProgressRepository) GetSegment(userID string, segmentID int64) (*models.SegmentProgress, error) {
	p := &models.SegmentProgress{}
	err := r.db.QueryRow(`
		SELECT id, user_id, segment_id, percent_watched, last_updated
		FROM segment_progress
		WHERE user_id = ? AND segment_id = ?
	`, userID, segmentID).Scan(&p.ID, &p.UserID, &p.SegmentID, &p.PercentWatched, &p.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan segment progress: %w", err)
	}
	return p, nil
}

// ChapterCompletion returns the stored completion row for a chapter or [shared.ErrNotFound].
func (r *ProgressRepository) ChapterCompletion(userID, chapterID string) (*models.Completion, error) {
	return getCompletion(r.db, "chapter_progress", "chapter_id", userID, chapterID)
}

// CourseCompletion returns the stored completion row for a course or [shared.ErrNotFound].
func (r *ProgressRepository) CourseCompletion(userID, courseID string) (*models.Completion, error) {
	return getCompletion(r.db, "course_progress", "course_id", userID, courseID)
}

// Users lists every user with recorded segment progress, sorted.
func (r *ProgressRepository) Users() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT user_id FROM segment_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Report returns one row per live segment across live courses for a user.
func (r *ProgressRepository) Report(userID string) ([]models.ReportRow, error) {
	rows, err := r.db.Query(`
		SELECT co.title, ch.title, s.id, s.title,
			COALESCE(sp.percent_watched, 0), COALESCE(cp.completed, 0), COALESCE(crp.completed, 0)
		FROM courses co
		JOIN chapters ch ON ch.course_id = co.id AND ch.live = 1
		JOIN segments s ON s.chapter_id = ch.id AND s.live = 1
		LEFT JOIN segment_progress sp ON sp.segment_id = s.id AND sp.user_id = ?
		LEFT JOIN chapter_progress cp ON cp.chapter_id = ch.id AND cp.user_id = ?
		LEFT JOIN course_progress crp ON crp.course_id = co.id AND crp.user_id = ?
		WHERE co.live = 1
		ORDER BY co.title, ch.position, s.position
	`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}
	defer rows.Close()

	var report []models.ReportRow
	for rows.Next() {
		var row models.ReportRow
		if err := rows.Scan(
			&row.Course, &row.Chapter, &row.SegmentID, &row.Segment,
			&row.PercentWatched, &row.ChapterCompleted, &row.CourseCompleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		row.Completed = row.PercentWatched >= CompleteThreshold
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return report, nil
}

func (r *ProgressRepository) upsertSegment(q querier, p *models.SegmentProgress) error {
	err := q.QueryRow(`
		INSERT INTO segment_progress (id, user_id, segment_id, percent_watched, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, segment_id) DO UPDATE SET
			percent_watched = excluded.percent_watched,
			last_updated = excluded.last_updated
		RETURNING id
	`, shared.GenerateID(), p.UserID, p.SegmentID, p.PercentWatched, p.LastUpdated).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert segment progress: %w", err)
	}
	return nil
}

// chapterComplete reports whether every live segment of the chapter is fully watched. A chapter without
// live segments is never complete.
func chapterComplete(q querier, userID, chapterID string) (bool, error) {
	var total, done int
	err := q.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN sp.percent_watched >= ? THEN 1 ELSE 0 END), 0)
		FROM segments s
		LEFT JOIN segment_progress sp ON sp.segment_id = s.id AND sp.user_id = ?
		WHERE s.chapter_id = ? AND s.live = 1
	`, CompleteThreshold, userID, chapterID).Scan(&total, &done)
	if err != nil {
		return false, fmt.Errorf("failed to count chapter segments: %w", err)
	}
	return total > 0 && done == total, nil
}

// courseComplete reports whether every live chapter of the course is complete. A course without live
// chapters is never complete.
func courseComplete(q querier, userID, courseID string) (bool, error) {
	rows, err := q.Query(`SELECT id FROM chapters WHERE course_id = ? AND live = 1`, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to query chapters: %w", err)
	}

	var chapters []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return false, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("row iteration error: %w", err)
	}

	if len(chapters) == 0 {
		return false, nil
	}
	for _, id := range chapters {
		ok, err := chapterComplete(q, userID, id)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func getCompletion(q querier, table, column, userID, entityID string) (*models.Completion, error) {
	c := &models.Completion{UserID: userID, EntityID: entityID}
	var completedAt sql.NullTime
	err := q.QueryRow(
		fmt.Sprintf(`SELECT id, completed, completed_at FROM %s WHERE user_id = ? AND %s = ?`, table, column),
		userID, entityID,
	).Scan(&c.ID, &c.Completed, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", table, err)
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	return c, nil
}

// markCompletion stores the completed flag, stamping completed_at the first time. Reports whether this
// call reached completion for the first time.
func markCompletion(q querier, table, column, userID, entityID string, completed bool, now time.Time) (bool, error) {
	c, err := getCompletion(q, table, column, userID, entityID)
	if errors.Is(err, shared.ErrNotFound) {
		c = &models.Completion{ID: shared.GenerateID(), UserID: userID, EntityID: entityID}
	} else if err != nil {
		return false, err
	}

	first := c.Mark(completed, now)

	_, err = q.Exec(fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, %[2]s, completed, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, %[2]s) DO UPDATE SET
			completed = excluded.completed,
			completed_at = excluded.completed_at
	`, table, column), c.ID, userID, entityID, c.Completed, c.CompletedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert %s: %w", table, err)
	}
	return first, nil
}
