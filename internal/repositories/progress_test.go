package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vidtrack/internal/models"
	"github.com/desertthunder/vidtrack/internal/shared"
	"github.com/google/go-cmp/cmp"
)

func newProgressFixture(t *testing.T, chapters ...[]int64) (*ProgressRepository, *models.Course) {
	t.Helper()
	db := setupTestDB(t)
	course := newCourse("intro", chapters...)
	mustSave(t, NewCourseRepository(db), course)

	repo := NewProgressRepository(db)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return repo, course
}

func mustRecord(t *testing.T, repo *ProgressRepository, user string, segment int64, percent float64) *RecordResult {
	t.Helper()
	res, err := repo.Record(user, segment, percent)
	if err != nil {
		t.Fatalf("Record(%s, %d, %v) failed: %v", user, segment, percent, err)
	}
	return res
}

func TestProgressRepository(t *testing.T) {
	t.Run("Record Overwrites", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1, 2})

		first := mustRecord(t, repo, "u1", 1, 80)
		mustRecord(t, repo, "u1", 1, 40)

		got, err := repo.GetSegment("u1", 1)
		if err != nil {
			t.Fatalf("failed to get progress: %v", err)
		}
		if got.PercentWatched != 40 {
			t.Errorf("last write should win, got %v", got.PercentWatched)
		}
		if got.ID != first.Progress.ID {
			t.Errorf("upsert should keep row id %s, got %s", first.Progress.ID, got.ID)
		}
	})

	t.Run("Chapter Completes When All Segments Reach 100", func(t *testing.T) {
		repo, course := newProgressFixture(t, []int64{1, 2}, []int64{3})

		res := mustRecord(t, repo, "u1", 1, 100)
		if res.ChapterCompleted {
			t.Error("chapter should not complete with one of two segments")
		}

		res = mustRecord(t, repo, "u1", 2, 100)
		if !res.ChapterCompleted || !res.ChapterFirst {
			t.Errorf("chapter should complete for the first time, got %+v", res)
		}
		if res.CourseCompleted {
			t.Error("course should not complete while another chapter is incomplete")
		}

		res = mustRecord(t, repo, "u1", 3, 100)
		if !res.CourseCompleted || !res.CourseFirst {
			t.Errorf("course should complete for the first time, got %+v", res)
		}

		cp, err := repo.CourseCompletion("u1", course.ID)
		if err != nil {
			t.Fatalf("failed to get course completion: %v", err)
		}
		if !cp.Completed || cp.CompletedAt == nil {
			t.Errorf("expected completed course with timestamp, got %+v", cp)
		}
	})

	t.Run("CompletedAt Set Once", func(t *testing.T) {
		repo, course := newProgressFixture(t, []int64{1})
		chapterID := course.Chapters[0].ID

		mustRecord(t, repo, "u1", 1, 100)
		before, err := repo.ChapterCompletion("u1", chapterID)
		if err != nil {
			t.Fatalf("failed to get chapter completion: %v", err)
		}

		mustRecord(t, repo, "u1", 1, 50)
		res := mustRecord(t, repo, "u1", 1, 100)
		if res.ChapterFirst {
			t.Error("second completion should not be reported as first")
		}

		after, err := repo.ChapterCompletion("u1", chapterID)
		if err != nil {
			t.Fatalf("failed to get chapter completion: %v", err)
		}
		if !after.CompletedAt.Equal(*before.CompletedAt) {
			t.Errorf("completed_at changed from %v to %v", before.CompletedAt, after.CompletedAt)
		}
	})

	t.Run("Users Are Independent", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1})
		mustRecord(t, repo, "u1", 1, 100)

		res := mustRecord(t, repo, "u2", 1, 99)
		if res.ChapterCompleted {
			t.Error("another user's progress must not complete the chapter")
		}
		if _, err := repo.GetSegment("u3", 1); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Retired Segments Do Not Count", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1, 2})
		courses := NewCourseRepository(repo.db)
		mustSave(t, courses, newCourse("intro", []int64{1}))

		res := mustRecord(t, repo, "u1", 1, 100)
		if !res.ChapterCompleted {
			t.Error("chapter should complete once only live segments are counted")
		}
	})

	t.Run("Empty Chapter Blocks Course Completion", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1}, nil)
		res := mustRecord(t, repo, "u1", 1, 100)
		if !res.ChapterCompleted || res.CourseCompleted {
			t.Errorf("course with an empty chapter must not complete, got %+v", res)
		}
	})

	t.Run("Unknown Segment", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1})
		if _, err := repo.Record("u1", 42, 10); !errors.Is(err, shared.ErrSegmentNotFound) {
			t.Errorf("expected ErrSegmentNotFound, got %v", err)
		}
	})

	t.Run("Invalid Input", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1})
		if _, err := repo.Record("", 1, 10); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for anonymous user, got %v", err)
		}
		if _, err := repo.Record("u1", 1, 150); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for out-of-range percent, got %v", err)
		}
	})

	t.Run("Report", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1, 2})
		mustRecord(t, repo, "u1", 1, 100)
		mustRecord(t, repo, "u1", 2, 30)

		rows, err := repo.Report("u1")
		if err != nil {
			t.Fatalf("failed to build report: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if !rows[0].Completed || rows[1].Completed || rows[1].PercentWatched != 30 {
			t.Errorf("unexpected rows %+v", rows)
		}
		if rows[0].ChapterCompleted || rows[0].CourseCompleted {
			t.Error("chapter and course are incomplete")
		}

		empty, err := repo.Report("nobody")
		if err != nil {
			t.Fatalf("failed to build report: %v", err)
		}
		if len(empty) != 2 || empty[0].PercentWatched != 0 {
			t.Errorf("report for a new user should list segments at 0, got %+v", empty)
		}
	})
	t.Run("Users", func(t *testing.T) {
		repo, _ := newProgressFixture(t, []int64{1, 2})
		mustRecord(t, repo, "zoe", 1, 10)
		mustRecord(t, repo, "adam", 1, 20)
		mustRecord(t, repo, "adam", 2, 30)

		users, err := repo.Users()
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if diff := cmp.Diff([]string{"adam", "zoe"}, users); diff != "" {
			t.Errorf("users mismatch (-want +got):\n%s", diff)
		}
	})
}
