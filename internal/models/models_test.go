package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vidtrack/internal/shared"
)

func TestValidate(t *testing.T) {
	tt := []struct {
		name    string
		model   Model
		wantErr bool
	}{
		{name: "valid course", model: &Course{Slug: "intro", Title: "Intro"}},
		{name: "course without slug", model: &Course{Title: "Intro"}, wantErr: true},
		{
			name: "course with invalid nested segment",
			model: &Course{Slug: "intro", Title: "Intro", Chapters: []*Chapter{
				{Title: "One", Segments: []*Segment{{ID: 0, Title: "Bad"}}},
			}},
			wantErr: true,
		},
		{name: "chapter without title", model: &Chapter{}, wantErr: true},
		{name: "valid segment", model: &Segment{ID: 3, Title: "Welcome", DurationSeconds: 120}},
		{name: "negative duration", model: &Segment{ID: 3, Title: "Welcome", DurationSeconds: -1}, wantErr: true},
		{name: "valid progress", model: &SegmentProgress{UserID: "u1", SegmentID: 3, PercentWatched: 100}},
		{name: "progress above 100", model: &SegmentProgress{UserID: "u1", PercentWatched: 101}, wantErr: true},
		{name: "anonymous progress", model: &SegmentProgress{PercentWatched: 10}, wantErr: true},
		{name: "completion without entity", model: &Completion{UserID: "u1"}, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.model.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("Validate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCompletionMark(t *testing.T) {
	c := &Completion{UserID: "u1", EntityID: "ch1"}
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if c.Mark(false, first) {
		t.Error("marking incomplete should not report first completion")
	}
	if !c.Mark(true, first) {
		t.Error("first completion should be reported")
	}
	if c.Mark(true, first.Add(time.Hour)) {
		t.Error("repeat completion should not be reported")
	}
	if !c.CompletedAt.Equal(first) {
		t.Errorf("CompletedAt = %v, want %v", c.CompletedAt, first)
	}

	c.Mark(false, first.Add(2*time.Hour))
	if c.Completed || c.CompletedAt == nil {
		t.Error("losing completion clears the flag but keeps the first timestamp")
	}
}

func TestCourseSegmentCount(t *testing.T) {
	c := &Course{Chapters: []*Chapter{
		{Segments: []*Segment{{ID: 1}, {ID: 2}}},
		{Segments: []*Segment{{ID: 3}}},
		{},
	}}
	if got := c.SegmentCount(); got != 3 {
		t.Errorf("SegmentCount() = %d, want 3", got)
	}
}
