package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

type fakeControls struct {
	mu      sync.Mutex
	seeks   []int
	toggles int
	full    bool
	err     error
}

func (f *fakeControls) Seek(index int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.seeks = append(f.seeks, index)
	return true
}

func (f *fakeControls) TogglePlayback(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	return f.err
}

func newTestModel(n int, reduced bool, controls Controls) *Model {
	return NewModel(context.Background(), Options{
		Title:         "Welcome",
		SegmentCount:  n,
		ReducedMotion: reduced,
		Controls:      controls,
	})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestProjector(t *testing.T) {
	var got []Msg
	p := NewProjector(func(msg tea.Msg) { got = append(got, msg.(Msg)) })

	p.SetSegmentWatched(2, true)
	p.SetPercentText(30)
	p.SetPlayheadOffset(0.25)
	p.SetProcessing(true)
	p.InsertCompletionMarker()

	kinds := make([]MsgKind, len(got))
	for i, msg := range got {
		kinds[i] = msg.kind
	}
	want := []MsgKind{MsgSegmentWatched, MsgPercent, MsgPlayhead, MsgProcessing, MsgCompletion}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("message kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestModelUpdate(t *testing.T) {
	t.Run("Projection Messages", func(t *testing.T) {
		m := newTestModel(4, false, nil)
		p := NewProjector(func(msg tea.Msg) { m.Update(msg) })

		p.SetSegmentWatched(0, true)
		p.SetSegmentWatched(1, true)
		p.SetSegmentWatched(9, true)
		p.SetPercentText(50)
		p.SetPlayheadOffset(0.5)

		if diff := cmp.Diff([]bool{true, true, false, false}, m.segments); diff != "" {
			t.Errorf("segments mismatch (-want +got):\n%s", diff)
		}
		if m.percent != 50 {
			t.Errorf("expected 50, got %d", m.percent)
		}
		if m.playhead != 0.5 {
			t.Errorf("expected playhead 0.5, got %v", m.playhead)
		}
		if !strings.Contains(m.View(), "50% watched") {
			t.Errorf("expected percent text in view:\n%s", m.View())
		}
	})

	t.Run("Completion Marker Once", func(t *testing.T) {
		m := newTestModel(2, false, nil)
		m.Update(completionMsg())
		m.Update(completionMsg())

		if n := strings.Count(m.View(), "✓ Complete"); n != 1 {
			t.Errorf("expected one completion marker, got %d", n)
		}
	})

	t.Run("Processing Starts Spinner", func(t *testing.T) {
		m := newTestModel(2, false, nil)

		_, cmd := m.Update(processingMsg(true))
		if cmd == nil {
			t.Fatal("expected spinner tick command")
		}
		if _, cmd := m.Update(processingMsg(true)); cmd != nil {
			t.Error("expected no second tick while already processing")
		}
		if !strings.Contains(m.View(), "Seeking") {
			t.Errorf("expected seeking indicator:\n%s", m.View())
		}

		m.Update(processingMsg(false))
		if strings.Contains(m.View(), "Seeking") {
			t.Error("expected indicator cleared")
		}
	})

	t.Run("Reduced Motion Uses Static Text", func(t *testing.T) {
		m := newTestModel(2, true, nil)

		_, cmd := m.Update(processingMsg(true))
		if cmd != nil {
			t.Error("expected no animation under reduced motion")
		}
		if !strings.Contains(m.View(), "Processing...") {
			t.Errorf("expected static processing text:\n%s", m.View())
		}
	})

	t.Run("Engine Done", func(t *testing.T) {
		m := newTestModel(2, false, nil)

		if _, cmd := m.Update(EngineDone(nil)); cmd == nil {
			t.Error("expected quit on clean stop")
		}

		m = newTestModel(2, false, nil)
		if _, cmd := m.Update(EngineDone(errors.New("player gone"))); cmd != nil {
			t.Error("expected view to stay up on failure")
		}
		if !strings.Contains(m.View(), "player gone") {
			t.Errorf("expected error in view:\n%s", m.View())
		}
	})
}

func TestModelKeys(t *testing.T) {
	t.Run("Digits Seek", func(t *testing.T) {
		controls := &fakeControls{}
		m := newTestModel(3, false, controls)

		m.Update(keyRunes("2"))
		m.Update(keyRunes("0"))
		m.Update(keyRunes("7"))

		if diff := cmp.Diff([]int{2, 0}, controls.seeks); diff != "" {
			t.Errorf("seeks mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Full Queue", func(t *testing.T) {
		m := newTestModel(3, false, &fakeControls{full: true})

		m.Update(keyRunes("1"))
		if !strings.Contains(m.View(), "seek queue full") {
			t.Errorf("expected status line:\n%s", m.View())
		}
	})

	t.Run("Space Toggles Playback", func(t *testing.T) {
		controls := &fakeControls{err: errors.New("not ready")}
		m := newTestModel(3, false, controls)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		if cmd == nil {
			t.Fatal("expected playback command")
		}
		m.Update(cmd())

		if controls.toggles != 1 {
			t.Errorf("expected one toggle, got %d", controls.toggles)
		}
		if !strings.Contains(m.View(), "not ready") {
			t.Errorf("expected playback error in view:\n%s", m.View())
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newTestModel(3, false, nil)
		if _, cmd := m.Update(keyRunes("q")); cmd == nil {
			t.Error("expected quit command")
		}
	})
}

func TestRenderPlayhead(t *testing.T) {
	m := newTestModel(2, false, nil)
	width := 2*cellWidth - 1

	tests := []struct {
		offset float64
		col    int
	}{
		{0, 0},
		{1, width - 1},
		{2, width - 1},
		{-1, 0},
	}

	for _, tt := range tests {
		m.playhead = tt.offset
		got := m.renderPlayhead()
		if col := strings.Index(got, "▲"); col != tt.col {
			t.Errorf("offset %v: expected caret at %d, got %d", tt.offset, tt.col, col)
		}
	}
}
