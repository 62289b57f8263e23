package ui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	cellWidth   = 4
	maxBarWidth = 60
)

// Controls is what the player view drives in response to keys.
type Controls interface {
	Seek(index int) bool                      // Seek queues a jump to the start of segment index
	TogglePlayback(ctx context.Context) error // TogglePlayback plays when paused and pauses when playing
}

// Options configures [NewModel].
type Options struct {
	Title         string
	SegmentCount  int
	ReducedMotion bool
	Controls      Controls
}

// Model is the watch view: segment markers, playhead, percent and completion marker.
//
// It is the terminal rendition of the tracker projection; all state changes arrive as [Msg] values
// sent by a [Projector].
type Model struct {
	ctx           context.Context
	title         string
	controls      Controls
	reducedMotion bool

	segments   []bool
	percent    int
	playhead   float64
	complete   bool
	processing bool
	status     string
	err        error

	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates the watch view for opts.SegmentCount segments, all unwatched.
func NewModel(ctx context.Context, opts Options) *Model {
	return &Model{
		ctx:           ctx,
		title:         opts.Title,
		controls:      opts.Controls,
		reducedMotion: opts.ReducedMotion,
		segments:      make([]bool, opts.SegmentCount),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.busy)),
		bar:           progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// SetControls attaches the playback controls, for callers that build them after the model.
func (m *Model) SetControls(c Controls) {
	m.controls = c
}

// Init implements [tea.Model]. Nothing animates until a seek starts.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-4, maxBarWidth))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if !m.processing || m.reducedMotion {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.apply(msg)
	}

	return m, nil
}

func (m *Model) apply(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSegmentWatched:
		data := msg.data.(struct {
			index   int
			watched bool
		})
		if data.index >= 0 && data.index < len(m.segments) {
			m.segments[data.index] = data.watched
		}
	case MsgPercent:
		m.percent = msg.data.(int)
	case MsgPlayhead:
		m.playhead = msg.data.(float64)
	case MsgCompletion:
		m.complete = true
	case MsgProcessing:
		on := msg.data.(bool)
		started := on && !m.processing
		m.processing = on
		if started && !m.reducedMotion {
			return m, m.spinner.Tick
		}
	case MsgPlayback:
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("playback: %v", err)
		}
	case MsgEngineDone:
		m.err, _ = msg.data.(error)
		if m.err == nil {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.play):
		if m.controls != nil {
			return m, m.togglePlayback()
		}
	case key.Matches(msg, m.keys.seek):
		index := int(msg.Runes[0] - '0')
		if m.controls == nil || index >= len(m.segments) {
			return m, nil
		}
		m.status = ""
		if !m.controls.Seek(index) {
			m.status = "seek queue full"
		}
	}
	return m, nil
}

func (m *Model) togglePlayback() tea.Cmd {
	return func() tea.Msg {
		return playbackMsg(m.controls.TogglePlayback(m.ctx))
	}
}

// View renders the watch view.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.renderSegments())
	b.WriteString("\n")
	b.WriteString(m.renderPlayhead())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d%% watched", m.bar.ViewAs(float64(m.percent)/100), m.percent)
	if m.complete {
		b.WriteString("  " + styles.marker.Render("✓ Complete"))
	}
	b.WriteString("\n")

	if m.processing {
		if m.reducedMotion {
			b.WriteString(styles.busy.Render("Processing..."))
		} else {
			b.WriteString(m.spinner.View() + styles.busy.Render(" Seeking"))
		}
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(styles.dim.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSegments() string {
	cells := make([]string, len(m.segments))
	for i, watched := range m.segments {
		block := strings.Repeat("░", cellWidth-1)
		if watched {
			block = styles.watched.Render(strings.Repeat("█", cellWidth-1))
		}
		cells[i] = block
	}
	return strings.Join(cells, " ")
}

// renderPlayhead places a caret under the segment row at the current playhead offset.
func (m *Model) renderPlayhead() string {
	width := len(m.segments)*cellWidth - 1
	if width <= 0 {
		return ""
	}
	f := m.playhead
	if math.IsNaN(f) {
		f = 0
	}
	col := int(math.Round(max(0, min(1, f)) * float64(width-1)))
	return strings.Repeat(" ", col) + "▲"
}
