package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vidtrack/internal/tracker"
)

var _ tracker.Projection = (*Projector)(nil)

// Projector forwards tracker projection updates to a running program as messages.
//
// Safe to call from the engine goroutine: delivery goes through send, typically [tea.Program.Send].
type Projector struct {
	send func(tea.Msg)
}

// NewProjector creates a [Projector] that delivers through send.
func NewProjector(send func(tea.Msg)) *Projector {
	return &Projector{send: send}
}

func (p *Projector) SetSegmentWatched(index int, watched bool) {
	p.send(segmentWatchedMsg(index, watched))
}

func (p *Projector) SetPercentText(percent int)         { p.send(percentMsg(percent)) }
func (p *Projector) SetPlayheadOffset(fraction float64) { p.send(playheadMsg(fraction)) }
func (p *Projector) InsertCompletionMarker()            { p.send(completionMsg()) }
func (p *Projector) SetProcessing(on bool)              { p.send(processingMsg(on)) }
