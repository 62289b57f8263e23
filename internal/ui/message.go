package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSegmentWatched MsgKind = iota
	MsgPercent
	MsgPlayhead
	MsgCompletion
	MsgProcessing
	MsgPlayback
	MsgEngineDone
)

// segmentWatchedMsg is the constructor for [MsgSegmentWatched]
func segmentWatchedMsg(index int, watched bool) Msg {
	return Msg{
		kind: MsgSegmentWatched,
		data: struct {
			index   int
			watched bool
		}{index, watched},
	}
}

// percentMsg is the constructor for [MsgPercent]
func percentMsg(percent int) Msg {
	return Msg{kind: MsgPercent, data: percent}
}

// playheadMsg is the constructor for [MsgPlayhead]
func playheadMsg(fraction float64) Msg {
	return Msg{kind: MsgPlayhead, data: fraction}
}

// completionMsg is the constructor for [MsgCompletion]
func completionMsg() Msg {
	return Msg{kind: MsgCompletion}
}

// processingMsg is the constructor for [MsgProcessing]
func processingMsg(on bool) Msg {
	return Msg{kind: MsgProcessing, data: on}
}

// playbackMsg is the constructor for [MsgPlayback]
func playbackMsg(err error) Msg {
	return Msg{kind: MsgPlayback, data: err}
}

// EngineDone reports that the tracking engine stopped, with err nil on a clean stop.
func EngineDone(err error) Msg {
	return Msg{kind: MsgEngineDone, data: err}
}
