// Package ui implements the terminal watch view using bubbletea's Elm architecture.
//
// The view draws one marker per segment, a playhead caret under them, the watched percent and a completion
// marker. It never computes progress itself: a [Projector] turns the tracker's projection calls into [Msg]
// values delivered through the running program, so the engine goroutine never touches view state directly.
//
// Keys: 0-9 jump to a segment, space toggles playback, ? expands help, q quits. Seeks run with a spinner,
// replaced by static text when reduced motion is on.
package ui
