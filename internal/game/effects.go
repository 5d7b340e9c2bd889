// internal/game/effects.go
//
// The command interface between the engine and whatever drives it.
//   - Intent: a discrete trigger (new game, flip, timer fired).
//   - Effect: a render or timer instruction produced by Session.Apply.
//
// Timers never run inside this package. The engine asks for them with
// Schedule, withdraws them with Cancel, and learns they elapsed through a Fire
// intent carrying the same Token.

package game

import (
	"math/rand"
	"time"
)

// Token identifies one scheduled timer. Tokens are never reused within a
// Session.
type Token uint64

// TimerKind names what a scheduled timer does when it fires.
type TimerKind int

const (
	TimerPreviewShow TimerKind = iota // all cards face-up
	TimerPreviewHide                  // hide animation before input opens
	TimerDwell                        // pending pair held face-up
	TimerComplete                     // pause before the completion dialog
	TimerTick                         // one clock second
)

func (k TimerKind) String() string {
	switch k {
	case TimerPreviewShow:
		return "preview_show"
	case TimerPreviewHide:
		return "preview_hide"
	case TimerDwell:
		return "dwell"
	case TimerComplete:
		return "complete"
	case TimerTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Timing holds the presentation delays. Any of them may be zero.
type Timing struct {
	Dwell       time.Duration
	Complete    time.Duration
	PreviewShow time.Duration
	PreviewHide time.Duration
	Tick        time.Duration
}

// DefaultTiming matches the pacing of the browser game.
func DefaultTiming() Timing {
	return Timing{
		Dwell:       800 * time.Millisecond,
		Complete:    500 * time.Millisecond,
		PreviewShow: 1000 * time.Millisecond,
		PreviewHide: 500 * time.Millisecond,
		Tick:        time.Second,
	}
}

func (t Timing) delay(k TimerKind) time.Duration {
	switch k {
	case TimerPreviewShow:
		return t.PreviewShow
	case TimerPreviewHide:
		return t.PreviewHide
	case TimerDwell:
		return t.Dwell
	case TimerComplete:
		return t.Complete
	case TimerTick:
		return t.Tick
	}
	return 0
}

// ---------------------------------------------------------------------------
// Intents

// Intent is a trigger accepted by Session.Apply.
type Intent interface{ intent() }

// NewGame resets the session and deals a new board. Rand, when set, is used
// for the shuffle instead of the session's own source.
type NewGame struct {
	Difficulty Difficulty
	Rand       *rand.Rand
}

// Flip asks to turn the card at Index face-up.
type Flip struct{ Index int }

// Fire reports that the timer with Token elapsed.
type Fire struct{ Token Token }

// MergeRecords folds records kept elsewhere (e.g. a guest's) into the
// session's, keeping the better value of each field.
type MergeRecords struct{ Records Records }

func (NewGame) intent()      {}
func (Flip) intent()         {}
func (Fire) intent()         {}
func (MergeRecords) intent() {}

// ---------------------------------------------------------------------------
// Effects

// Effect is an instruction for the presentation layer.
type Effect interface{ effect() }

// Layout replaces the whole board.
type Layout struct {
	Difficulty Difficulty
	Rows, Cols int
	Cards      []CardView
}

// CardChanged updates one card.
type CardChanged struct {
	Index int
	View  CardView
}

// Preview toggles the all-cards-visible preview. InputEnabled turns true once
// the hide animation is over.
type Preview struct {
	Visible      bool
	InputEnabled bool
}

// Stats carries the counters.
type Stats struct {
	Moves        int
	MatchedPairs int
	Elapsed      int
	ElapsedText  string
}

// Best carries the best record of the active difficulty for display.
type Best struct {
	Difficulty Difficulty
	Record     BestRecord
}

// Schedule requests a timer.
type Schedule struct {
	Token Token
	Kind  TimerKind
	Delay time.Duration
}

// Cancel withdraws a previously scheduled timer.
type Cancel struct{ Token Token }

// Persist asks for the full record mapping to be written now.
type Persist struct{ Records Records }

// Completed is emitted exactly once per finished game.
type Completed struct {
	Difficulty   Difficulty
	Moves        int
	Elapsed      int
	ElapsedText  string
	NewBestMoves bool
	NewBestTime  bool
}

func (Layout) effect()      {}
func (CardChanged) effect() {}
func (Preview) effect()     {}
func (Stats) effect()       {}
func (Best) effect()        {}
func (Schedule) effect()    {}
func (Cancel) effect()      {}
func (Persist) effect()     {}
func (Completed) effect()   {}
