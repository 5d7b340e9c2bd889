// internal/play/table.go
//
// Table hosts one player's game.Session and carries out the effects it emits.
// Responsibilities:
//   - Serialise every trigger (flip, new game, timer callback) through one mutex,
//     so the session never sees two triggers at once.
//   - Run Schedule effects as real timers and stop them on Cancel.
//   - Fold render effects into a View that the HTTP layer can return.
//   - Hand Persist and Completed effects to the owner's hooks.

package play

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/concentration/internal/game"
)

// Stopper is the part of *time.Timer a Table needs.
type Stopper interface{ Stop() bool }

// Timers starts timers. The default uses time.AfterFunc.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type realTimers struct{}

func (realTimers) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// Hooks receive the side effects a Table does not handle itself.
// Both run with the table lock held and must not call back into the Table.
type Hooks struct {
	// Persist is called with the full record mapping whenever it changed.
	Persist func(player string, r game.Records)
	// Complete is called once per finished game; tag is the value passed to
	// NewGame (the daily date, or empty).
	Complete func(player, tag string, c game.Completed)
}

// Options configures NewTable.
type Options struct {
	Palette []string
	Timing  game.Timing
	Records game.Records
	Timers  Timers
	Hooks   Hooks
}

// Table is safe for concurrent use.
type Table struct {
	ID     string
	Player string

	mu       sync.Mutex
	sess     *game.Session
	timers   Timers
	hooks    Hooks
	running  map[game.Token]Stopper
	view     viewState
	tag      string
	lastUsed time.Time
	closed   bool
}

// NewTable creates an idle table for player.
func NewTable(player string, opts Options) *Table {
	if opts.Timers == nil {
		opts.Timers = realTimers{}
	}
	return &Table{
		ID:       uuid.NewString(),
		Player:   player,
		sess:     game.NewSession(opts.Palette, opts.Records, game.WithTiming(opts.Timing)),
		timers:   opts.Timers,
		hooks:    opts.Hooks,
		running:  make(map[game.Token]Stopper),
		lastUsed: time.Now(),
	}
}

// NewGame deals a fresh board. rng may be nil for a random deal; tag is
// echoed in the view and to the Complete hook.
func (t *Table) NewGame(d game.Difficulty, rng *rand.Rand, tag string) View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tag = tag
	t.view.completion = nil
	t.apply(game.NewGame{Difficulty: d, Rand: rng})
	log.Debug().Str("table", t.ID).Str("difficulty", string(d)).Str("tag", tag).Msg("new game")
	return t.snapshot()
}

// Flip forwards a flip intent. Rejected flips leave the view unchanged.
func (t *Table) Flip(index int) View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(game.Flip{Index: index})
	return t.snapshot()
}

// View returns the current state.
func (t *Table) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Started reports whether a game has been dealt on this table.
func (t *Table) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.Board() != nil
}

// Records returns a copy of the table's best records.
func (t *Table) Records() game.Records {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.Records()
}

// ErrClosed is returned for operations on a closed table.
var ErrClosed = errors.New("play: table closed")

// MergeRecords folds r into the table's best records. An improvement is
// persisted through the Persist hook while the table lock is held, so it
// cannot race a best written by a finishing game.
func (t *Table) MergeRecords(r game.Records) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false, ErrClosed
	}
	effects := t.sess.Apply(game.MergeRecords{Records: r})
	t.run(effects)
	return len(effects) > 0, nil
}

// IdleSince reports when the table last handled a player request.
func (t *Table) IdleSince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastUsed
}

// Close stops every outstanding timer. Callbacks already in flight are
// dropped.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for tok, st := range t.running {
		st.Stop()
		delete(t.running, tok)
	}
}

func (t *Table) fire(tok game.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	delete(t.running, tok)
	t.run(t.sess.Apply(game.Fire{Token: tok}))
}

func (t *Table) apply(in game.Intent) {
	t.lastUsed = time.Now()
	if t.closed {
		return
	}
	t.run(t.sess.Apply(in))
}

func (t *Table) run(effects []game.Effect) {
	for _, e := range effects {
		switch e := e.(type) {
		case game.Schedule:
			tok := e.Token
			t.running[tok] = t.timers.AfterFunc(e.Delay, func() { t.fire(tok) })
		case game.Cancel:
			if st, ok := t.running[e.Token]; ok {
				st.Stop()
				delete(t.running, e.Token)
			}
		case game.Persist:
			if t.hooks.Persist != nil {
				t.hooks.Persist(t.Player, e.Records)
			}
		case game.Completed:
			t.view.apply(e)
			log.Info().
				Str("table", t.ID).
				Str("difficulty", string(e.Difficulty)).
				Int("moves", e.Moves).
				Int("elapsed", e.Elapsed).
				Bool("newBestMoves", e.NewBestMoves).
				Bool("newBestTime", e.NewBestTime).
				Msg("game completed")
			if t.hooks.Complete != nil {
				t.hooks.Complete(t.Player, t.tag, e)
			}
		default:
			t.view.apply(e)
		}
	}
}

func (t *Table) snapshot() View {
	v := t.view.render()
	v.TableID = t.ID
	v.Tag = t.tag
	v.Phase = t.sess.Phase().String()
	v.Clock = t.sess.ClockState().String()
	return v
}
