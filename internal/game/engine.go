// internal/game/engine.go
//
// Core game engine for a single Concentration session.
// Responsibilities:
//   - Start new games (reset, deal, preview) and cancel the previous game's timers.
//   - Accept flips, count moves, start the clock on the first real flip.
//   - Resolve pending pairs after the dwell delay.
//   - Stop the clock when the board is cleared and fold the result into Records.
//
// Notes:
//   - Session is single-threaded: callers must not invoke Apply concurrently.
//   - Every timer the session depends on is returned as a Schedule effect; a
//     Fire for a token that is no longer live is ignored.
package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Phase is the coarse lifecycle of the current game.
type Phase int

const (
	PhaseIdle       Phase = iota // no game dealt yet
	PhasePreview                 // cards shown, input ignored
	PhasePlaying                 // input accepted
	PhaseCompleting              // board cleared, completion pending
	PhaseCompleted               // completion applied
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreview:
		return "preview"
	case PhasePlaying:
		return "playing"
	case PhaseCompleting:
		return "completing"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Session owns one player's board, counters, clock and best records.
type Session struct {
	timing  Timing
	palette []string
	rng     *rand.Rand
	records Records

	board *Board
	clock Clock
	moves int
	phase Phase

	previewActive bool

	next Token
	live map[Token]TimerKind
	tick Token // live tick token, 0 when none
}

// Option customises a Session.
type Option func(*Session)

// WithTiming overrides the presentation delays.
func WithTiming(t Timing) Option { return func(s *Session) { s.timing = t } }

// WithRand sets the default shuffle source.
func WithRand(r *rand.Rand) Option { return func(s *Session) { s.rng = r } }

// NewSession builds an idle session. palette must hold at least MaxPairs
// symbols; records may be nil.
func NewSession(palette []string, records Records, opts ...Option) *Session {
	if records == nil {
		records = NewRecords()
	}
	s := &Session{
		timing:  DefaultTiming(),
		palette: palette,
		records: records,
		live:    make(map[Token]TimerKind),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(cryptoSeed()))
	}
	return s
}

// Apply processes one intent to completion and returns the resulting effects
// in the order the presentation layer should apply them.
func (s *Session) Apply(in Intent) []Effect {
	switch in := in.(type) {
	case NewGame:
		return s.newGame(in)
	case Flip:
		return s.flip(in.Index)
	case Fire:
		return s.fire(in.Token)
	case MergeRecords:
		return s.mergeRecords(in.Records)
	}
	return nil
}

func (s *Session) newGame(in NewGame) []Effect {
	d := in.Difficulty
	if !d.Valid() {
		d = Easy
	}
	var out []Effect
	for tok := range s.live {
		out = append(out, Cancel{Token: tok})
	}
	clear(s.live)
	s.tick = 0

	rng := in.Rand
	if rng == nil {
		rng = s.rng
	}
	s.board = NewBoard(d, s.palette, rng)
	s.clock = Clock{}
	s.moves = 0
	s.phase = PhasePreview
	s.previewActive = true

	out = append(out,
		Layout{Difficulty: d, Rows: s.board.Rows, Cols: s.board.Cols, Cards: s.board.Cards()},
		s.stats(),
		Best{Difficulty: d, Record: s.records.Get(d)},
		Preview{Visible: true},
		s.schedule(TimerPreviewShow),
	)
	return out
}

func (s *Session) flip(i int) []Effect {
	if s.previewActive || s.phase != PhasePlaying {
		return nil
	}
	if !s.board.TryFlip(i) {
		return nil
	}
	var out []Effect
	if s.clock.Start() {
		out = append(out, s.scheduleTick())
	}
	out = append(out, CardChanged{Index: i, View: s.board.Card(i)})
	if len(s.board.pending) == 2 {
		s.moves++
		out = append(out, s.stats(), s.schedule(TimerDwell))
	}
	return out
}

func (s *Session) fire(tok Token) []Effect {
	kind, ok := s.live[tok]
	if !ok {
		return nil
	}
	delete(s.live, tok)

	switch kind {
	case TimerPreviewShow:
		return []Effect{Preview{Visible: false}, s.schedule(TimerPreviewHide)}

	case TimerPreviewHide:
		s.previewActive = false
		s.phase = PhasePlaying
		return []Effect{Preview{Visible: false, InputEnabled: true}}

	case TimerTick:
		s.tick = 0
		if !s.clock.Tick() {
			return nil
		}
		return []Effect{s.stats(), s.scheduleTick()}

	case TimerDwell:
		return s.resolve()

	case TimerComplete:
		return s.complete()
	}
	return nil
}

func (s *Session) resolve() []Effect {
	res, ok := s.board.Resolve()
	if !ok {
		return nil
	}
	out := []Effect{
		CardChanged{Index: res.First, View: s.board.Card(res.First)},
		CardChanged{Index: res.Second, View: s.board.Card(res.Second)},
	}
	if res.Match && s.board.AllMatched() {
		s.clock.Stop()
		if s.tick != 0 {
			delete(s.live, s.tick)
			out = append(out, Cancel{Token: s.tick})
			s.tick = 0
		}
		s.phase = PhaseCompleting
		out = append(out, s.stats(), s.schedule(TimerComplete))
		return out
	}
	return append(out, s.stats())
}

func (s *Session) complete() []Effect {
	if s.phase != PhaseCompleting {
		return nil
	}
	s.phase = PhaseCompleted
	d := s.board.Difficulty
	elapsed := s.clock.Elapsed()
	imp := s.records.Submit(d, s.moves, elapsed)

	var out []Effect
	if imp.Any() {
		out = append(out,
			Persist{Records: s.records.Clone()},
			Best{Difficulty: d, Record: s.records.Get(d)},
		)
	}
	return append(out, Completed{
		Difficulty:   d,
		Moves:        s.moves,
		Elapsed:      elapsed,
		ElapsedText:  FormatElapsed(elapsed),
		NewBestMoves: imp.Moves,
		NewBestTime:  imp.Time,
	})
}

// mergeRecords persists only when something improved. The displayed best is
// refreshed when a game is on the board.
func (s *Session) mergeRecords(r Records) []Effect {
	if !s.records.Merge(r) {
		return nil
	}
	out := []Effect{Persist{Records: s.records.Clone()}}
	if s.board != nil {
		d := s.board.Difficulty
		out = append(out, Best{Difficulty: d, Record: s.records.Get(d)})
	}
	return out
}

func (s *Session) schedule(k TimerKind) Schedule {
	s.next++
	s.live[s.next] = k
	return Schedule{Token: s.next, Kind: k, Delay: s.timing.delay(k)}
}

func (s *Session) scheduleTick() Schedule {
	sc := s.schedule(TimerTick)
	s.tick = sc.Token
	return sc
}

func (s *Session) stats() Stats {
	e := s.clock.Elapsed()
	return Stats{
		Moves:        s.moves,
		MatchedPairs: s.board.MatchedPairs(),
		Elapsed:      e,
		ElapsedText:  FormatElapsed(e),
	}
}

// Board returns the current board, nil before the first NewGame.
func (s *Session) Board() *Board { return s.board }

func (s *Session) Moves() int             { return s.moves }
func (s *Session) Elapsed() int           { return s.clock.Elapsed() }
func (s *Session) ClockState() ClockState { return s.clock.State() }
func (s *Session) Phase() Phase           { return s.phase }
func (s *Session) PreviewActive() bool    { return s.previewActive }

// Started reports whether the clock has left NotStarted in this game.
func (s *Session) Started() bool { return s.clock.State() != ClockNotStarted }

// Records returns a copy of the best records.
func (s *Session) Records() Records { return s.records.Clone() }

// Live returns the number of outstanding timers.
func (s *Session) Live() int { return len(s.live) }

func cryptoSeed() int64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}
