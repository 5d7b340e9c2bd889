// internal/game/board.go
//
// Board state and match resolution.
// Responsibilities:
//   - Build a shuffled board of symbol pairs (Fisher–Yates).
//   - Accept or silently reject flips.
//   - Resolve the pending pair into a match or a mismatch.

package game

import "math/rand"

// Board is the ordered sequence of cards plus the pending pair.
type Board struct {
	Difficulty Difficulty
	Rows       int
	Cols       int

	cards   []Card
	pending []int
	matched int // matched pairs
}

// NewBoard deals the first Pairs symbols of palette twice each and shuffles
// them with rng. The palette must hold at least Pairs symbols.
func NewBoard(d Difficulty, palette []string, rng *rand.Rand) *Board {
	s := d.Settings()
	cards := make([]Card, 0, 2*s.Pairs)
	for _, sym := range palette[:s.Pairs] {
		cards = append(cards, Card{Symbol: sym}, Card{Symbol: sym})
	}
	shuffle(cards, rng)
	return &Board{
		Difficulty: d,
		Rows:       s.Rows,
		Cols:       s.Cols,
		cards:      cards,
		pending:    make([]int, 0, 2),
	}
}

// shuffle is an in-place Fisher–Yates: for i from the last index down to 1,
// swap with a uniform j in [0, i].
func shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Len is the number of cards on the board.
func (b *Board) Len() int { return len(b.cards) }

// Card returns the view of the card at i. Out-of-range indices yield a zero
// view carrying only the index.
func (b *Board) Card(i int) CardView {
	if i < 0 || i >= len(b.cards) {
		return CardView{Index: i}
	}
	c := b.cards[i]
	return CardView{Index: i, Symbol: c.Symbol, Flipped: c.Flipped, Matched: c.Matched}
}

// Cards returns views of every card in board order.
func (b *Board) Cards() []CardView {
	out := make([]CardView, len(b.cards))
	for i := range b.cards {
		out[i] = b.Card(i)
	}
	return out
}

// Pending returns a copy of the pending pair indices (0, 1 or 2 entries).
func (b *Board) Pending() []int {
	return append([]int(nil), b.pending...)
}

// MatchedPairs counts resolved pairs.
func (b *Board) MatchedPairs() int { return b.matched }

// AllMatched reports whether every card is matched.
func (b *Board) AllMatched() bool {
	for _, c := range b.cards {
		if !c.Matched {
			return false
		}
	}
	return true
}

// TryFlip turns card i face-up and adds it to the pending pair.
// It is a no-op returning false when i is out of range, the card is already
// flipped or matched, or two cards are already pending.
func (b *Board) TryFlip(i int) bool {
	if i < 0 || i >= len(b.cards) || len(b.pending) >= 2 {
		return false
	}
	c := &b.cards[i]
	if c.Flipped || c.Matched {
		return false
	}
	c.Flipped = true
	b.pending = append(b.pending, i)
	return true
}

// Resolution is the outcome of resolving a pending pair.
type Resolution struct {
	First, Second int
	Match         bool
}

// Resolve applies the match rule to a full pending pair: equal symbols are
// marked matched, unequal ones are turned face-down. The pending set is
// cleared either way. ok is false when fewer than two cards are pending.
func (b *Board) Resolve() (res Resolution, ok bool) {
	if len(b.pending) != 2 {
		return Resolution{}, false
	}
	i, j := b.pending[0], b.pending[1]
	first, second := &b.cards[i], &b.cards[j]
	res = Resolution{First: i, Second: j, Match: first.Symbol == second.Symbol}
	if res.Match {
		first.Matched, second.Matched = true, true
		b.matched++
	} else {
		first.Flipped, second.Flipped = false, false
	}
	b.pending = b.pending[:0]
	return res, true
}
