// internal/game/types.go
//
// Core type definitions for the Concentration game engine.
// Defines:
//   - Difficulty: the fixed set of board sizes (easy/medium/hard).
//   - Settings:   rows, cols and pair count per difficulty.
//   - Card:       one board slot (symbol + flipped/matched flags).
//   - CardView:   read-only projection of a Card for rendering.

package game

import (
	"errors"
	"strings"
)

// Difficulty selects the board size.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ErrUnknownDifficulty is returned by ParseDifficulty for anything outside
// the fixed set.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Settings describes the board geometry of a difficulty.
// Rows*Cols is always 2*Pairs.
type Settings struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Pairs int `json:"pairs"`
}

var settings = map[Difficulty]Settings{
	Easy:   {Rows: 3, Cols: 4, Pairs: 6},
	Medium: {Rows: 4, Cols: 4, Pairs: 8},
	Hard:   {Rows: 4, Cols: 6, Pairs: 12},
}

// Difficulties lists every difficulty in ascending order.
func Difficulties() []Difficulty { return []Difficulty{Easy, Medium, Hard} }

// Settings returns the geometry for d. Unknown values fall back to Easy.
func (d Difficulty) Settings() Settings {
	if s, ok := settings[d]; ok {
		return s
	}
	return settings[Easy]
}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	_, ok := settings[d]
	return ok
}

// ParseDifficulty normalises s and validates it.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", ErrUnknownDifficulty
	}
	return d, nil
}

// MaxPairs is the largest pair count of any difficulty; palettes must be at
// least this long.
func MaxPairs() int {
	n := 0
	for _, s := range settings {
		if s.Pairs > n {
			n = s.Pairs
		}
	}
	return n
}

// Card is a single board slot. The Board owns every Card.
type Card struct {
	Symbol  string
	Flipped bool
	Matched bool
}

// CardView is the read-only state of a card handed to the renderer.
type CardView struct {
	Index   int    `json:"index"`
	Symbol  string `json:"symbol"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}
