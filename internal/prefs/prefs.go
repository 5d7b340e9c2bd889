// internal/prefs/prefs.go
//
// Per-player preferences on top of store.KV:
//   - best records: "<player>:memoryGameBestRecords" → {"easy":{"moves":20,"time":90},...}
//   - theme:        "<player>:memoryGameTheme"       → "dark" | "light"
//
// Reading never fails: missing or malformed values fall back to empty records
// or the light theme and are logged. Writing returns the storage error so the
// caller can decide whether to surface it.

package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/concentration/internal/game"
	"github.com/robalobadob/concentration/internal/store"
)

const (
	recordsKey = "memoryGameBestRecords"
	themeKey   = "memoryGameTheme"
)

// Theme is the UI colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ErrUnknownTheme is returned by ParseTheme.
var ErrUnknownTheme = errors.New("unknown theme")

// ParseTheme accepts "dark" or "light".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", ErrUnknownTheme
}

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Prefs reads and writes one namespace of preferences per player.
type Prefs struct {
	kv store.KV
}

func New(kv store.KV) *Prefs { return &Prefs{kv: kv} }

func key(player, name string) string { return player + ":" + name }

// Records loads the player's best records.
func (p *Prefs) Records(ctx context.Context, player string) game.Records {
	raw, err := p.kv.Get(ctx, key(player, recordsKey))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("player", player).Msg("load best records")
		}
		return game.NewRecords()
	}
	recs, err := DecodeRecords(raw)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("malformed best records, using defaults")
		return game.NewRecords()
	}
	return recs
}

// SaveRecords writes the full record mapping.
func (p *Prefs) SaveRecords(ctx context.Context, player string, r game.Records) error {
	raw, err := EncodeRecords(r)
	if err != nil {
		return err
	}
	if err := p.kv.Set(ctx, key(player, recordsKey), raw); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// Theme loads the player's theme, defaulting to light.
func (p *Prefs) Theme(ctx context.Context, player string) Theme {
	raw, err := p.kv.Get(ctx, key(player, themeKey))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("player", player).Msg("load theme")
		}
		return Light
	}
	t, err := ParseTheme(raw)
	if err != nil {
		log.Warn().Str("player", player).Str("value", raw).Msg("unknown stored theme, using light")
		return Light
	}
	return t
}

// SaveTheme writes the player's theme.
func (p *Prefs) SaveTheme(ctx context.Context, player string, t Theme) error {
	if err := p.kv.Set(ctx, key(player, themeKey), string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// wireRecord mirrors game.BestRecord; numbers may be null or absent.
type wireRecord struct {
	Moves *int `json:"moves"`
	Time  *int `json:"time"`
}

// DecodeRecords parses the stored mapping. Unknown difficulties are dropped
// and negative numbers are treated as absent; a value that is not a JSON
// object of objects is an error.
func DecodeRecords(raw string) (game.Records, error) {
	var wire map[string]wireRecord
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	out := game.NewRecords()
	for k, w := range wire {
		d := game.Difficulty(k)
		if !d.Valid() {
			continue
		}
		out[d] = game.BestRecord{Moves: nonNegative(w.Moves), Time: nonNegative(w.Time)}
	}
	return out, nil
}

// EncodeRecords serialises every difficulty, writing null for absent fields.
func EncodeRecords(r game.Records) (string, error) {
	wire := make(map[string]wireRecord, len(r))
	for _, d := range game.Difficulties() {
		rec := r[d]
		wire[string(d)] = wireRecord{Moves: rec.Moves, Time: rec.Time}
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(b), nil
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	n := *v
	return &n
}
