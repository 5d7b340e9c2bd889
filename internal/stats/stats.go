// internal/stats/stats.go
//
// Per-player play history over the key-value store.
// Responsibilities:
//   - Count completed games per difficulty ("<player>:memoryGameStats").
//   - Keep the most recent completed games ("<player>:memoryGameHistory").
//   - Move a guest's history onto an account after sign-in.
//
// Notes:
//   - Read-modify-write cycles are serialised by one mutex per Store; the
//     server runs a single Store per process.

package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/concentration/internal/game"
	"github.com/robalobadob/concentration/internal/store"
)

const (
	summaryKey = "memoryGameStats"
	historyKey = "memoryGameHistory"

	// HistoryLimit is how many finished games are kept per player.
	HistoryLimit = 50
)

// Summary aggregates every completed game of a player.
type Summary struct {
	GamesCompleted int                     `json:"gamesCompleted"`
	DailyCompleted int                     `json:"dailyCompleted"`
	PerDifficulty  map[game.Difficulty]int `json:"perDifficulty"`
	TotalMoves     int                     `json:"totalMoves"`
	TotalSeconds   int                     `json:"totalSeconds"`
}

// Game is one finished game.
type Game struct {
	Difficulty  game.Difficulty `json:"difficulty"`
	Moves       int             `json:"moves"`
	Elapsed     int             `json:"elapsed"`
	ElapsedText string          `json:"elapsedText"`
	Daily       string          `json:"daily,omitempty"` // date of a daily board
	FinishedAt  time.Time       `json:"finishedAt"`
}

// Store reads and writes play history.
type Store struct {
	kv store.KV
	mu sync.Mutex
}

func NewStore(kv store.KV) *Store { return &Store{kv: kv} }

func key(player, name string) string { return player + ":" + name }

// Record adds a finished game to the player's summary and history.
func (s *Store) Record(ctx context.Context, player string, g Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, err := s.summary(ctx, player)
	if err != nil {
		return err
	}
	sum.add(g)
	hist, err := s.history(ctx, player)
	if err != nil {
		return err
	}
	hist = append([]Game{g}, hist...)
	return s.save(ctx, player, sum, hist)
}

// Summary returns the player's totals (zero when nothing is stored).
func (s *Store) Summary(ctx context.Context, player string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary(ctx, player)
}

// Recent returns up to limit games, newest first.
func (s *Store) Recent(ctx context.Context, player string, limit int) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist, err := s.history(ctx, player)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(hist) > limit {
		hist = hist[:limit]
	}
	return hist, nil
}

// Claim moves from's summary and history onto to and deletes from's keys.
// It reports whether anything was moved.
func (s *Store) Claim(ctx context.Context, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guestHist, err := s.history(ctx, from)
	if err != nil {
		return false, err
	}
	guestSum, err := s.summary(ctx, from)
	if err != nil {
		return false, err
	}
	if guestSum.GamesCompleted == 0 && len(guestHist) == 0 {
		return false, nil
	}

	sum, err := s.summary(ctx, to)
	if err != nil {
		return false, err
	}
	hist, err := s.history(ctx, to)
	if err != nil {
		return false, err
	}
	sum.GamesCompleted += guestSum.GamesCompleted
	sum.DailyCompleted += guestSum.DailyCompleted
	sum.TotalMoves += guestSum.TotalMoves
	sum.TotalSeconds += guestSum.TotalSeconds
	for d, n := range guestSum.PerDifficulty {
		sum.PerDifficulty[d] += n
	}
	hist = append(hist, guestHist...)
	sort.SliceStable(hist, func(i, j int) bool { return hist[i].FinishedAt.After(hist[j].FinishedAt) })

	if err := s.save(ctx, to, sum, hist); err != nil {
		return false, err
	}
	for _, name := range []string{summaryKey, historyKey} {
		if err := s.kv.Delete(ctx, key(from, name)); err != nil {
			return true, fmt.Errorf("clear guest stats: %w", err)
		}
	}
	return true, nil
}

func (sum *Summary) add(g Game) {
	sum.GamesCompleted++
	if g.Daily != "" {
		sum.DailyCompleted++
	}
	sum.PerDifficulty[g.Difficulty]++
	sum.TotalMoves += g.Moves
	sum.TotalSeconds += g.Elapsed
}

func (s *Store) summary(ctx context.Context, player string) (Summary, error) {
	sum := Summary{PerDifficulty: map[game.Difficulty]int{}}
	if err := s.load(ctx, key(player, summaryKey), &sum); err != nil {
		return Summary{}, err
	}
	if sum.PerDifficulty == nil {
		sum.PerDifficulty = map[game.Difficulty]int{}
	}
	return sum, nil
}

func (s *Store) history(ctx context.Context, player string) ([]Game, error) {
	var hist []Game
	if err := s.load(ctx, key(player, historyKey), &hist); err != nil {
		return nil, err
	}
	return hist, nil
}

func (s *Store) load(ctx context.Context, k string, v any) error {
	raw, err := s.kv.Get(ctx, k)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, player string, sum Summary, hist []Game) error {
	if len(hist) > HistoryLimit {
		hist = hist[:HistoryLimit]
	}
	b, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key(player, summaryKey), string(b)); err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	if b, err = json.Marshal(hist); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key(player, historyKey), string(b)); err != nil {
		return fmt.Errorf("store history: %w", err)
	}
	return nil
}
