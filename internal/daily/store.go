package daily

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

// Result is a player's first completion of a daily board.
type Result struct {
	Player      string          `json:"player"`
	Date        string          `json:"date"`
	Difficulty  game.Difficulty `json:"difficulty"`
	Moves       int             `json:"moves"`
	Elapsed     int             `json:"elapsed"`
	ElapsedText string          `json:"elapsedText"`
	FinishedAt  time.Time       `json:"finishedAt"`
}

// LBRow is one leaderboard entry.
type LBRow struct {
	Player      string    `json:"player"`
	Moves       int       `json:"moves"`
	Elapsed     int       `json:"elapsed"`
	ElapsedText string    `json:"elapsedText"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Store keeps one Result per player, date and difficulty, plus an index of
// every result of a board for the leaderboard.
type Store struct {
	kv store.KV
	mu sync.Mutex // serialises insert + index append
}

func NewStore(kv store.KV) *Store { return &Store{kv: kv} }

func resultKey(player, date string, d game.Difficulty) string {
	return player + ":daily:" + date + ":" + string(d)
}

func boardKey(date string, d game.Difficulty) string {
	return "daily:board:" + date + ":" + string(d)
}

// AlreadyPlayed reports whether the player has a stored result.
func (s *Store) AlreadyPlayed(ctx context.Context, player, date string, d game.Difficulty) (bool, error) {
	_, err := s.Result(ctx, player, date, d)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Result loads the stored result or store.ErrNotFound.
func (s *Store) Result(ctx context.Context, player, date string, d game.Difficulty) (Result, error) {
	raw, err := s.kv.Get(ctx, resultKey(player, date, d))
	if err != nil {
		return Result{}, err
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Result{}, fmt.Errorf("decode daily result: %w", err)
	}
	return r, nil
}

// InsertResult stores r unless a result already exists, and adds it to the
// board's leaderboard. It reports whether r was stored.
func (s *Store) InsertResult(ctx context.Context, r Result) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	played, err := s.AlreadyPlayed(ctx, r.Player, r.Date, r.Difficulty)
	if err != nil {
		return false, err
	}
	if played {
		return false, nil
	}
	rows, err := s.rows(ctx, r.Date, r.Difficulty)
	if err != nil {
		return false, err
	}

	b, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	if err := s.kv.Set(ctx, resultKey(r.Player, r.Date, r.Difficulty), string(b)); err != nil {
		return false, fmt.Errorf("insert daily result: %w", err)
	}

	rows = append(rows, LBRow{
		Player:      r.Player,
		Moves:       r.Moves,
		Elapsed:     r.Elapsed,
		ElapsedText: r.ElapsedText,
		FinishedAt:  r.FinishedAt,
	})
	if b, err = json.Marshal(rows); err != nil {
		return false, err
	}
	if err := s.kv.Set(ctx, boardKey(r.Date, r.Difficulty), string(b)); err != nil {
		return false, fmt.Errorf("index daily result: %w", err)
	}
	return true, nil
}

// Leaderboard returns up to limit results of a board ordered by elapsed
// seconds, then moves, then insert order.
func (s *Store) Leaderboard(ctx context.Context, date string, d game.Difficulty, limit int) ([]LBRow, error) {
	s.mu.Lock()
	rows, err := s.rows(ctx, date, d)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Elapsed != rows[j].Elapsed {
			return rows[i].Elapsed < rows[j].Elapsed
		}
		return rows[i].Moves < rows[j].Moves
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) rows(ctx context.Context, date string, d game.Difficulty) ([]LBRow, error) {
	raw, err := s.kv.Get(ctx, boardKey(date, d))
	if errors.Is(err, store.ErrNotFound) {
		return []LBRow{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []LBRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode daily leaderboard: %w", err)
	}
	return rows, nil
}
