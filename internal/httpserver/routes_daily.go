// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Board" mode.
//   - POST /daily/new     → deal today's board for a difficulty on the player's table
//   - GET  /daily/result  → the player's stored result for a date (default today)
//   - GET  /daily/leaderboard → top results of a board (default today)
//
// Every player gets the same deal per date and difficulty (HMAC of date + salt).
// Only the first completion of a daily board is stored.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/concentration/internal/daily"
	"github.com/robalobadob/concentration/internal/game"
	"github.com/robalobadob/concentration/internal/play"
	"github.com/robalobadob/concentration/internal/store"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
		r.Get("/result", s.handleDailyResult)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// dailyNewRes is returned by /daily/new. Exactly one of Result and View is set.
type dailyNewRes struct {
	Date   string        `json:"date"`
	Played bool          `json:"played"`
	Result *daily.Result `json:"result,omitempty"`
	View   *play.View    `json:"view,omitempty"`
}

// handleDailyNew deals today's board.
// - If the player already finished it → Played=true with the stored result.
// - Otherwise the board replaces whatever is on the player's table.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDifficulty(w, r)
	if !ok {
		return
	}
	player := playerFrom(r)
	now := s.now().UTC()
	date := daily.DateKey(now)

	res, err := s.daily.Result(r.Context(), player, date, d)
	switch {
	case err == nil:
		writeJSON(w, dailyNewRes{Date: date, Played: true, Result: &res})
		return
	case !errors.Is(err, store.ErrNotFound):
		log.Error().Err(err).Msg("daily lookup")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	v := s.tables.Ensure(player).NewGame(d, daily.Rand(now, s.cfg.DailySalt, d), date)
	writeJSON(w, dailyNewRes{Date: date, Played: false, View: &v})
}

// handleDailyResult returns the stored result for ?difficulty= and ?date=
// (default today), or 404.
func (s *Server) handleDailyResult(w http.ResponseWriter, r *http.Request) {
	d, date, ok := s.boardQuery(w, r)
	if !ok {
		return
	}
	res, err := s.daily.Result(r.Context(), playerFrom(r), date, d)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_played")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("daily result")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, res)
}

// lbRow is a leaderboard entry as shown to players. Guest ids stay private.
type lbRow struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Moves       int    `json:"moves"`
	Elapsed     int    `json:"elapsed"`
	ElapsedText string `json:"elapsedText"`
	You         bool   `json:"you,omitempty"`
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date       string          `json:"date"`
	Difficulty game.Difficulty `json:"difficulty"`
	Top        []lbRow         `json:"top"`
}

const leaderboardSize = 20

// handleLeaderboard returns the top results for ?difficulty= and ?date=
// (default today), fastest first.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	d, date, ok := s.boardQuery(w, r)
	if !ok {
		return
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, d, leaderboardSize)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	me := playerFrom(r)
	out := lbRes{Date: date, Difficulty: d, Top: make([]lbRow, 0, len(rows))}
	for i, row := range rows {
		out.Top = append(out.Top, lbRow{
			Rank:        i + 1,
			Name:        s.displayName(r.Context(), row.Player),
			Moves:       row.Moves,
			Elapsed:     row.Elapsed,
			ElapsedText: row.ElapsedText,
			You:         row.Player == me,
		})
	}
	writeJSON(w, out)
}

// displayName is the account username, or "guest".
func (s *Server) displayName(ctx context.Context, player string) string {
	if id, ok := strings.CutPrefix(player, "u:"); ok {
		if u, err := s.auth.FindByID(ctx, id); err == nil {
			return u.Username
		}
	}
	return "guest"
}

// boardQuery parses ?difficulty= and ?date= (default today).
func (s *Server) boardQuery(w http.ResponseWriter, r *http.Request) (game.Difficulty, string, bool) {
	q := r.URL.Query()
	d, err := game.ParseDifficulty(q.Get("difficulty"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return "", "", false
	}
	date := q.Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return "", "", false
	}
	return d, date, true
}

// recordDaily stores the first completion of a daily board. Games without a
// date tag are ignored.
func (s *Server) recordDaily(ctx context.Context, player, tag string, c game.Completed) {
	if tag == "" {
		return
	}
	stored, err := s.daily.InsertResult(ctx, daily.Result{
		Player:      player,
		Date:        tag,
		Difficulty:  c.Difficulty,
		Moves:       c.Moves,
		Elapsed:     c.Elapsed,
		ElapsedText: c.ElapsedText,
		FinishedAt:  s.now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("store daily result")
		return
	}
	log.Info().Str("player", player).Str("date", tag).Bool("stored", stored).Msg("daily board completed")
}
