// internal/httpserver/routes_auth.go
//
// Account routes:
//   - POST /auth/signup  → create account, set cookie, claim anonymous records
//   - POST /auth/login   → check credentials, set cookie, claim anonymous records
//   - POST /auth/logout  → clear cookie
//   - GET  /auth/me      → current account (requires auth)
//   - GET  /stats/me     → completed-game totals (requires auth)
//   - GET  /games/mine   → recent completed games (requires auth)
//
// Tokens are read from "Authorization: Bearer" or the auth cookie.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/concentration/internal/auth"
	"github.com/robalobadob/concentration/internal/play"
	"github.com/robalobadob/concentration/internal/stats"
)

type ctxUserKey struct{}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userRes struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.With(s.requireAuth).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(auth.Claims)
		writeJSON(w, userRes{ID: me.ID, Username: me.Username})
	})

	// Stats (gated)
	r.With(s.requireAuth).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(auth.Claims)
		sum, err := s.stats.Summary(r.Context(), userPlayer(me.ID))
		if err != nil {
			log.Error().Err(err).Msg("stats summary")
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, statsRes{ID: me.ID, Summary: sum})
	})

	// Recent games (gated)
	r.With(s.requireAuth).Get("/games/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(auth.Claims)
		games, err := s.stats.Recent(r.Context(), userPlayer(me.ID), stats.HistoryLimit)
		if err != nil {
			log.Error().Err(err).Msg("recent games")
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if games == nil {
			games = []stats.Game{}
		}
		writeJSON(w, games)
	})
}

type statsRes struct {
	ID string `json:"id"`
	stats.Summary
}

// handleSignup creates a new user, signs a JWT, sets the auth cookie and
// claims the anonymous records.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.auth.Signup(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "Username taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.signIn(w, r, u)
}

// handleLogin authenticates the user, sets the cookie and claims the
// anonymous records.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.signIn(w, r, u)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *auth.User) {
	tok, exp, err := s.auth.Sign(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	anon, user := anonPlayer(s.ensureAnonID(w, r)), userPlayer(u.ID)
	s.claimAnonRecords(r.Context(), anon, user)
	if _, err := s.stats.Claim(r.Context(), anon, user); err != nil {
		log.Warn().Err(err).Str("player", user).Msg("claim guest games")
	}
	writeJSON(w, userRes{ID: u.ID, Username: u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, map[string]bool{"ok": true})
}

// claimAnonRecords merges the guest's best records into the account. The
// merge goes through the account's table so it is serialised with bests
// written by a game finishing on that table.
func (s *Server) claimAnonRecords(ctx context.Context, anon, user string) {
	guest := s.prefs.Records(ctx, anon)
	if t := s.tables.Get(anon); t != nil {
		guest.Merge(t.Records())
	}
	for attempt := 0; attempt < 2; attempt++ {
		changed, err := s.tables.Ensure(user).MergeRecords(guest)
		if errors.Is(err, play.ErrClosed) {
			continue // swept between Ensure and the merge
		}
		if changed {
			log.Info().Str("player", user).Msg("claimed guest records")
		}
		return
	}
	log.Warn().Str("player", user).Msg("claim guest records: table closed")
}

// ------------------------------ tokens -------------------------------------

// optionalClaims returns the verified identity when a valid token is present.
func (s *Server) optionalClaims(r *http.Request) (auth.Claims, bool) {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return auth.Claims{}, false
	}
	c, err := s.auth.Parse(tok)
	if err != nil {
		return auth.Claims{}, false
	}
	return c, true
}

// requireAuth rejects requests without a valid token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.optionalClaims(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, c)))
	})
}

func (s *Server) bearerOrCookie(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}
