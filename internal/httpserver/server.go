// internal/httpserver/server.go
//
// HTTP server wiring for the Concentration backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, request log).
//   - Public endpoints: "/", "/health", static page under /app/.
//   - Game endpoints: POST /game/new, POST /game/flip, GET /game, GET /records.
//   - Preferences: GET/PUT /prefs/theme, POST /prefs/theme/toggle.
//   - Daily board endpoints: mounted under /daily.
//   - Account endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Every game route runs with a player id: the account id when a valid token
//     is present, otherwise an anonymous cookie id. Guests can play.
//   - One play.Table per player; its timers run in-process.

package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/concentration/assets"
	"github.com/robalobadob/concentration/internal/auth"
	"github.com/robalobadob/concentration/internal/config"
	"github.com/robalobadob/concentration/internal/daily"
	"github.com/robalobadob/concentration/internal/game"
	"github.com/robalobadob/concentration/internal/play"
	"github.com/robalobadob/concentration/internal/prefs"
	"github.com/robalobadob/concentration/internal/stats"
	"github.com/robalobadob/concentration/internal/store"
)

// Server bundles the router, the per-player tables and the stores behind them.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	palette []string
	prefs   *prefs.Prefs
	auth    *auth.Service
	daily   *daily.Store
	stats   *stats.Store
	tables  *play.Registry
	timers  play.Timers
	now     func() time.Time
}

// Option customises a Server (mostly for tests).
type Option func(*Server)

// WithTimers replaces the real timer host.
func WithTimers(t play.Timers) Option { return func(s *Server) { s.timers = t } }

// WithClock replaces time.Now for the daily date.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, palette []string, kv store.KV, opts ...Option) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		palette: palette,
		prefs:   prefs.New(kv),
		auth:    auth.NewService(kv, cfg.JWTSecret, cfg.TokenTTL()),
		daily:   daily.NewStore(kv),
		stats:   stats.NewStore(kv),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.tables = play.NewRegistry(s.newTable)

	// --- middleware ---
	s.r.Use(chimw.RequestID)                   // add X-Request-ID
	s.r.Use(chimw.RealIP)                      // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                     // zerolog access log
	s.r.Use(chimw.Recoverer)                   // recover from panics
	s.r.Use(chimw.Timeout(cfg.HandlerTimeout)) // bound handler time
	s.r.Use(s.cors)                            // credentials-friendly CORS

	// --- static page (not JSON) ---
	s.r.Get("/app", http.RedirectHandler("/app/", http.StatusMovedPermanently).ServeHTTP)
	s.r.Handle("/app/*", http.StripPrefix("/app/", http.FileServer(http.FS(assets.Web()))))

	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"concentration-go","endpoints":["/health","/app/","POST /game/new","POST /game/flip","GET /game","GET /records","/prefs/theme","/daily/*","/auth/*","/stats/me","/games/mine"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Game + prefs + daily: guests allowed
		r.Group(func(r chi.Router) {
			r.Use(s.withPlayer)
			r.Post("/game/new", s.handleNewGame)
			r.Post("/game/flip", s.handleFlip)
			r.Get("/game", s.handleGame)
			r.Get("/records", s.handleRecords)
			r.Get("/prefs/theme", s.handleGetTheme)
			r.Put("/prefs/theme", s.handlePutTheme)
			r.Post("/prefs/theme/toggle", s.handleToggleTheme)
			s.mountDaily(r)
		})

		s.mountAuthRoutes(r)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// closes every table.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	go s.sweep(ctx)

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := hs.Shutdown(shutdownCtx)
	s.tables.Sweep(time.Now(), -1)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// sweep drops idle tables until ctx is done.
func (s *Server) sweep(ctx context.Context) {
	every := s.cfg.TableIdle / 4
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.tables.Sweep(now, s.cfg.TableIdle); n > 0 {
				log.Info().Int("closed", n).Int("live", s.tables.Len()).Msg("swept idle tables")
			}
		}
	}
}

// newTable builds a player's table with the records stored for them.
func (s *Server) newTable(player string) *play.Table {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return play.NewTable(player, play.Options{
		Palette: s.palette,
		Timing:  s.cfg.Timing(),
		Records: s.prefs.Records(ctx, player),
		Timers:  s.timers,
		Hooks: play.Hooks{
			Persist:  s.persistRecords,
			Complete: s.recordCompletion,
		},
	})
}

// persistRecords writes a table's records as soon as they change.
func (s *Server) persistRecords(player string, r game.Records) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.prefs.SaveRecords(ctx, player, r); err != nil {
		log.Warn().Err(err).Str("player", player).Msg("persist best records")
	}
}

// recordCompletion adds a finished game to the player's history and, for a
// daily board, stores the daily result.
func (s *Server) recordCompletion(player, tag string, c game.Completed) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.stats.Record(ctx, player, stats.Game{
		Difficulty:  c.Difficulty,
		Moves:       c.Moves,
		Elapsed:     c.Elapsed,
		ElapsedText: c.ElapsedText,
		Daily:       tag,
		FinishedAt:  s.now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("record game history")
	}
	s.recordDaily(ctx, player, tag, c)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one debug line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ GAME ---------------------------------------

type newGameReq struct {
	Difficulty string `json:"difficulty"` // easy | medium | hard; empty means easy
}

type flipReq struct {
	Index *int `json:"index"`
}

// handleNewGame deals a new board on the player's table, cancelling whatever
// the previous game still had scheduled.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDifficulty(w, r)
	if !ok {
		return
	}
	t := s.tables.Ensure(playerFrom(r))
	writeJSON(w, t.NewGame(d, nil, ""))
}

// handleFlip forwards a flip intent. Rejected flips are not errors; the
// unchanged view is returned.
func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var req flipReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	t := s.tables.Get(playerFrom(r))
	if t == nil || !t.Started() {
		writeError(w, http.StatusNotFound, "no_game")
		return
	}
	writeJSON(w, t.Flip(*req.Index))
}

// handleGame returns the current view for polling clients.
func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	t := s.tables.Get(playerFrom(r))
	if t == nil || !t.Started() {
		writeError(w, http.StatusNotFound, "no_game")
		return
	}
	writeJSON(w, t.View())
}

type recordRes struct {
	Moves     *int   `json:"moves"`
	Time      *int   `json:"time"`
	TimeText  string `json:"timeText"`
	MovesText string `json:"movesText"`
}

// handleRecords returns the player's best records per difficulty.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	player := playerFrom(r)
	var recs game.Records
	if t := s.tables.Get(player); t != nil {
		recs = t.Records()
	} else {
		recs = s.prefs.Records(r.Context(), player)
	}
	out := make(map[game.Difficulty]recordRes, len(recs))
	for _, d := range game.Difficulties() {
		rec := recs.Get(d)
		rr := recordRes{Moves: rec.Moves, Time: rec.Time, MovesText: "-", TimeText: "-"}
		if rec.Moves != nil {
			rr.MovesText = strconv.Itoa(*rec.Moves)
		}
		if rec.Time != nil {
			rr.TimeText = game.FormatElapsed(*rec.Time)
		}
		out[d] = rr
	}
	writeJSON(w, out)
}

// ------------------------------ PREFS --------------------------------------

type themeBody struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, themeBody{Theme: string(s.prefs.Theme(r.Context(), playerFrom(r)))})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	t, err := prefs.ParseTheme(body.Theme)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_theme")
		return
	}
	s.saveTheme(w, r, t)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.saveTheme(w, r, s.prefs.Theme(r.Context(), playerFrom(r)).Toggle())
}

func (s *Server) saveTheme(w http.ResponseWriter, r *http.Request, t prefs.Theme) {
	if err := s.prefs.SaveTheme(r.Context(), playerFrom(r), t); err != nil {
		log.Warn().Err(err).Msg("save theme")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, themeBody{Theme: string(t)})
}

// ------------------------------ players ------------------------------------

type ctxPlayerKey struct{}

// withPlayer resolves the player id: "u:<account id>" for a valid token,
// otherwise "a:<anonymous cookie>". It never rejects a request.
func (s *Server) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var player string
		if c, ok := s.optionalClaims(r); ok {
			player = userPlayer(c.ID)
		} else {
			player = anonPlayer(s.ensureAnonID(w, r))
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, player)))
	})
}

func playerFrom(r *http.Request) string {
	p, _ := r.Context().Value(ctxPlayerKey{}).(string)
	return p
}

func userPlayer(id string) string   { return "u:" + id }
func anonPlayer(anon string) string { return "a:" + anon }

const anonCookieName = "concentration_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: s.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

func (s *Server) sameSite() http.SameSite {
	if s.cfg.Production() {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// ------------------------------ small util ---------------------------------

func decodeDifficulty(w http.ResponseWriter, r *http.Request) (game.Difficulty, bool) {
	var req newGameReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return "", false
		}
	}
	if req.Difficulty == "" {
		return game.Easy, true
	}
	d, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return "", false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
