package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/concentration/assets"
	"github.com/robalobadob/concentration/internal/config"
	"github.com/robalobadob/concentration/internal/daily"
	"github.com/robalobadob/concentration/internal/play"
	"github.com/robalobadob/concentration/internal/store"
)

const tick = time.Second

// queuedTimers holds every timer until flush runs it.
type queuedTimers struct {
	mu      sync.Mutex
	pending []*queuedTimer
}

type queuedTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (q *queuedTimers) AfterFunc(d time.Duration, fn func()) play.Stopper {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &queuedTimer{d: d, fn: fn}
	q.pending = append(q.pending, t)
	return stopper{q, t}
}

type stopper struct {
	q *queuedTimers
	t *queuedTimer
}

func (s stopper) Stop() bool {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	was := !s.t.stopped && !s.t.fired
	s.t.stopped = true
	return was
}

// flush fires queued timers, except clock ticks, until none are left.
func (q *queuedTimers) flush() {
	for {
		q.mu.Lock()
		var next *queuedTimer
		for _, t := range q.pending {
			if !t.stopped && !t.fired && t.d != tick {
				next = t
				break
			}
		}
		if next != nil {
			next.fired = true
		}
		q.mu.Unlock()
		if next == nil {
			return
		}
		next.fn()
	}
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         "test",
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "tok",
		ClientOrigin:   "http://localhost:5173",
		DailySalt:      "salt",
		DwellDelay:     8 * time.Millisecond,
		CompleteDelay:  5 * time.Millisecond,
		PreviewShow:    10 * time.Millisecond,
		PreviewHide:    11 * time.Millisecond,
		TickInterval:   tick,
		HandlerTimeout: 5 * time.Second,
		TableIdle:      time.Hour,
	}
}

var palette = []string{"🍎", "🍌", "🍊", "🍇", "🍓", "🥝", "🍑", "🥭", "🍍", "🥥", "🍒", "🍈"}

var today = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func newTestServer(kv store.KV) (*Server, *queuedTimers) {
	q := &queuedTimers{}
	s := New(testConfig(), palette, kv, WithTimers(q), WithClock(func() time.Time { return today }))
	return s, q
}

// client keeps cookies between requests, like a browser.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// pairsFromPreview groups card indexes by symbol; symbols are visible only
// while the preview is showing.
func pairsFromPreview(t *testing.T, v play.View) [][2]int {
	t.Helper()
	require.True(t, v.Preview)
	seen := map[string]int{}
	var pairs [][2]int
	for _, c := range v.Cards {
		require.NotEmpty(t, c.Symbol)
		if j, ok := seen[c.Symbol]; ok {
			pairs = append(pairs, [2]int{j, c.Index})
			continue
		}
		seen[c.Symbol] = c.Index
	}
	return pairs
}

// solve clears the board with no mistakes.
func solve(t *testing.T, c *client, q *queuedTimers, pairs [][2]int) play.View {
	t.Helper()
	q.flush() // preview
	for _, p := range pairs {
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/flip", map[string]int{"index": p[0]}).Code)
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/flip", map[string]int{"index": p[1]}).Code)
		q.flush()
	}
	rec := c.do(http.MethodGet, "/game", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[play.View](t, rec)
}

func TestHealthAndNotFound(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	c := newClient(t, s)

	rec := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = c.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())

	rec = c.do(http.MethodOptions, "/game/new", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticPage(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	c := newClient(t, s)

	rec := c.do(http.MethodGet, "/app/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "<title>Concentration</title>")

	rec = c.do(http.MethodGet, "/app/app.js", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `addEventListener("keydown"`)

	_, err := assets.Web().Open("index.html")
	assert.NoError(t, err)
}

func TestGameFlow(t *testing.T) {
	kv := store.NewMemory()
	s, q := newTestServer(kv)
	c := newClient(t, s)

	rec := c.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "Easy"})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[play.View](t, rec)
	assert.NotEmpty(t, c.cookies[anonCookieName])
	assert.Equal(t, "easy", string(v.Difficulty))
	assert.Equal(t, 3, v.Rows)
	assert.Equal(t, 4, v.Cols)
	assert.Len(t, v.Cards, 12)
	assert.False(t, v.InputEnabled)
	assert.Equal(t, "-", v.Best.MovesText)
	pairs := pairsFromPreview(t, v)
	require.Len(t, pairs, 6)

	// input is ignored while the preview is up
	v = decode[play.View](t, c.do(http.MethodPost, "/game/flip", map[string]int{"index": pairs[0][0]}))
	assert.False(t, v.Cards[pairs[0][0]].Flipped)
	assert.Equal(t, "not_started", v.Clock)

	q.flush()
	v = decode[play.View](t, c.do(http.MethodGet, "/game", nil))
	assert.True(t, v.InputEnabled)
	assert.False(t, v.Preview)
	for _, card := range v.Cards {
		assert.Empty(t, card.Symbol, "face-down symbols stay hidden")
	}

	v = solve(t, c, q, pairs)
	assert.Equal(t, "completed", v.Phase)
	assert.Equal(t, "stopped", v.Clock)
	assert.Equal(t, 6, v.Moves)
	assert.Equal(t, 6, v.MatchedPairs)
	require.NotNil(t, v.Completion)
	assert.Equal(t, 6, v.Completion.Moves)
	assert.Equal(t, "00:00", v.Completion.ElapsedText)
	assert.True(t, v.Completion.NewBestMoves)
	assert.True(t, v.Completion.NewBestTime)
	assert.Equal(t, "6", v.Best.MovesText)

	recs := decode[map[string]recordRes](t, c.do(http.MethodGet, "/records", nil))
	require.NotNil(t, recs["easy"].Moves)
	assert.Equal(t, 6, *recs["easy"].Moves)
	assert.Equal(t, "00:00", recs["easy"].TimeText)
	assert.Nil(t, recs["medium"].Moves)
	assert.Equal(t, "-", recs["hard"].MovesText)

	// records were persisted: a fresh server on the same store sees them
	s2, _ := newTestServer(kv)
	c.h = s2
	recs = decode[map[string]recordRes](t, c.do(http.MethodGet, "/records", nil))
	require.NotNil(t, recs["easy"].Moves)
	assert.Equal(t, 6, *recs["easy"].Moves)
}

func TestNewGameDefaultsToEasy(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	c := newClient(t, s)

	v := decode[play.View](t, c.do(http.MethodPost, "/game/new", nil))
	assert.Equal(t, "easy", string(v.Difficulty))

	v = decode[play.View](t, c.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "hard"}))
	assert.Len(t, v.Cards, 24)
	assert.Equal(t, 6, v.Cols)
}

func TestGameErrors(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	c := newClient(t, s)

	rec := c.do(http.MethodPost, "/game/flip", map[string]int{"index": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no_game"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/game", nil).Code)

	rec = c.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "extreme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"unknown_difficulty"}`, rec.Body.String())

	c.do(http.MethodPost, "/game/new", nil)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/game/flip", map[string]string{}).Code)

	// out-of-range flips are ignored, not errors
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/flip", map[string]int{"index": 99}).Code)
}

func TestPlayersAreIsolated(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	a, b := newClient(t, s), newClient(t, s)

	a.do(http.MethodPost, "/game/new", nil)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/game", nil).Code)
	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/game", nil).Code)
}

func TestTheme(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	c := newClient(t, s)

	assert.JSONEq(t, `{"theme":"light"}`, c.do(http.MethodGet, "/prefs/theme", nil).Body.String())

	rec := c.do(http.MethodPut, "/prefs/theme", map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, c.do(http.MethodGet, "/prefs/theme", nil).Body.String())

	assert.JSONEq(t, `{"theme":"light"}`, c.do(http.MethodPost, "/prefs/theme/toggle", nil).Body.String())
	assert.JSONEq(t, `{"theme":"light"}`, c.do(http.MethodGet, "/prefs/theme", nil).Body.String())

	rec = c.do(http.MethodPut, "/prefs/theme", map[string]string{"theme": "purple"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(store.NewMemory())
	c := newClient(t, s)
	creds := map[string]string{"username": "alice", "password": "correct horse"}

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil).Code)

	rec := c.do(http.MethodPost, "/auth/signup", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decode[userRes](t, rec)
	assert.Equal(t, "alice", u.Username)
	require.NotNil(t, c.cookies["tok"])

	me := decode[userRes](t, c.do(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, u, me)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/auth/signup", creds).Code)
	assert.Equal(t, http.StatusBadRequest,
		c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "x", "password": "short"}).Code)

	rec = c.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.cookies["tok"])
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil).Code)

	assert.Equal(t, http.StatusUnauthorized,
		c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "wrong pass"}).Code)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/login", creds).Code)

	// bearer tokens work too
	other := newClient(t, s)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+c.cookies["tok"].Value)
	res := httptest.NewRecorder()
	other.h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestSignupClaimsGuestRecords(t *testing.T) {
	s, q := newTestServer(store.NewMemory())
	c := newClient(t, s)

	v := decode[play.View](t, c.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "easy"}))
	solve(t, c, q, pairsFromPreview(t, v))

	require.Equal(t, http.StatusOK,
		c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "bob_99", "password": "hunter2hunter2"}).Code)

	recs := decode[map[string]recordRes](t, c.do(http.MethodGet, "/records", nil))
	require.NotNil(t, recs["easy"].Moves)
	assert.Equal(t, 6, *recs["easy"].Moves)

	// the account's records follow it to another browser
	other := newClient(t, s)
	require.Equal(t, http.StatusOK,
		other.do(http.MethodPost, "/auth/login", map[string]string{"username": "bob_99", "password": "hunter2hunter2"}).Code)
	recs = decode[map[string]recordRes](t, other.do(http.MethodGet, "/records", nil))
	require.NotNil(t, recs["easy"].Moves)
	assert.Equal(t, 6, *recs["easy"].Moves)
}

func TestDaily(t *testing.T) {
	kv := store.NewMemory()
	s, q := newTestServer(kv)
	a, b := newClient(t, s), newClient(t, s)

	rec := a.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "medium"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[dailyNewRes](t, rec)
	assert.Equal(t, "2026-03-14", first.Date)
	assert.False(t, first.Played)
	require.NotNil(t, first.View)
	assert.Equal(t, "2026-03-14", first.View.Tag)
	assert.Len(t, first.View.Cards, 16)

	second := decode[dailyNewRes](t, b.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "medium"}))
	require.NotNil(t, second.View)
	for i := range first.View.Cards {
		assert.Equal(t, first.View.Cards[i].Symbol, second.View.Cards[i].Symbol, "card %d", i)
	}

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/daily/result?difficulty=medium", nil).Code)

	solve(t, a, q, pairsFromPreview(t, *first.View))

	res := decode[daily.Result](t, a.do(http.MethodGet, "/daily/result?difficulty=medium", nil))
	assert.Equal(t, 8, res.Moves)
	assert.Equal(t, "2026-03-14", res.Date)

	again := decode[dailyNewRes](t, a.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "medium"}))
	assert.True(t, again.Played)
	assert.Nil(t, again.View)
	require.NotNil(t, again.Result)
	assert.Equal(t, 8, again.Result.Moves)

	// other difficulties are separate boards
	easy := decode[dailyNewRes](t, a.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "easy"}))
	assert.False(t, easy.Played)

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/daily/result?difficulty=medium", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/daily/result?difficulty=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/daily/result?difficulty=easy&date=yesterday", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/daily/result?difficulty=medium&date=2026-03-14", nil).Code)
}

func TestRegularGameIsNotADailyResult(t *testing.T) {
	kv := store.NewMemory()
	s, q := newTestServer(kv)
	c := newClient(t, s)

	v := decode[play.View](t, c.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "easy"}))
	solve(t, c, q, pairsFromPreview(t, v))

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/daily/result?difficulty=easy", nil).Code)
}

func TestDailyLeaderboard(t *testing.T) {
	s, q := newTestServer(store.NewMemory())
	alice, guest, viewer := newClient(t, s), newClient(t, s), newClient(t, s)

	require.Equal(t, http.StatusOK,
		alice.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "correct horse"}).Code)

	empty := decode[lbRes](t, viewer.do(http.MethodGet, "/daily/leaderboard?difficulty=easy", nil))
	assert.Equal(t, "2026-03-14", empty.Date)
	assert.Empty(t, empty.Top)

	// guest makes one mistake first, so alice (no mistakes, same time) ranks first
	g := decode[dailyNewRes](t, guest.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "easy"}))
	require.NotNil(t, g.View)
	pairs := pairsFromPreview(t, *g.View)
	q.flush()
	guest.do(http.MethodPost, "/game/flip", map[string]int{"index": pairs[0][0]})
	guest.do(http.MethodPost, "/game/flip", map[string]int{"index": pairs[1][0]})
	solve(t, guest, q, pairs)

	a := decode[dailyNewRes](t, alice.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "easy"}))
	require.NotNil(t, a.View)
	solve(t, alice, q, pairsFromPreview(t, *a.View))

	rec := alice.do(http.MethodGet, "/daily/leaderboard?difficulty=easy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lb := decode[lbRes](t, rec)
	require.Len(t, lb.Top, 2)
	assert.Equal(t, lbRow{Rank: 1, Name: "alice", Moves: 6, ElapsedText: "00:00", You: true}, lb.Top[0])
	assert.Equal(t, lbRow{Rank: 2, Name: "guest", Moves: 7, ElapsedText: "00:00"}, lb.Top[1])
	assert.NotContains(t, rec.Body.String(), "a:", "guest ids are not exposed")

	other := decode[lbRes](t, viewer.do(http.MethodGet, "/daily/leaderboard?difficulty=hard&date=2026-03-14", nil))
	assert.Empty(t, other.Top)
	assert.Equal(t, http.StatusBadRequest, viewer.do(http.MethodGet, "/daily/leaderboard?difficulty=easy&date=14/03", nil).Code)
}

func TestStatsAndRecentGames(t *testing.T) {
	s, q := newTestServer(store.NewMemory())
	c := newClient(t, s)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/stats/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/games/mine", nil).Code)

	// a guest game is carried over on signup
	v := decode[play.View](t, c.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "easy"}))
	solve(t, c, q, pairsFromPreview(t, v))

	rec := c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "carol", "password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[userRes](t, rec)

	d := decode[dailyNewRes](t, c.do(http.MethodPost, "/daily/new", map[string]string{"difficulty": "medium"}))
	require.NotNil(t, d.View)
	solve(t, c, q, pairsFromPreview(t, *d.View))

	var sum struct {
		ID             string         `json:"id"`
		GamesCompleted int            `json:"gamesCompleted"`
		DailyCompleted int            `json:"dailyCompleted"`
		PerDifficulty  map[string]int `json:"perDifficulty"`
		TotalMoves     int            `json:"totalMoves"`
	}
	rec = c.do(http.MethodGet, "/stats/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, me.ID, sum.ID)
	assert.Equal(t, 2, sum.GamesCompleted)
	assert.Equal(t, 1, sum.DailyCompleted)
	assert.Equal(t, map[string]int{"easy": 1, "medium": 1}, sum.PerDifficulty)
	assert.Equal(t, 14, sum.TotalMoves)

	var games []struct {
		Difficulty string `json:"difficulty"`
		Moves      int    `json:"moves"`
		Daily      string `json:"daily"`
	}
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/games/mine", nil).Body.Bytes(), &games))
	require.Len(t, games, 2)
	assert.Equal(t, "2026-03-14", games[0].Daily)
	assert.Equal(t, 8, games[0].Moves)
	assert.Equal(t, "easy", games[1].Difficulty)

	fresh := newClient(t, s)
	require.Equal(t, http.StatusOK,
		fresh.do(http.MethodPost, "/auth/signup", map[string]string{"username": "dave", "password": "correct horse"}).Code)
	assert.JSONEq(t, `[]`, fresh.do(http.MethodGet, "/games/mine", nil).Body.String())
}

func TestLoginKeepsAccountGameAndNewerBest(t *testing.T) {
	s, q := newTestServer(store.NewMemory())
	creds := map[string]string{"username": "erin_1", "password": "correct horse"}

	phone := newClient(t, s)
	require.Equal(t, http.StatusOK, phone.do(http.MethodPost, "/auth/signup", creds).Code)
	v := decode[play.View](t, phone.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "easy"}))
	solve(t, phone, q, pairsFromPreview(t, v))

	// a second game is in progress on the account when another browser logs in
	v = decode[play.View](t, phone.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "hard"}))
	q.flush()

	// the guest on the laptop has a worse easy record and a new medium one
	laptop := newClient(t, s)
	g := decode[play.View](t, laptop.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "easy"}))
	pairs := pairsFromPreview(t, g)
	q.flush()
	laptop.do(http.MethodPost, "/game/flip", map[string]int{"index": pairs[0][0]})
	laptop.do(http.MethodPost, "/game/flip", map[string]int{"index": pairs[1][0]})
	solve(t, laptop, q, pairs)
	g = decode[play.View](t, laptop.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "medium"}))
	solve(t, laptop, q, pairsFromPreview(t, g))

	require.Equal(t, http.StatusOK, laptop.do(http.MethodPost, "/auth/login", creds).Code)

	cur := decode[play.View](t, phone.do(http.MethodGet, "/game", nil))
	assert.Equal(t, v.TableID, cur.TableID, "account table survives the login")
	assert.Equal(t, "hard", string(cur.Difficulty))
	assert.True(t, cur.InputEnabled)

	recs := decode[map[string]recordRes](t, laptop.do(http.MethodGet, "/records", nil))
	require.NotNil(t, recs["easy"].Moves)
	assert.Equal(t, 6, *recs["easy"].Moves, "the account's better best is kept")
	require.NotNil(t, recs["medium"].Moves)
	assert.Equal(t, 8, *recs["medium"].Moves)

	// the claimed best is on the account's live table too
	cur = decode[play.View](t, phone.do(http.MethodPost, "/game/new", map[string]string{"difficulty": "medium"}))
	assert.Equal(t, "8", cur.Best.MovesText)
}
