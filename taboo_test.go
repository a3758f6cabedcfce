package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/taboo/games/taboo"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireMessage map[string]any

func newTestServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(newTestRouter(t, cfg))
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/taboo/" + gameID + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(msg))
}

// waitFor reads until a message of type kind arrives that satisfies match.
func waitFor(t *testing.T, conn *websocket.Conn, kind string, match func(wireMessage) bool) wireMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", kind)

		if msg["type"] == kind && (match == nil || match(msg)) {
			return msg
		}
	}
}

func screen(phase taboo.Phase) func(wireMessage) bool {
	return func(m wireMessage) bool {
		return m["phase"] == string(phase)
	}
}

func correctCount(n int) func(wireMessage) bool {
	return func(m wireMessage) bool {
		return m["correct"] == float64(n)
	}
}

func fastConfig() *Config {
	cfg := testConfig()
	cfg.tick = 10 * time.Millisecond
	cfg.roundDuration = 30 * time.Second

	return cfg
}

func TestWebSocketRound(t *testing.T) {
	srv := newTestServer(t, fastConfig())
	conn := dial(t, srv, "round")

	state := waitFor(t, conn, "state", nil)
	assert.Equal(t, "welcome", state["state"].(map[string]any)["phase"])
	assert.Len(t, state["decks"], 2)

	send(t, conn, ClientMessage{Type: "play"})
	waitFor(t, conn, "screen", screen(taboo.PhaseTeamSelection))

	send(t, conn, ClientMessage{Type: "choose_teams", Count: 2})
	waitFor(t, conn, "screen", screen(taboo.PhaseGetReady))
	team := waitFor(t, conn, "team", nil)
	assert.Equal(t, "Team 1", team["name"])

	send(t, conn, ClientMessage{Type: "skip_countdown"})
	waitFor(t, conn, "screen", screen(taboo.PhasePlaying))

	send(t, conn, ClientMessage{Type: "correct"})
	waitFor(t, conn, "score", func(m wireMessage) bool {
		return m["score"] == float64(1)
	})

	waitFor(t, conn, "review", correctCount(1))

	send(t, conn, ClientMessage{Type: "toggle", Index: 0})
	waitFor(t, conn, "review_score", correctCount(0))

	send(t, conn, ClientMessage{Type: "toggle", Index: 0})
	waitFor(t, conn, "review_score", correctCount(1))

	send(t, conn, ClientMessage{Type: "confirm"})
	board := waitFor(t, conn, "scoreboard", nil)
	teams := board["teams"].([]any)
	require.Len(t, teams, 2)
	assert.Equal(t, float64(1), teams[0].(map[string]any)["score"])
	assert.Equal(t, float64(0), teams[1].(map[string]any)["score"])
	waitFor(t, conn, "screen", screen(taboo.PhaseRoundOver))

	send(t, conn, ClientMessage{Type: "next_round"})
	waitFor(t, conn, "screen", screen(taboo.PhaseGetReady))
	team = waitFor(t, conn, "team", nil)
	assert.Equal(t, "Team 2", team["name"])
}

func TestWebSocketRejectedAction(t *testing.T) {
	srv := newTestServer(t, fastConfig())
	conn := dial(t, srv, "rejected")

	waitFor(t, conn, "state", nil)

	send(t, conn, ClientMessage{Type: "correct"})
	msg := waitFor(t, conn, "error", nil)
	assert.Contains(t, msg["message"], taboo.ErrWrongPhase.Error())

	send(t, conn, ClientMessage{Type: "play"})
	send(t, conn, ClientMessage{Type: "choose_teams", Count: 0})
	msg = waitFor(t, conn, "error", nil)
	assert.Contains(t, msg["message"], taboo.ErrConfiguration.Error())
}

func TestWebSocketMirrorsSession(t *testing.T) {
	srv := newTestServer(t, fastConfig())

	first := dial(t, srv, "shared")
	waitFor(t, first, "state", nil)

	second := dial(t, srv, "shared")
	waitFor(t, second, "state", nil)

	send(t, first, ClientMessage{Type: "play"})
	waitFor(t, second, "screen", screen(taboo.PhaseTeamSelection))

	send(t, second, ClientMessage{Type: "select_deck", Deck: string(taboo.CategorySecondary)})
	send(t, second, ClientMessage{Type: "deselect_deck", Deck: string(taboo.CategoryPrimary)})

	decks := waitFor(t, first, "decks", func(m wireMessage) bool {
		d := m["decks"].([]any)
		return d[0].(map[string]any)["selected"] == false
	})["decks"].([]any)
	require.Len(t, decks, 2)
	assert.Equal(t, true, decks[1].(map[string]any)["selected"])

	third := dial(t, srv, "shared")
	state := waitFor(t, third, "state", nil)
	assert.Equal(t, "team_selection", state["state"].(map[string]any)["phase"])

	other := dial(t, srv, "elsewhere")
	state = waitFor(t, other, "state", nil)
	assert.Equal(t, "welcome", state["state"].(map[string]any)["phase"])
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := fastConfig()
	cfg.rateLimit = 0.001
	cfg.rateBurst = 1

	srv := newTestServer(t, cfg)

	conn := dial(t, srv, "limited")
	waitFor(t, conn, "state", nil)

	send(t, conn, ClientMessage{Type: "play"})
	waitFor(t, conn, "screen", screen(taboo.PhaseTeamSelection))

	send(t, conn, ClientMessage{Type: "quit"})

	// A fresh connection has its own allowance, and sees the quit was dropped.
	send(t, dial(t, srv, "limited"), ClientMessage{Type: "choose_teams", Count: 2})
	waitFor(t, conn, "screen", screen(taboo.PhaseGetReady))
}

func TestGameOptions(t *testing.T) {
	cfg := testConfig()
	cfg.roundDuration = 45 * time.Second
	cfg.countdownDuration = 3 * time.Second
	cfg.roundsPerTeam = 2

	opts := gameOptions(cfg)
	assert.Equal(t, 45, opts.RoundSeconds)
	assert.Equal(t, 3, opts.CountdownSeconds)
	assert.Equal(t, 2, opts.RoundsPerTeam)
}

func TestNewGameID(t *testing.T) {
	gm := newGameManager(testDecks(), 0)
	defer gm.Close()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := gm.newGameID()
		assert.Len(t, id, 8)
		for _, r := range id {
			assert.True(t, strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789", r))
		}
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}

func TestReapIdle(t *testing.T) {
	cfg := testConfig()
	gm := newGameManager(testDecks(), 0)
	defer gm.Close()

	stale := gm.getHub(cfg, "stale")
	fresh := gm.getHub(cfg, "fresh")

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, 1, gm.reapIdle(time.Now().Add(-time.Hour)))

	select {
	case <-stale.done:
	default:
		t.Fatal("stale hub was not closed")
	}

	assert.Same(t, fresh, gm.getHub(cfg, "fresh"))
	assert.NotSame(t, stale, gm.getHub(cfg, "stale"))
}

func TestManagerClose(t *testing.T) {
	gm := newGameManager(testDecks(), time.Hour)
	h := gm.getHub(testConfig(), "closing")

	gm.Close()
	gm.Close()

	select {
	case <-h.done:
	default:
		t.Fatal("hub was not closed")
	}
}

func TestDeckStates(t *testing.T) {
	states := deckStates(testDecks(), []taboo.Category{taboo.CategorySecondary})

	assert.Equal(t, []DeckState{
		{ID: taboo.CategoryPrimary, Label: "Naija", Cards: 2, Selected: false},
		{ID: taboo.CategorySecondary, Label: "General", Cards: 1, Selected: true},
	}, states)
}
