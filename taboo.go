// Taboo, served over WebSockets
//
// Every game ID is its own session: one taboo.Game owned by a Hub goroutine.
// Browsers connect to /path/:gameid/ws; their actions and the game's timer
// ticks are queued onto the hub and handled one at a time, and every state
// change is broadcast to all connections of that game.
//
// Features:
// - Per-game sessions at /path/:gameid, created from /path with a random ID
// - Any number of screens per session, all kept in sync
// - Full state sent on connect, so reloading the page resumes the game
// - Per-connection message rate limiting
// - Sessions reaped after a configurable idle timeout
// - QR code of the session URL, backed by go-qrcode

package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/taboo/games/taboo"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

// ClientMessage is every message a client can send.
type ClientMessage struct {
	Type  string `json:"type"`            // see handleAction
	Deck  string `json:"deck,omitempty"`  // select_deck / deselect_deck
	Count int    `json:"count,omitempty"` // choose_teams
	Index int    `json:"index"`           // toggle
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	limiter  *rate.Limiter
}

type actionRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	clients map[*Client]bool
	game    *taboo.Game
	decks   taboo.DeckData

	// onToggle is handed over by the game while the review screen is up.
	onToggle func(index int)

	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
	ticks    chan func()
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func gameOptions(cfg *Config) taboo.Options {
	return taboo.Options{
		RoundSeconds:     int(cfg.roundDuration / time.Second),
		CountdownSeconds: int(cfg.countdownDuration / time.Second),
		RoundsPerTeam:    cfg.roundsPerTeam,
		Tick:             cfg.tick,
	}
}

func newHub(cfg *Config, gameID string, decks taboo.DeckData) *Hub {
	now := time.Now()

	h := &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		decks:      decks,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan actionRequest),
		ticks:      make(chan func()),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	opts := gameOptions(cfg)
	opts.Logf = func(format string, args ...any) {
		logf(cfg, "GAMES: [%s] "+format, append([]any{gameID}, args...)...)
	}
	opts.OnError = func(err error) {
		h.broadcastLocked(ErrorMessage{Type: "error", Message: err.Error()})
	}

	h.game = taboo.New(decks, hubPresenter{h}, taboo.TickerScheduler{Post: h.post}, opts)

	return h
}

// post queues fn to run on the hub goroutine. It gives up once the hub has
// shut down.
func (h *Hub) post(fn func()) {
	select {
	case h.ticks <- fn:
	case <-h.done:
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			h.game.Stop()
			h.closeClientsLocked()
			h.mu.Unlock()

			logf(cfg, "GAMES: Closed %s", h.id)

			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true

			h.sendLocked(c, StateMessage{
				Type:  "state",
				State: h.game.Snapshot(),
				Decks: deckStates(h.decks, h.game.SelectedDecks()),
			})
			h.mu.Unlock()

			logf(cfg, "GAMES: Player %s connected to %s", c.playerID, h.id)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case ar := <-h.actions:
			h.handleAction(cfg, ar)

		case fn := <-h.ticks:
			h.mu.Lock()
			fn()
			h.mu.Unlock()
		}
	}
}

// handleAction applies one client message to the game. Rejected actions are
// reported to the sender only.
func (h *Hub) handleAction(cfg *Config, ar actionRequest) {
	c := ar.client
	msg := ar.msg
	g := h.game

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	var err error

	switch msg.Type {
	case "play":
		err = g.Play()
	case "select_deck":
		g.SelectDeck(taboo.Category(msg.Deck))
	case "deselect_deck":
		g.DeselectDeck(taboo.Category(msg.Deck))
	case "choose_teams":
		err = g.ChooseTeams(msg.Count)
	case "skip_countdown":
		err = g.SkipCountdown()
	case "correct":
		err = g.Correct()
	case "pass":
		err = g.Pass()
	case "pause":
		err = g.Pause()
	case "resume":
		err = g.Resume()
	case "toggle":
		if h.onToggle != nil {
			h.onToggle(msg.Index)
		}
	case "confirm":
		_, err = g.ConfirmScore()
	case "next_round":
		err = g.NextRound()
	case "quit":
		g.Quit()
	case "reset":
		err = g.Reset()
	default:
		// ignore unknown types
		return
	}

	if err != nil {
		logf(cfg, "GAMES: [%s] %s from %s rejected: %v", h.id, msg.Type, c.playerID, err)

		h.sendLocked(c, ErrorMessage{
			Type:    "error",
			Message: err.Error(),
		})
	}
}

// sendLocked assumes h.mu is already held. Clients that cannot keep up are
// dropped.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) closeClientsLocked() {
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// closeAll stops the hub: its game timers are stopped and every client is
// disconnected. Safe to call more than once.
func (h *Hub) closeAll() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "taboo_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && uuid.Validate(c.Value) == nil {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	decks       taboo.DeckData
	idleTimeout time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

func newGameManager(decks taboo.DeckData, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		decks:       decks,
		idleTimeout: idleTimeout,
		done:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID, gm.decks)
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	logf(cfg, "GAMES: Started %s", gameID)

	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const limit = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, 8)
		buf := make([]byte, 16)

		for len(out) < cap(out) {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}

			for _, b := range buf {
				if b <= limit && len(out) < cap(out) {
					out = append(out, letters[int(b)%len(letters)])
				}
			}
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reapIdle removes and closes every hub idle since before cutoff. It returns
// how many were removed.
func (gm *GameManager) reapIdle(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			hub.closeAll()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.reapIdle(time.Now().Add(-gm.idleTimeout))
		}
	}
}

// Close stops the reaper and every hub.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() {
		close(gm.done)
	})

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.closeAll()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		// Drop the http.Server deadlines; connections live as long as the game.
		_ = conn.NetConn().SetDeadline(time.Time{})

		client := &Client{
			conn:     conn,
			send:     make(chan any, 32),
			playerID: playerID,
			limiter:  rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(cfg, hub)
	}
}

func (c *Client) readPump(cfg *Config, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			logf(cfg, "GAMES: [%s] Dropped %s from %s: rate limited", h.id, msg.Type, c.playerID)
			continue
		}

		select {
		case h.actions <- actionRequest{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config, index asset, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_ = getOrSetPlayerID(w, r)

		writeAsset(cfg, w, index, errs)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerTabooGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerTabooGame(cfg *Config, path string, mux *httprouter.Router, decks taboo.DeckData, files map[string]asset) *GameManager {
	gm := newGameManager(decks, cfg.sessionTimeout)

	index, ok := files["assets/taboo/index.html"]
	if !ok {
		panic(fmt.Sprintf("embedded assets are missing %s", "assets/taboo/index.html"))
	}

	errs := make(chan error, 1)
	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, index, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}
