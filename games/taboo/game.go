/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package taboo implements the rules of a team word-guessing game: one team
// member describes the word on a card without saying any of its forbidden
// words, while the round timer runs down.
//
// A Game is not safe for concurrent use. Every trigger, including timer
// ticks delivered through the Scheduler, must run on the one goroutine that
// owns it.
package taboo

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
)

type Phase string

const (
	PhaseWelcome       Phase = "welcome"
	PhaseTeamSelection Phase = "team_selection"
	PhaseGetReady      Phase = "get_ready"
	PhasePlaying       Phase = "playing"
	PhaseReview        Phase = "review"
	PhaseRoundOver     Phase = "round_over"
	PhaseGameOver      Phase = "game_over"
)

func (p Phase) String() string {
	return string(p)
}

const (
	MaxRoundsPerTeam        = 3
	DefaultRoundSeconds     = 60
	DefaultCountdownSeconds = 5
)

type Status string

const (
	StatusCorrect Status = "correct"
	StatusSkipped Status = "skipped"
)

// RoundEntry records how one card was resolved during a round.
type RoundEntry struct {
	Word   string `json:"word"`
	Status Status `json:"status"`
}

// CountCorrect returns how many entries are marked correct.
func CountCorrect(record []RoundEntry) int {
	return lo.CountBy(record, func(e RoundEntry) bool {
		return e.Status == StatusCorrect
	})
}

type Options struct {
	RoundSeconds     int
	CountdownSeconds int
	RoundsPerTeam    int

	// Tick is the length of one timer second. Zero means time.Second.
	Tick time.Duration

	Shuffle Shuffler

	// OnError receives errors raised inside timer callbacks, where there is
	// no caller to return them to.
	OnError func(err error)

	Logf func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.RoundSeconds <= 0 {
		o.RoundSeconds = DefaultRoundSeconds
	}
	if o.CountdownSeconds <= 0 {
		o.CountdownSeconds = DefaultCountdownSeconds
	}
	if o.RoundsPerTeam <= 0 {
		o.RoundsPerTeam = MaxRoundsPerTeam
	}
	if o.Tick <= 0 {
		o.Tick = time.Second
	}

	return o
}

// Game is the state machine for one game session.
type Game struct {
	opts Options
	ui   Presenter

	pool      *Pool
	teams     Teams
	countdown *Countdown
	round     *Countdown

	phase       Phase
	card        Card
	record      []RoundEntry
	provisional int
	remaining   int
	totalRounds int
}

// New returns a game on the welcome screen. A nil ui discards all updates.
func New(decks DeckData, ui Presenter, sched Scheduler, opts Options) *Game {
	opts = opts.withDefaults()

	if ui == nil {
		ui = NopPresenter{}
	}

	return &Game{
		opts:      opts,
		ui:        ui,
		pool:      NewPool(decks, opts.Shuffle),
		countdown: NewCountdown(sched, opts.Tick),
		round:     NewCountdown(sched, opts.Tick),
		phase:     PhaseWelcome,
	}
}

func (g *Game) logf(format string, args ...any) {
	if g.opts.Logf != nil {
		g.opts.Logf(format, args...)
	}
}

func (g *Game) fail(err error) {
	g.logf("%v", err)

	if g.opts.OnError != nil {
		g.opts.OnError(err)
	}
}

func (g *Game) expect(phases ...Phase) error {
	if slices.Contains(phases, g.phase) {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrWrongPhase, g.phase)
}

func (g *Game) setPhase(p Phase) {
	g.logf("phase %s -> %s", g.phase, p)
	g.phase = p
	g.ui.RenderScreen(p)
}

// Play leaves the welcome screen for team selection.
func (g *Game) Play() error {
	if err := g.expect(PhaseWelcome); err != nil {
		return err
	}

	g.setPhase(PhaseTeamSelection)
	g.ui.UpdateDecks(g.pool.Selected())

	return nil
}

func (g *Game) deckSetup() error {
	return g.expect(PhaseWelcome, PhaseTeamSelection)
}

// SelectDeck adds a deck to the game. It reports whether the selection
// changed; decks can only be changed before teams are chosen.
func (g *Game) SelectDeck(c Category) bool {
	if g.deckSetup() != nil || !g.pool.SelectDeck(c) {
		return false
	}

	g.ui.UpdateDecks(g.pool.Selected())

	return true
}

// DeselectDeck removes a deck from the game. The last selected deck stays.
func (g *Game) DeselectDeck(c Category) bool {
	if g.deckSetup() != nil || !g.pool.DeselectDeck(c) {
		return false
	}

	g.ui.UpdateDecks(g.pool.Selected())

	return true
}

// ChooseTeams sets the game up for count teams and starts the first
// countdown.
func (g *Game) ChooseTeams(count int) error {
	if err := g.expect(PhaseTeamSelection); err != nil {
		return err
	}

	selected := g.pool.Selected()
	if len(selected) == 0 {
		return fmt.Errorf("%w: no deck selected", ErrConfiguration)
	}
	if g.pool.Available() == 0 {
		return fmt.Errorf("%w: selected decks %v have no cards", ErrConfiguration, selected)
	}

	if err := g.teams.Initialize(count); err != nil {
		return err
	}

	g.pool.Reset()
	g.totalRounds = 0
	g.clearRound()

	g.logf("new game: %d teams, decks %v", count, selected)

	g.ui.UpdateScoreboard(g.teams.All())
	g.getReady()

	return nil
}

func (g *Game) getReady() {
	g.round.Stop()

	team := g.teams.Current()

	g.setPhase(PhaseGetReady)
	g.ui.UpdateTeamIndicator(team.Name, team.Color)
	g.ui.UpdateCountdown(g.opts.CountdownSeconds, team.Name)

	g.countdown.Start(g.opts.CountdownSeconds,
		func(remaining int) {
			g.ui.UpdateCountdown(remaining, team.Name)
		},
		func() {
			if err := g.startRound(); err != nil {
				g.fail(err)
			}
		},
	)
}

// SkipCountdown starts the round without waiting for the countdown.
func (g *Game) SkipCountdown() error {
	if err := g.expect(PhaseGetReady); err != nil {
		return err
	}

	return g.startRound()
}

func (g *Game) startRound() error {
	g.countdown.Stop()

	card, err := g.pool.Draw()
	if err != nil {
		return g.abortRound(err)
	}

	g.clearRound()
	g.card = card
	g.remaining = g.opts.RoundSeconds

	team := g.teams.Current()

	g.setPhase(PhasePlaying)
	g.ui.UpdateTeamIndicator(team.Name, team.Color)
	g.ui.UpdateScore(g.provisional)
	g.ui.UpdateTimer(g.remaining)
	g.ui.UpdatePaused(false)
	g.ui.UpdateCard(card)

	g.round.Start(g.opts.RoundSeconds,
		func(remaining int) {
			g.remaining = remaining
			g.ui.UpdateTimer(remaining)
		},
		g.endRound,
	)

	return nil
}

// abortRound ends a round that cannot continue and sends the players back to
// team selection.
func (g *Game) abortRound(err error) error {
	g.stopTimers()
	g.clearRound()
	g.setPhase(PhaseTeamSelection)
	g.ui.UpdateDecks(g.pool.Selected())

	return err
}

// Correct marks the current card as guessed and moves to the next one.
func (g *Game) Correct() error {
	return g.resolve(StatusCorrect)
}

// Pass skips the current card.
func (g *Game) Pass() error {
	return g.resolve(StatusSkipped)
}

func (g *Game) resolve(status Status) error {
	if err := g.expect(PhasePlaying); err != nil {
		return err
	}
	if g.round.Paused() {
		return ErrPaused
	}

	g.record = append(g.record, RoundEntry{Word: g.card.Target, Status: status})

	if status == StatusCorrect {
		g.provisional++
		g.ui.UpdateScore(g.provisional)
	}

	g.pool.Advance()

	card, err := g.pool.Draw()
	if err != nil {
		return g.abortRound(err)
	}

	g.card = card
	g.ui.UpdateCard(card)

	return nil
}

// Pause freezes the round timer.
func (g *Game) Pause() error {
	if err := g.expect(PhasePlaying); err != nil {
		return err
	}

	if g.round.Pause() {
		g.ui.UpdatePaused(true)
	}

	return nil
}

// Resume restarts a paused round timer.
func (g *Game) Resume() error {
	if err := g.expect(PhasePlaying); err != nil {
		return err
	}

	if g.round.Resume() {
		g.ui.UpdatePaused(false)
	}

	return nil
}

func (g *Game) endRound() {
	if g.phase != PhasePlaying {
		return
	}

	g.round.Stop()
	g.remaining = 0
	g.card = Card{}

	g.setPhase(PhaseReview)
	g.ui.ShowReviewScreen(g.Record(), g.ToggleCardStatus)
}

// ToggleCardStatus flips entry index of the round record between correct and
// skipped. Outside the review screen, or for an index that does not exist,
// it does nothing.
func (g *Game) ToggleCardStatus(index int) {
	if g.phase != PhaseReview || index < 0 || index >= len(g.record) {
		return
	}

	if g.record[index].Status == StatusCorrect {
		g.record[index].Status = StatusSkipped
	} else {
		g.record[index].Status = StatusCorrect
	}

	g.ui.UpdateReviewScore(g.Record())
}

// ConfirmScore credits the current team with the reviewed round and passes
// the turn on. It returns the points awarded.
func (g *Game) ConfirmScore() (int, error) {
	if err := g.expect(PhaseReview); err != nil {
		return 0, err
	}

	score := CountCorrect(g.record)
	team := g.teams.Current()

	if err := g.teams.AddScoreToCurrent(score); err != nil {
		return 0, err
	}
	g.teams.AdvanceTurn()
	g.totalRounds++

	g.logf("%s scored %d, round %d of %d", team.Name, score, g.totalRounds, g.RoundLimit())

	g.clearRound()

	teams := g.teams.All()
	g.ui.UpdateScoreboard(teams)

	if g.totalRounds >= g.RoundLimit() {
		g.setPhase(PhaseGameOver)
		g.ui.UpdateFinalScoreboard(teams)
	} else {
		g.setPhase(PhaseRoundOver)
	}

	return score, nil
}

// NextRound starts the countdown for the team whose turn it now is.
func (g *Game) NextRound() error {
	if err := g.expect(PhaseRoundOver); err != nil {
		return err
	}

	g.getReady()

	return nil
}

// Quit abandons the session and returns to the welcome screen.
func (g *Game) Quit() {
	g.stopTimers()
	g.clearRound()
	g.totalRounds = 0
	g.setPhase(PhaseWelcome)
}

// Reset goes back to team selection with every score cleared.
func (g *Game) Reset() error {
	if err := g.expect(PhaseTeamSelection, PhaseRoundOver, PhaseGameOver); err != nil {
		return err
	}

	g.stopTimers()
	g.clearRound()
	g.totalRounds = 0
	g.teams.ResetScores()

	g.setPhase(PhaseTeamSelection)
	g.ui.UpdateDecks(g.pool.Selected())

	return nil
}

// Stop halts both timers without changing phase.
func (g *Game) Stop() {
	g.stopTimers()
}

func (g *Game) stopTimers() {
	g.countdown.Stop()
	g.round.Stop()
}

func (g *Game) clearRound() {
	g.card = Card{}
	g.record = nil
	g.provisional = 0
	g.remaining = 0
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) Teams() []Team {
	return g.teams.All()
}

func (g *Game) TurnIndex() int {
	return g.teams.CurrentIndex()
}

func (g *Game) TotalRounds() int {
	return g.totalRounds
}

// RoundLimit is the number of rounds after which the game is over.
func (g *Game) RoundLimit() int {
	return g.teams.Len() * g.opts.RoundsPerTeam
}

// Record returns a copy of the current round record.
func (g *Game) Record() []RoundEntry {
	return slices.Clone(g.record)
}

// Provisional is the live count of correct cards in the round being played.
// Only ConfirmScore decides what a team is credited with.
func (g *Game) Provisional() int {
	return g.provisional
}

func (g *Game) Remaining() int {
	return g.remaining
}

func (g *Game) Paused() bool {
	return g.round.Paused()
}

func (g *Game) SelectedDecks() []Category {
	return g.pool.Selected()
}

// CurrentCard returns the card being described, if a round is being played.
func (g *Game) CurrentCard() (Card, bool) {
	if g.phase != PhasePlaying {
		return Card{}, false
	}

	return g.card, true
}
