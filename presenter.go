package main

import (
	"github.com/Seednode/taboo/games/taboo"
	"github.com/samber/lo"
)

// Messages sent to clients

// ScreenMessage tells clients which screen to show.
type ScreenMessage struct {
	Type  string      `json:"type"` // "screen"
	Phase taboo.Phase `json:"phase"`
}

type CardMessage struct {
	Type string     `json:"type"` // "card"
	Card taboo.Card `json:"card"`
}

// ScoreMessage carries the live count of correct cards in the current round.
type ScoreMessage struct {
	Type  string `json:"type"` // "score"
	Score int    `json:"score"`
}

type TimerMessage struct {
	Type      string `json:"type"` // "timer"
	Remaining int    `json:"remaining"`
}

type TeamMessage struct {
	Type  string `json:"type"` // "team"
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ScoreboardMessage lists every team's total. Final is set once the game is over.
type ScoreboardMessage struct {
	Type  string       `json:"type"` // "scoreboard"
	Teams []taboo.Team `json:"teams"`
	Final bool         `json:"final"`
}

type CountdownMessage struct {
	Type      string `json:"type"` // "countdown"
	Remaining int    `json:"remaining"`
	Team      string `json:"team"`
}

// ReviewMessage lists the cards played in the round just finished, for the
// players to correct before the score is confirmed.
type ReviewMessage struct {
	Type    string             `json:"type"` // "review" or "review_score"
	Entries []taboo.RoundEntry `json:"entries"`
	Correct int                `json:"correct"`
}

type DeckState struct {
	ID       taboo.Category `json:"id"`
	Label    string         `json:"label"`
	Cards    int            `json:"cards"`
	Selected bool           `json:"selected"`
}

type DecksMessage struct {
	Type  string      `json:"type"` // "decks"
	Decks []DeckState `json:"decks"`
}

type PausedMessage struct {
	Type   string `json:"type"` // "paused"
	Paused bool   `json:"paused"`
}

// StateMessage is sent on connect so the client can rebuild its screen.
type StateMessage struct {
	Type  string      `json:"type"` // "state"
	State taboo.State `json:"state"`
	Decks []DeckState `json:"decks"`
}

// ErrorMessage reports a rejected action.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func deckStates(decks taboo.DeckData, selected []taboo.Category) []DeckState {
	return lo.Map(taboo.Categories, func(c taboo.Category, _ int) DeckState {
		return DeckState{
			ID:       c,
			Label:    decks.Names.Label(c),
			Cards:    len(decks.Deck(c)),
			Selected: lo.Contains(selected, c),
		}
	})
}

func reviewMessage(kind string, record []taboo.RoundEntry) ReviewMessage {
	return ReviewMessage{
		Type:    kind,
		Entries: record,
		Correct: taboo.CountCorrect(record),
	}
}

// hubPresenter fans game updates out to every client of a hub. The game only
// calls it from the hub's run loop, with h.mu held.
type hubPresenter struct {
	h *Hub
}

func (p hubPresenter) RenderScreen(phase taboo.Phase) {
	if phase != taboo.PhaseReview {
		p.h.onToggle = nil
	}

	p.h.broadcastLocked(ScreenMessage{Type: "screen", Phase: phase})
}

func (p hubPresenter) UpdateCard(card taboo.Card) {
	p.h.broadcastLocked(CardMessage{Type: "card", Card: card})
}

func (p hubPresenter) UpdateScore(score int) {
	p.h.broadcastLocked(ScoreMessage{Type: "score", Score: score})
}

func (p hubPresenter) UpdateTimer(remaining int) {
	p.h.broadcastLocked(TimerMessage{Type: "timer", Remaining: remaining})
}

func (p hubPresenter) UpdateTeamIndicator(name, color string) {
	p.h.broadcastLocked(TeamMessage{Type: "team", Name: name, Color: color})
}

func (p hubPresenter) UpdateScoreboard(teams []taboo.Team) {
	p.h.broadcastLocked(ScoreboardMessage{Type: "scoreboard", Teams: teams})
}

func (p hubPresenter) UpdateFinalScoreboard(teams []taboo.Team) {
	p.h.broadcastLocked(ScoreboardMessage{Type: "scoreboard", Teams: teams, Final: true})
}

func (p hubPresenter) UpdateCountdown(remaining int, teamName string) {
	p.h.broadcastLocked(CountdownMessage{Type: "countdown", Remaining: remaining, Team: teamName})
}

// ShowReviewScreen keeps onToggle so "toggle" messages from any client reach
// the game until the review screen is left.
func (p hubPresenter) ShowReviewScreen(record []taboo.RoundEntry, onToggle func(index int)) {
	p.h.onToggle = onToggle
	p.h.broadcastLocked(reviewMessage("review", record))
}

func (p hubPresenter) UpdateReviewScore(record []taboo.RoundEntry) {
	p.h.broadcastLocked(reviewMessage("review_score", record))
}

func (p hubPresenter) UpdateDecks(selected []taboo.Category) {
	p.h.broadcastLocked(DecksMessage{Type: "decks", Decks: deckStates(p.h.decks, selected)})
}

func (p hubPresenter) UpdatePaused(paused bool) {
	p.h.broadcastLocked(PausedMessage{Type: "paused", Paused: paused})
}
