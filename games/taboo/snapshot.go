package taboo

// State is a point-in-time copy of a game, for clients that join or reload
// mid-game.
type State struct {
	Phase         Phase        `json:"phase"`
	Teams         []Team       `json:"teams"`
	TurnIndex     int          `json:"turnIndex"`
	SelectedDecks []Category   `json:"selectedDecks"`
	Card          *Card        `json:"card,omitempty"`
	Record        []RoundEntry `json:"record"`
	Provisional   int          `json:"provisional"`
	Remaining     int          `json:"remaining"`
	Countdown     int          `json:"countdown"`
	Paused        bool         `json:"paused"`
	TotalRounds   int          `json:"totalRounds"`
	RoundLimit    int          `json:"roundLimit"`
}

func (g *Game) Snapshot() State {
	s := State{
		Phase:         g.phase,
		Teams:         g.teams.All(),
		TurnIndex:     g.teams.CurrentIndex(),
		SelectedDecks: g.pool.Selected(),
		Record:        g.Record(),
		Provisional:   g.provisional,
		Remaining:     g.remaining,
		Paused:        g.round.Paused(),
		TotalRounds:   g.totalRounds,
		RoundLimit:    g.RoundLimit(),
	}

	if card, ok := g.CurrentCard(); ok {
		s.Card = &card
	}

	if g.phase == PhaseGetReady {
		s.Countdown = g.countdown.Remaining()
	}

	return s
}
