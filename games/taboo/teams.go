package taboo

import (
	"fmt"
	"slices"
)

// MaxTeams is the largest team count a game can be set up with.
const MaxTeams = 8

// palette is cycled through when teams outnumber colors.
var palette = []string{
	"#e63946",
	"#1d72b8",
	"#2a9d8f",
	"#f4a261",
	"#7b2cbf",
	"#ffb703",
}

type Team struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Color string `json:"color"`
}

// Teams is the ordered set of teams in a game plus whose turn it is.
type Teams struct {
	teams []Team
	turn  int
}

// Initialize replaces any existing teams with count fresh ones, all on zero
// points, with team 1 to play.
func (t *Teams) Initialize(count int) error {
	if count < 1 || count > MaxTeams {
		return fmt.Errorf("%w: team count must be between 1 and %d, got %d", ErrConfiguration, MaxTeams, count)
	}

	t.teams = make([]Team, count)
	for i := range t.teams {
		t.teams[i] = Team{
			Name:  fmt.Sprintf("Team %d", i+1),
			Color: palette[i%len(palette)],
		}
	}
	t.turn = 0

	return nil
}

func (t *Teams) Len() int {
	return len(t.teams)
}

// Current returns the team whose turn it is. It returns the zero Team before
// Initialize has been called.
func (t *Teams) Current() Team {
	if len(t.teams) == 0 {
		return Team{}
	}

	return t.teams[t.turn]
}

func (t *Teams) CurrentIndex() int {
	return t.turn
}

// AddScoreToCurrent credits amount points to the team whose turn it is.
func (t *Teams) AddScoreToCurrent(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeScore, amount)
	}
	if len(t.teams) == 0 {
		return nil
	}

	t.teams[t.turn].Score += amount

	return nil
}

// AdvanceTurn passes the turn to the next team, wrapping around.
func (t *Teams) AdvanceTurn() {
	if len(t.teams) == 0 {
		return
	}

	t.turn = (t.turn + 1) % len(t.teams)
}

// ResetScores zeroes every score and gives the turn back to the first team.
func (t *Teams) ResetScores() {
	for i := range t.teams {
		t.teams[i].Score = 0
	}
	t.turn = 0
}

// All returns a copy of the teams in turn order.
func (t *Teams) All() []Team {
	return slices.Clone(t.teams)
}
