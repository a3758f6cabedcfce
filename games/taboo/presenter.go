package taboo

// Presenter reflects game state to players. The Game calls it after every
// state change; implementations must not call back into the Game
// synchronously, except through the onToggle handler passed to
// ShowReviewScreen when a player actually toggles an entry.
type Presenter interface {
	RenderScreen(phase Phase)
	UpdateCard(card Card)
	UpdateScore(score int)
	UpdateTimer(remaining int)
	UpdateTeamIndicator(name, color string)
	UpdateScoreboard(teams []Team)
	UpdateFinalScoreboard(teams []Team)
	UpdateCountdown(remaining int, teamName string)
	ShowReviewScreen(record []RoundEntry, onToggle func(index int))
	UpdateReviewScore(record []RoundEntry)
	UpdateDecks(selected []Category)
	UpdatePaused(paused bool)
}

// NopPresenter discards every update.
type NopPresenter struct{}

func (NopPresenter) RenderScreen(Phase) {}
func (NopPresenter) UpdateCard(Card) {}
func (NopPresenter) UpdateScore(int) {}
func (NopPresenter) UpdateTimer(int) {}
func (NopPresenter) UpdateTeamIndicator(string, string) {}
func (NopPresenter) UpdateScoreboard([]Team) {}
func (NopPresenter) UpdateFinalScoreboard([]Team) {}
func (NopPresenter) UpdateCountdown(int, string) {}
func (NopPresenter) ShowReviewScreen([]RoundEntry, func(int)) {}
func (NopPresenter) UpdateReviewScore([]RoundEntry) {}
func (NopPresenter) UpdateDecks([]Category) {}
func (NopPresenter) UpdatePaused(bool) {}
