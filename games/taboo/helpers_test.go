package taboo

import (
	"slices"
	"time"
)

// fakeScheduler is a manual clock: jobs only run when Advance is called.
type fakeScheduler struct {
	jobs []*fakeJob
}

type fakeJob struct {
	every   time.Duration
	fn      func()
	stopped bool
}

func (s *fakeScheduler) Every(d time.Duration, fn func()) func() {
	job := &fakeJob{every: d, fn: fn}
	s.jobs = append(s.jobs, job)

	return func() { job.stopped = true }
}

// Advance fires every live job once per step. Jobs scheduled during a step
// first fire on the next one.
func (s *fakeScheduler) Advance(steps int) {
	for i := 0; i < steps; i++ {
		for _, job := range slices.Clone(s.jobs) {
			if !job.stopped {
				job.fn()
			}
		}

		s.jobs = slices.DeleteFunc(s.jobs, func(j *fakeJob) bool { return j.stopped })
	}
}

func (s *fakeScheduler) Active() int {
	n := 0
	for _, job := range s.jobs {
		if !job.stopped {
			n++
		}
	}

	return n
}

type countdownCall struct {
	remaining int
	team      string
}

// recorder is a Presenter that keeps everything it was told.
type recorder struct {
	screens     []Phase
	cards       []Card
	scores      []int
	timers      []int
	indicators  []string
	scoreboards [][]Team
	final       []Team
	countdowns  []countdownCall
	review      []RoundEntry
	onToggle    func(int)
	reviewScore []RoundEntry
	decks       []Category
	paused      []bool
}

func (r *recorder) RenderScreen(p Phase) { r.screens = append(r.screens, p) }
func (r *recorder) UpdateCard(c Card) { r.cards = append(r.cards, c) }
func (r *recorder) UpdateScore(s int) { r.scores = append(r.scores, s) }
func (r *recorder) UpdateTimer(n int) { r.timers = append(r.timers, n) }
func (r *recorder) UpdateTeamIndicator(name, _ string) { r.indicators = append(r.indicators, name) }
func (r *recorder) UpdateScoreboard(t []Team) { r.scoreboards = append(r.scoreboards, t) }
func (r *recorder) UpdateFinalScoreboard(t []Team) { r.final = t }
func (r *recorder) UpdateReviewScore(rec []RoundEntry) { r.reviewScore = rec }
func (r *recorder) UpdateDecks(selected []Category) { r.decks = selected }
func (r *recorder) UpdatePaused(p bool) { r.paused = append(r.paused, p) }
func (r *recorder) UpdateCountdown(n int, team string) {
	r.countdowns = append(r.countdowns, countdownCall{n, team})
}
func (r *recorder) ShowReviewScreen(rec []RoundEntry, onToggle func(int)) {
	r.review = rec
	r.onToggle = onToggle
}

func (r *recorder) lastScreen() Phase {
	if len(r.screens) == 0 {
		return ""
	}

	return r.screens[len(r.screens)-1]
}

func testDecks() DeckData {
	return DeckData{
		Names: DeckNames{Primary: "naija", Secondary: "general"},
		Primary: []Card{
			{Target: "Lagos", Forbidden: []string{"City", "Naija"}},
			{Target: "Jollof", Forbidden: []string{"Rice", "Party"}},
			{Target: "Danfo", Forbidden: []string{"Bus", "Yellow"}},
		},
		Secondary: []Card{
			{Target: "Piano", Forbidden: []string{"Keys", "Music"}},
			{Target: "Glacier", Forbidden: []string{"Ice", "Cold"}},
		},
	}
}

// noShuffle keeps cards in deck order.
func noShuffle(int, func(i, j int)) {}
