/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package taboo

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/samber/lo"
)

// Shuffler permutes n elements in place by calling swap, with the same
// contract as rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// Pool serves cards from the selected decks in shuffled order, reshuffling
// whenever it runs out, so it never ends while a selected deck has cards.
type Pool struct {
	decks    DeckData
	selected map[Category]bool
	cards    []Card
	cursor   int
	shuffle  Shuffler
}

// NewPool returns a pool over decks with only the primary deck selected.
// A nil shuffle uses rand.Shuffle.
func NewPool(decks DeckData, shuffle Shuffler) *Pool {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}

	return &Pool{
		decks:    decks,
		selected: map[Category]bool{CategoryPrimary: true},
		shuffle:  shuffle,
	}
}

// SelectDeck adds c to the selected decks. It reports whether the selection
// changed.
func (p *Pool) SelectDeck(c Category) bool {
	if !c.Valid() || p.selected[c] {
		return false
	}

	p.selected[c] = true
	p.invalidate()

	return true
}

// DeselectDeck removes c from the selected decks. The last selected deck
// cannot be removed. It reports whether the selection changed.
func (p *Pool) DeselectDeck(c Category) bool {
	if !p.selected[c] || len(p.selected) <= 1 {
		return false
	}

	delete(p.selected, c)
	p.invalidate()

	return true
}

// Selected returns the selected decks in display order.
func (p *Pool) Selected() []Category {
	return lo.Filter(Categories, func(c Category, _ int) bool {
		return p.selected[c]
	})
}

// Available returns how many cards the selected decks hold in total.
func (p *Pool) Available() int {
	return lo.SumBy(p.Selected(), func(c Category) int {
		return len(p.decks.Deck(c))
	})
}

// Draw returns the card at the cursor without moving it, rebuilding and
// reshuffling the pool first if it has been exhausted.
func (p *Pool) Draw() (Card, error) {
	if p.cursor >= len(p.cards) {
		if err := p.rebuild(); err != nil {
			return Card{}, err
		}
	}

	return p.cards[p.cursor], nil
}

// Advance moves the cursor past the current card.
func (p *Pool) Advance() {
	p.cursor++
}

// Reset discards the current order; the next Draw reshuffles.
func (p *Pool) Reset() {
	p.invalidate()
}

func (p *Pool) invalidate() {
	p.cards = nil
	p.cursor = 0
}

func (p *Pool) rebuild() error {
	selected := p.Selected()

	cards := lo.FlatMap(selected, func(c Category, _ int) []Card {
		return lo.Map(p.decks.Deck(c), func(card Card, _ int) Card {
			return card.withCategory(c)
		})
	})
	if len(cards) == 0 {
		p.invalidate()

		return fmt.Errorf("%w: %v", ErrEmptyPool, selected)
	}

	p.shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	p.cards = slices.Clip(cards)
	p.cursor = 0

	return nil
}
