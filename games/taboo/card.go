/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package taboo

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Category identifies the deck a card was drawn from.
type Category string

const (
	CategoryPrimary   Category = "primary"
	CategorySecondary Category = "secondary"
)

// Categories lists every deck in display order.
var Categories = []Category{CategoryPrimary, CategorySecondary}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Card is a single word to describe, plus the words the describer may not say.
type Card struct {
	Target    string   `json:"targetWord"`
	Forbidden []string `json:"forbiddenWords"`
	Category  Category `json:"category,omitempty"`
}

// withCategory returns a new card stamped with c. The forbidden list is
// copied so the pool never shares backing arrays with the loaded decks.
func (card Card) withCategory(c Category) Card {
	return Card{
		Target:    card.Target,
		Forbidden: slices.Clone(card.Forbidden),
		Category:  c,
	}
}

// DeckNames maps the primary and secondary categories onto the keys used in
// the card data file.
type DeckNames struct {
	Primary   string
	Secondary string
}

func (n DeckNames) name(c Category) string {
	if c == CategorySecondary {
		return n.Secondary
	}
	return n.Primary
}

// Label returns a display label for the deck backing c.
func (n DeckNames) Label(c Category) string {
	name := strings.ReplaceAll(n.name(c), "_", " ")
	if name == "" {
		name = string(c)
	}
	return cases.Title(language.English).String(name)
}

// DeckData holds the raw card definitions for both decks, as loaded.
type DeckData struct {
	Names     DeckNames
	Primary   []Card
	Secondary []Card
}

// Deck returns the cards loaded for c.
func (d DeckData) Deck(c Category) []Card {
	switch c {
	case CategoryPrimary:
		return d.Primary
	case CategorySecondary:
		return d.Secondary
	}
	return nil
}

// Empty reports whether neither deck has any cards.
func (d DeckData) Empty() bool {
	return len(d.Primary) == 0 && len(d.Secondary) == 0
}

// LoadDecks decodes deck data of the form
//
//	{ "<primary>": [{"targetWord": ..., "forbiddenWords": [...]}, ...],
//	  "<secondary>": [...] }
//
// On any failure both decks come back empty alongside the error.
func LoadDecks(r io.Reader, names DeckNames) (DeckData, error) {
	empty := DeckData{Names: names}

	var raw map[string][]Card
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return empty, fmt.Errorf("decoding card data: %w", err)
	}

	primary, ok := raw[names.Primary]
	if !ok {
		return empty, fmt.Errorf("card data has no %q deck", names.Primary)
	}

	secondary, ok := raw[names.Secondary]
	if !ok {
		return empty, fmt.Errorf("card data has no %q deck", names.Secondary)
	}

	return DeckData{
		Names:     names,
		Primary:   cleanCards(primary),
		Secondary: cleanCards(secondary),
	}, nil
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cleanCards(cards []Card) []Card {
	cleaned := lo.FilterMap(cards, func(card Card, _ int) (Card, bool) {
		target := cleanText(card.Target)
		if target == "" {
			return Card{}, false
		}

		forbidden := lo.FilterMap(card.Forbidden, func(word string, _ int) (string, bool) {
			word = cleanText(word)
			return word, word != ""
		})

		return Card{Target: target, Forbidden: forbidden}, true
	})

	return cleaned
}
