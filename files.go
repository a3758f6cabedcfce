/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/Seednode/taboo/games/taboo"
)

//go:embed cards/cards.json
var builtinCards []byte

func humanReadableSize(size int64) string {
	const unit int64 = 1000
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := unit, 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(size)/float64(div),
		"kMGTPE"[exp])
}

func deckNames(cfg *Config) taboo.DeckNames {
	return taboo.DeckNames{
		Primary:   cfg.primaryDeck,
		Secondary: cfg.secondaryDeck,
	}
}

// loadCards reads the deck data named by --cards, or the built-in decks.
// On failure both decks are empty; the game will refuse to start.
func loadCards(cfg *Config) (taboo.DeckData, error) {
	var r io.Reader = bytes.NewReader(builtinCards)
	source := "built-in decks"

	if cfg.cards != "" {
		f, err := os.Open(cfg.cards)
		if err != nil {
			return taboo.DeckData{Names: deckNames(cfg)}, err
		}
		defer f.Close()

		r = f
		source = cfg.cards
	}

	decks, err := taboo.LoadDecks(r, deckNames(cfg))
	if err != nil {
		return decks, fmt.Errorf("%s: %w", source, err)
	}

	logf(cfg, "START: Loaded %d %s and %d %s cards from %s",
		len(decks.Primary), cfg.primaryDeck,
		len(decks.Secondary), cfg.secondaryDeck,
		source,
	)

	return decks, nil
}
