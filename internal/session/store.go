// Package session persists per-session deck state so an editor session
// survives restarts. Backends: a JSON file for local runs and Postgres
// when DATABASE_URL is configured.
package session

import (
	"context"
	"time"

	"github.com/pitchcraft/deck-orchestrator/internal/deck"
)

// State is everything a session keeps between requests: the slides, the
// analysis results, the deck title/description and the fingerprint the
// last feedback run was computed against.
type State struct {
	Slides             []deck.Slide `json:"slides"`
	Metrics            deck.Metrics `json:"metrics"`
	AIFeedback         string       `json:"aiFeedback,omitempty"`
	DeckTitle          string       `json:"deckTitle,omitempty"`
	DeckDescription    string       `json:"deckDescription,omitempty"`
	ContentFingerprint string       `json:"contentFingerprint,omitempty"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// Stats summarizes stored sessions for the dashboard endpoint.
type Stats struct {
	DecksCreated int `json:"decks_created"`
}

// Store loads and saves session state by session ID.
type Store interface {
	// Load returns the stored state for a session. The boolean reports
	// whether the session exists; a missing session is not an error.
	Load(ctx context.Context, sessionID string) (*State, bool, error)

	// Save replaces the stored state for a session.
	Save(ctx context.Context, sessionID string, state *State) error

	// Stats reports how many sessions hold at least one slide.
	Stats(ctx context.Context) (*Stats, error)
}
