// Command seed-session writes a demo editor session into the session
// store so a fresh deployment has a deck to open.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/pitchcraft/deck-orchestrator/internal/deck"
	"github.com/pitchcraft/deck-orchestrator/internal/session"
)

func main() {
	// Parse command-line flags
	dataPath := flag.String("data", "./data", "Session store directory (ignored when DATABASE_URL is set)")
	title := flag.String("title", "Demo Pitch Deck", "Deck title for the seeded session")
	flag.Parse()

	// Initialize OpenTelemetry for observability
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, *dataPath)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}

	sessionID, err := seedSession(ctx, store, *title)
	if err != nil {
		log.Fatalf("Failed to seed session: %v", err)
	}

	log.Printf("✓ Successfully seeded session")
	log.Printf("  ID: %s", sessionID)
	log.Printf("  Title: %s", *title)
}

// openStore picks the Postgres store when DATABASE_URL is set, the file
// store otherwise.
func openStore(ctx context.Context, dataPath string) (session.Store, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Printf("Using file session store at %s (set DATABASE_URL for Postgres)", dataPath)
		return session.NewFileStore(dataPath)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("Connected to PostgreSQL database")

	return session.NewPostgresStore(ctx, pool)
}

// seedSession stores a small starter deck and returns the new session ID.
func seedSession(ctx context.Context, store session.Store, title string) (string, error) {
	tracer := otel.Tracer("seed-session")
	ctx, span := tracer.Start(ctx, "seed_session")
	defer span.End()

	sessionID := uuid.New().String()

	slides := []deck.Slide{
		{
			Title:   "The Problem",
			Content: "Founders spend weeks assembling investor decks by hand.",
			Blocks: []deck.Block{
				deck.NewTextBlock("Founders spend weeks assembling investor decks by hand.",
					deck.Position{X: 50, Y: 50}, deck.Size{Width: 500, Height: 80}),
			},
		},
		{
			Title:   "Our Solution",
			Content: "Generate a structured deck from a two-sentence pitch, then refine slide by slide.",
			Blocks: []deck.Block{
				deck.NewTextBlock("Generate a structured deck from a two-sentence pitch, then refine slide by slide.",
					deck.Position{X: 50, Y: 50}, deck.Size{Width: 500, Height: 80}),
			},
		},
	}

	state := &session.State{
		Slides:             slides,
		Metrics:            deck.UnanalyzedMetrics(),
		DeckTitle:          title,
		DeckDescription:    "Seeded demo deck",
		ContentFingerprint: deck.Fingerprint(slides),
	}

	if err := store.Save(ctx, sessionID, state); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	log.Printf("Session stored successfully with ID: %s", sessionID)

	return sessionID, nil
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}
