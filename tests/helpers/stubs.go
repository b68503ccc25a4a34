// Package helpers holds shared fixtures for the integration tests: a
// scriptable generation client and a fully wired API router.
package helpers

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/pitchcraft/deck-orchestrator/internal/deck"
	"github.com/pitchcraft/deck-orchestrator/internal/generation"
)

// StubGenerationClient implements generation.Client with overridable
// behavior per method. Unset hooks fall back to canned responses.
type StubGenerationClient struct {
	GenerateSlidesFn func(ctx context.Context, problem, solution string) ([]string, error)
	AnalyzeFn        func(ctx context.Context, slides []generation.SlideSummary, getFeedback bool) (*generation.Analysis, error)
	SuggestionFn     func(ctx context.Context, slideTitle, content, design string, category generation.SuggestionCategory) (string, error)
	ExportFn         func(ctx context.Context, slides []generation.SlideSummary, format generation.ExportFormat) ([]byte, error)

	AnalyzeCalls    atomic.Int64
	ExportCalls     atomic.Int64
	SaveSlidesCalls atomic.Int64
}

var _ generation.Client = (*StubGenerationClient)(nil)

func (c *StubGenerationClient) GenerateSlides(ctx context.Context, problem, solution string) ([]string, error) {
	if c.GenerateSlidesFn != nil {
		return c.GenerateSlidesFn(ctx, problem, solution)
	}
	return []string{
		"The Problem: " + problem,
		"Our Solution: " + solution,
	}, nil
}

func (c *StubGenerationClient) GenerateSlideContent(ctx context.Context, sc generation.SlideContext) (string, error) {
	return "Generated content for " + sc.SlideTitle, nil
}

func (c *StubGenerationClient) GenerateDesignSuggestions(ctx context.Context, sc generation.SlideContext) (string, error) {
	return "Clean layout with bold headline", nil
}

func (c *StubGenerationClient) GenerateSuggestion(ctx context.Context, slideTitle, content, design string, category generation.SuggestionCategory) (string, error) {
	if c.SuggestionFn != nil {
		return c.SuggestionFn(ctx, slideTitle, content, design, category)
	}
	return fmt.Sprintf("%s suggestion for %s", category, slideTitle), nil
}

func (c *StubGenerationClient) AnalyzePitchDeck(ctx context.Context, slides []generation.SlideSummary, getFeedback bool) (*generation.Analysis, error) {
	c.AnalyzeCalls.Add(1)
	if c.AnalyzeFn != nil {
		return c.AnalyzeFn(ctx, slides, getFeedback)
	}
	analysis := &generation.Analysis{
		Score:           7.5,
		NarrativeFlow:   "Strong",
		VisualDesign:    "Intermediate",
		DataCredibility: "Average",
	}
	if getFeedback {
		analysis.Feedback = "Tighten the problem statement."
	}
	return analysis, nil
}

func (c *StubGenerationClient) OptimizeForInvestors(ctx context.Context, sc generation.SlideContext) (string, error) {
	return "Investor-ready: " + sc.CurrentContent, nil
}

func (c *StubGenerationClient) AddDataVisualization(ctx context.Context, sc generation.SlideContext) (string, error) {
	return sc.CurrentContent + "\nAdd a bar chart of quarterly growth.", nil
}

func (c *StubGenerationClient) ImproveMessaging(ctx context.Context, sc generation.SlideContext) (string, error) {
	return "Sharper: " + sc.CurrentContent, nil
}

func (c *StubGenerationClient) GetSlides(ctx context.Context, userID string) ([]deck.Slide, error) {
	return nil, nil
}

func (c *StubGenerationClient) SaveSlides(ctx context.Context, userID string, slides []deck.Slide) error {
	c.SaveSlidesCalls.Add(1)
	return nil
}

func (c *StubGenerationClient) Export(ctx context.Context, slides []generation.SlideSummary, format generation.ExportFormat) ([]byte, error) {
	c.ExportCalls.Add(1)
	if c.ExportFn != nil {
		return c.ExportFn(ctx, slides, format)
	}
	return []byte("%PDF-1.4 stub"), nil
}

func (c *StubGenerationClient) IsHealthy(ctx context.Context) bool {
	return true
}
