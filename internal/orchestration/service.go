// Package orchestration drives the deck lifecycle for one editor session:
// bulk generation, per-slide rewrites, suggestions, analysis, export and
// persistence. All mutations are copy-on-write; the current deck is
// swapped wholesale under a mutex so readers never observe a half-updated
// document.
package orchestration

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pitchcraft/deck-orchestrator/internal/deck"
	"github.com/pitchcraft/deck-orchestrator/internal/generation"
	"github.com/pitchcraft/deck-orchestrator/internal/metrics"
	"github.com/pitchcraft/deck-orchestrator/internal/session"
)

// FeedbackFailureMessage replaces the feedback text when a requested
// feedback run fails.
const FeedbackFailureMessage = "Failed to generate feedback. Please try again."

// designFanOutLimit bounds how many per-slide design calls run at once
// after a bulk generation.
const designFanOutLimit = 4

// Suggestion is one improvement suggestion held in the session's
// fixed-length suggestion list.
type Suggestion struct {
	Category generation.SuggestionCategory `json:"category"`
	Text     string                        `json:"text"`
}

// AnalysisResult is what an analysis run produced, and whether it came
// from the cached feedback instead of the service.
type AnalysisResult struct {
	Metrics   deck.Metrics `json:"metrics"`
	Feedback  string       `json:"feedback,omitempty"`
	FromCache bool         `json:"from_cache"`
}

// ApplyResult reports an applied suggestion: which slot was refilled and
// whether the suggestion text asked for a chart or table.
type ApplyResult struct {
	Applied       Suggestion `json:"applied"`
	VisualKind    string     `json:"visual_kind,omitempty"`
	NewSuggestion Suggestion `json:"new_suggestion"`
	Slide         deck.Slide `json:"slide"`
}

// Snapshot is the full session view returned to clients.
type Snapshot struct {
	Deck        *deck.Deck   `json:"deck"`
	Suggestions []Suggestion `json:"suggestions"`
	Generating  bool         `json:"generating"`
	Analyzing   bool         `json:"analyzing"`
}

// Service orchestrates one editor session's deck.
type Service struct {
	sessionID string
	store     session.Store
	gen       generation.Client
	metrics   *metrics.GenerationMetrics
	events    *EventBus
	tracer    trace.Tracer

	mu             sync.RWMutex
	deck           *deck.Deck
	suggestions    []Suggestion
	lastFeedbackFP string
	generating     bool
	analyzing      bool
}

// NewService creates a service for a session with an empty deck.
func NewService(sessionID string, store session.Store, gen generation.Client, m *metrics.GenerationMetrics) *Service {
	return &Service{
		sessionID: sessionID,
		store:     store,
		gen:       gen,
		metrics:   m,
		events:    NewEventBus(),
		tracer:    otel.Tracer("deck-orchestrator"),
		deck:      deck.NewDeck("", ""),
	}
}

// Events exposes the session's event bus for WebSocket subscribers.
func (s *Service) Events() *EventBus {
	return s.events
}

// SessionID returns the session this service belongs to.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Snapshot returns the current deck plus session flags. The deck is a
// deep copy, safe to serialize without holding the lock.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Deck:        s.deck.Clone(),
		Suggestions: append([]Suggestion(nil), s.suggestions...),
		Generating:  s.generating,
		Analyzing:   s.analyzing,
	}
}

// LoadSession seeds the in-memory deck from the session store, falling
// back to the remote slide store when the session has never been saved
// locally. The feedback fingerprint is seeded from the loaded slides so an
// untouched reload stays a cache hit.
func (s *Service) LoadSession(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "orchestration.load_session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.sessionID))

	state, found, err := s.store.Load(ctx, s.sessionID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load session: %w", err)
	}

	if found {
		d := &deck.Deck{
			Title:       state.DeckTitle,
			Description: state.DeckDescription,
			Slides:      state.Slides,
			Metrics:     state.Metrics,
			Feedback:    state.AIFeedback,
		}
		if d.Metrics == (deck.Metrics{}) {
			d.Metrics = deck.UnanalyzedMetrics()
		}

		fp := state.ContentFingerprint
		if fp == "" && state.AIFeedback != "" {
			fp = deck.Fingerprint(state.Slides)
		}

		s.mu.Lock()
		s.deck = d
		s.lastFeedbackFP = fp
		s.mu.Unlock()

		span.SetAttributes(attribute.Int("slide_count", len(state.Slides)))
		return nil
	}

	// Never saved locally; the remote slide store may still have a copy.
	slides, err := s.gen.GetSlides(ctx, s.sessionID)
	if err != nil {
		log.Printf(`{"level":"info","component":"orchestration","message":"no remote slides for session","session_id":"%s","error":"%v"}`, s.sessionID, err)
		return nil
	}
	if len(slides) == 0 {
		return nil
	}

	s.mu.Lock()
	d := s.deck.Clone()
	d.Slides = slides
	s.deck = d
	s.mu.Unlock()
	span.SetAttributes(attribute.Int("slide_count", len(slides)))
	return nil
}

// BulkGenerate replaces the whole deck from a problem/solution pitch. The
// generated fragments are grouped into the standard slide set; the deck is
// only swapped when generation succeeded, so a failure leaves the previous
// deck intact. Analysis with feedback runs after the swap, then design
// suggestions are generated per slide with bounded concurrency; individual
// design failures are logged and reported as events without failing the
// operation.
func (s *Service) BulkGenerate(ctx context.Context, problem, solution string) error {
	ctx, span := s.tracer.Start(ctx, "orchestration.bulk_generate")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.sessionID))

	start := time.Now()
	s.metrics.RecordGenerationStarted(ctx, "bulk_generate", s.sessionID)
	s.setGenerating(true)
	defer s.setGenerating(false)

	fragments, err := s.gen.GenerateSlides(ctx, problem, solution)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordGenerationFailed(ctx, "bulk_generate", s.sessionID, "service_error", time.Since(start))
		s.events.Publish(DeckEvent{EventType: EventGenerationFailed, Data: map[string]interface{}{"error": err.Error()}})
		return err
	}

	newDeck := buildDeckFromFragments(problem, solution, fragments)
	span.SetAttributes(attribute.Int("slide_count", len(newDeck.Slides)))

	if err := s.replaceDeck(ctx, newDeck); err != nil {
		s.metrics.RecordGenerationFailed(ctx, "bulk_generate", s.sessionID, "store_error", time.Since(start))
		return err
	}
	s.events.Publish(DeckEvent{EventType: EventDeckGenerated, Data: map[string]interface{}{"slide_count": len(newDeck.Slides)}})

	if _, err := s.Analyze(ctx, true); err != nil {
		span.RecordError(err)
		s.metrics.RecordGenerationFailed(ctx, "bulk_generate", s.sessionID, "analysis_error", time.Since(start))
		return err
	}

	s.generateDesigns(ctx, newDeck)

	s.metrics.RecordGenerationCompleted(ctx, "bulk_generate", s.sessionID, time.Since(start))
	return nil
}

// generateDesigns fans out design generation across all slides. Each
// success updates just its own slide, so slides finished concurrently do
// not clobber each other.
func (s *Service) generateDesigns(ctx context.Context, d *deck.Deck) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(designFanOutLimit)

	for i := range d.Slides {
		g.Go(func() error {
			slide := d.Slides[i]
			design, err := s.gen.GenerateDesignSuggestions(ctx, generation.SlideContext{
				Problem:        d.Title,
				Solution:       d.Description,
				SlideTitle:     slide.Title,
				CurrentContent: slide.Content,
			})
			if err != nil {
				log.Printf(`{"level":"warn","component":"orchestration","message":"design generation failed","session_id":"%s","slide":"%s","error":"%v"}`,
					s.sessionID, slide.Title, err)
				s.events.Publish(DeckEvent{EventType: EventSlideDesignFailed, Data: map[string]interface{}{
					"slide_index": i,
					"slide_title": slide.Title,
					"error":       err.Error(),
				}})
				return nil
			}

			if err := s.updateSlide(ctx, i, func(sl *deck.Slide) { sl.Design = design }); err != nil {
				log.Printf(`{"level":"warn","component":"orchestration","message":"failed to persist design","session_id":"%s","slide":"%s","error":"%v"}`,
					s.sessionID, slide.Title, err)
				return nil
			}
			s.events.Publish(DeckEvent{EventType: EventSlideDesignReady, Data: map[string]interface{}{
				"slide_index": i,
				"slide_title": slide.Title,
			}})
			return nil
		})
	}
	g.Wait()
}

// buildDeckFromFragments groups generated fragments into the standard
// slide order. Matching is a case-insensitive substring test against the
// standard titles; the first match wins and unmatched fragments are
// dropped. Every standard slide appears in the result even when no
// fragment matched it.
func buildDeckFromFragments(problem, solution string, fragments []string) *deck.Deck {
	grouped := make(map[string][]string)
	for _, fragment := range fragments {
		title, ok := deck.MatchStandardSlide(fragment)
		if !ok {
			continue
		}
		content := deck.StripSlideTitle(fragment, title)
		if content != "" {
			grouped[title] = append(grouped[title], content)
		}
	}

	d := deck.NewDeck(problem, solution)
	d.Slides = make([]deck.Slide, 0, len(deck.StandardSlides))
	for _, title := range deck.StandardSlides {
		contents := grouped[title]
		d.Slides = append(d.Slides, deck.Slide{
			Title:   title,
			Content: joinFragments(contents),
			Blocks:  deck.SynthesizeGeneratedBlocks(contents),
		})
	}
	return d
}

func joinFragments(fragments []string) string {
	switch len(fragments) {
	case 0:
		return ""
	case 1:
		return fragments[0]
	}
	out := fragments[0]
	for _, f := range fragments[1:] {
		out += "\n\n" + f
	}
	return out
}

// GenerateContent regenerates one slide's content.
func (s *Service) GenerateContent(ctx context.Context, index int) error {
	return s.rewriteContent(ctx, index, "slide_content", s.gen.GenerateSlideContent)
}

// GenerateDesign regenerates one slide's design suggestions.
func (s *Service) GenerateDesign(ctx context.Context, index int) error {
	ctx, span := s.tracer.Start(ctx, "orchestration.generate_design")
	defer span.End()
	span.SetAttributes(attribute.Int("slide_index", index))

	sc, err := s.slideContext(index)
	if err != nil {
		return err
	}

	start := time.Now()
	s.metrics.RecordGenerationStarted(ctx, "slide_design", s.sessionID)

	design, err := s.gen.GenerateDesignSuggestions(ctx, sc)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordGenerationFailed(ctx, "slide_design", s.sessionID, "service_error", time.Since(start))
		return err
	}

	if err := s.updateSlide(ctx, index, func(sl *deck.Slide) { sl.Design = design }); err != nil {
		s.metrics.RecordGenerationFailed(ctx, "slide_design", s.sessionID, "store_error", time.Since(start))
		return err
	}
	s.metrics.RecordGenerationCompleted(ctx, "slide_design", s.sessionID, time.Since(start))
	return nil
}

// GenerateBoth regenerates a slide's content, then its design. A design
// failure after the content landed is logged but not returned, matching
// the modal's "Generate Content" behavior.
func (s *Service) GenerateBoth(ctx context.Context, index int) error {
	if err := s.GenerateContent(ctx, index); err != nil {
		return err
	}
	if err := s.GenerateDesign(ctx, index); err != nil {
		log.Printf(`{"level":"warn","component":"orchestration","message":"design generation failed after content","session_id":"%s","slide_index":%d,"error":"%v"}`,
			s.sessionID, index, err)
	}
	return nil
}

// OptimizeForInvestors rewrites one slide's content for investors.
func (s *Service) OptimizeForInvestors(ctx context.Context, index int) error {
	return s.rewriteContent(ctx, index, "optimize_for_investors", s.gen.OptimizeForInvestors)
}

// AddDataVisualization rewrites one slide's content around a data visual.
func (s *Service) AddDataVisualization(ctx context.Context, index int) error {
	return s.rewriteContent(ctx, index, "add_data_visualization", s.gen.AddDataVisualization)
}

// ImproveMessaging rewrites one slide's content for clarity.
func (s *Service) ImproveMessaging(ctx context.Context, index int) error {
	return s.rewriteContent(ctx, index, "improve_messaging", s.gen.ImproveMessaging)
}

// rewriteContent is the shared path for the content-rewriting endpoints.
func (s *Service) rewriteContent(ctx context.Context, index int, operation string, call func(context.Context, generation.SlideContext) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, "orchestration."+operation)
	defer span.End()
	span.SetAttributes(attribute.Int("slide_index", index))

	sc, err := s.slideContext(index)
	if err != nil {
		return err
	}

	start := time.Now()
	s.metrics.RecordGenerationStarted(ctx, operation, s.sessionID)

	content, err := call(ctx, sc)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordGenerationFailed(ctx, operation, s.sessionID, "service_error", time.Since(start))
		return err
	}

	if err := s.updateSlide(ctx, index, func(sl *deck.Slide) { sl.Content = content }); err != nil {
		s.metrics.RecordGenerationFailed(ctx, operation, s.sessionID, "store_error", time.Since(start))
		return err
	}
	s.metrics.RecordGenerationCompleted(ctx, operation, s.sessionID, time.Since(start))
	return nil
}

// RefreshSuggestions fetches a fresh content/design suggestion pair for a
// slide and replaces the session's suggestion list.
func (s *Service) RefreshSuggestions(ctx context.Context, index int) ([]Suggestion, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.refresh_suggestions")
	defer span.End()
	span.SetAttributes(attribute.Int("slide_index", index))

	slide, err := s.slideAt(index)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, 2)
	for _, category := range []generation.SuggestionCategory{generation.SuggestionContent, generation.SuggestionDesign} {
		text, err := s.gen.GenerateSuggestion(ctx, slide.Title, slide.Content, slide.Design, category)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		suggestions = append(suggestions, Suggestion{Category: category, Text: text})
	}

	s.mu.Lock()
	s.suggestions = suggestions
	s.mu.Unlock()

	return append([]Suggestion(nil), suggestions...), nil
}

// ApplySuggestion appends the suggestion in the given slot to the slide
// and refills just that slot with a fresh suggestion of the same
// category. Content suggestions and chart/table requests land in the
// slide's content; other design suggestions land in its design notes. The
// suggestion list keeps its length; when the refill fails the old
// suggestion stays in place and the error is returned alongside the
// already-applied edit.
func (s *Service) ApplySuggestion(ctx context.Context, index, slot int) (*ApplyResult, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.apply_suggestion")
	defer span.End()
	span.SetAttributes(
		attribute.Int("slide_index", index),
		attribute.Int("slot", slot),
	)

	s.mu.RLock()
	if slot < 0 || slot >= len(s.suggestions) {
		s.mu.RUnlock()
		return nil, &ValidationError{Message: fmt.Sprintf("no suggestion in slot %d", slot)}
	}
	applied := s.suggestions[slot]
	s.mu.RUnlock()

	kind, isVisual := deck.DetectVisualKind(applied.Text)
	span.SetAttributes(attribute.Bool("visual_intent", isVisual))

	err := s.updateSlide(ctx, index, func(sl *deck.Slide) {
		if isVisual || applied.Category == generation.SuggestionContent {
			sl.Content = appendLine(sl.Content, applied.Text)
		} else {
			sl.Design = appendLine(sl.Design, applied.Text)
		}
	})
	if err != nil {
		return nil, err
	}

	slide, err := s.slideAt(index)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Applied: applied, Slide: slide}
	if isVisual {
		result.VisualKind = string(kind)
	}

	s.events.Publish(DeckEvent{EventType: EventSuggestionApplied, Data: map[string]interface{}{
		"slide_index": index,
		"category":    string(applied.Category),
	}})

	text, err := s.gen.GenerateSuggestion(ctx, slide.Title, slide.Content, slide.Design, applied.Category)
	if err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("suggestion applied but refill failed: %w", err)
	}

	replacement := Suggestion{Category: applied.Category, Text: text}
	s.mu.Lock()
	if slot < len(s.suggestions) {
		s.suggestions[slot] = replacement
	}
	s.mu.Unlock()

	result.NewSuggestion = replacement
	return result, nil
}

func appendLine(base, extra string) string {
	if base == "" {
		return extra
	}
	return base + "\n" + extra
}

// Analyze scores the deck. When feedback is requested and the slides have
// not changed since the last feedback run, the cached result is returned
// without touching the service. On failure the deck's metrics reset to the
// unanalyzed sentinel and, when feedback was requested, the feedback
// becomes the fixed failure message; the error is still returned.
func (s *Service) Analyze(ctx context.Context, wantFeedback bool) (*AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.sessionID),
		attribute.Bool("want_feedback", wantFeedback),
	)

	s.mu.RLock()
	slides := s.deck.Clone().Slides
	cachedFeedback := s.deck.Feedback
	cachedMetrics := s.deck.Metrics
	lastFP := s.lastFeedbackFP
	s.mu.RUnlock()

	if wantFeedback && cachedFeedback != "" && cachedFeedback != FeedbackFailureMessage && !deck.IsStale(slides, lastFP) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		s.metrics.RecordAnalysisCacheHit(ctx, s.sessionID)
		return &AnalysisResult{Metrics: cachedMetrics, Feedback: cachedFeedback, FromCache: true}, nil
	}
	s.metrics.RecordAnalysisCacheMiss(ctx, s.sessionID)

	s.setAnalyzing(true)
	defer s.setAnalyzing(false)

	start := time.Now()
	s.metrics.RecordGenerationStarted(ctx, "analyze", s.sessionID)

	analysis, err := s.gen.AnalyzePitchDeck(ctx, generation.Summarize(slides), wantFeedback)
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordGenerationFailed(ctx, "analyze", s.sessionID, "service_error", time.Since(start))

		s.mu.Lock()
		failed := s.deck.Clone()
		failed.Metrics = deck.UnanalyzedMetrics()
		if wantFeedback {
			failed.Feedback = FeedbackFailureMessage
		}
		s.deck = failed
		s.mu.Unlock()
		s.persist(ctx)

		s.events.Publish(DeckEvent{EventType: EventAnalysisFailed, Data: map[string]interface{}{"error": err.Error()}})
		return nil, err
	}

	m := deck.Metrics{
		Score:           analysis.Score,
		NarrativeFlow:   analysis.NarrativeFlow,
		VisualDesign:    analysis.VisualDesign,
		DataCredibility: analysis.DataCredibility,
	}

	s.mu.Lock()
	updated := s.deck.Clone()
	updated.Metrics = m
	if wantFeedback && analysis.Feedback != "" {
		updated.Feedback = analysis.Feedback
		s.lastFeedbackFP = deck.Fingerprint(slides)
	}
	s.deck = updated
	feedback := updated.Feedback
	s.mu.Unlock()
	s.persist(ctx)

	s.metrics.RecordGenerationCompleted(ctx, "analyze", s.sessionID, time.Since(start))
	s.events.Publish(DeckEvent{EventType: EventAnalysisCompleted, Data: map[string]interface{}{"score": m.Score}})

	return &AnalysisResult{Metrics: m, Feedback: feedback}, nil
}

// Export renders the deck in the requested format. An empty deck is
// rejected before any network call.
func (s *Service) Export(ctx context.Context, format generation.ExportFormat) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.export")
	defer span.End()
	span.SetAttributes(attribute.String("format", string(format)))

	s.mu.RLock()
	slides := s.deck.Clone().Slides
	s.mu.RUnlock()

	if len(slides) == 0 {
		return nil, ErrNoSlides
	}

	return s.gen.Export(ctx, generation.Summarize(slides), format)
}

// SaveBlocks commits a block-editor save: the block list folds back into
// the slide's title, content and visuals, the session store is updated,
// and the full slide list is pushed to the remote store best-effort. A
// remote failure is logged and counted, never surfaced.
func (s *Service) SaveBlocks(ctx context.Context, index int, blocks []deck.Block) (deck.Slide, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.save_blocks")
	defer span.End()
	span.SetAttributes(
		attribute.Int("slide_index", index),
		attribute.Int("block_count", len(blocks)),
	)

	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return deck.Slide{}, &ValidationError{Message: err.Error()}
		}
	}

	var saved deck.Slide
	err := s.updateSlide(ctx, index, func(sl *deck.Slide) {
		*sl = deck.MergeBlockEditor(*sl, blocks)
		saved = sl.Clone()
	})
	if err != nil {
		return deck.Slide{}, err
	}

	s.saveRemote(ctx)
	return saved, nil
}

// SplitBlocks returns the block list the fine-grained editor opens with.
func (s *Service) SplitBlocks(index int) ([]deck.Block, error) {
	slide, err := s.slideAt(index)
	if err != nil {
		return nil, err
	}
	return deck.SplitForBlockEditor(slide), nil
}

// EditBlock applies a single text edit inside a slide's block list and
// re-derives the aggregate content and visuals.
func (s *Service) EditBlock(ctx context.Context, index, blockIndex int, content string) (deck.Slide, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.edit_block")
	defer span.End()
	span.SetAttributes(
		attribute.Int("slide_index", index),
		attribute.Int("block_index", blockIndex),
	)

	var edited deck.Slide
	err := s.updateSlide(ctx, index, func(sl *deck.Slide) {
		sl.Blocks = deck.ApplyBlockEdit(sl.Blocks, blockIndex, content)
		sl.Content, sl.Visuals = deck.DeriveAggregate(sl.Blocks)
		edited = sl.Clone()
	})
	if err != nil {
		return deck.Slide{}, err
	}
	return edited, nil
}

// UpdateSlideContent sets a slide's content directly.
func (s *Service) UpdateSlideContent(ctx context.Context, index int, content string) error {
	return s.updateSlide(ctx, index, func(sl *deck.Slide) { sl.Content = content })
}

// UpdateSlideDesign sets a slide's design notes directly.
func (s *Service) UpdateSlideDesign(ctx context.Context, index int, design string) error {
	return s.updateSlide(ctx, index, func(sl *deck.Slide) { sl.Design = design })
}

// SetSlideMedia attaches an image or video URL. Setting one clears the
// other.
func (s *Service) SetSlideMedia(ctx context.Context, index int, imageURL, videoURL string) error {
	if imageURL != "" && videoURL != "" {
		return &ValidationError{Message: "a slide cannot carry both an image and a video"}
	}
	return s.updateSlide(ctx, index, func(sl *deck.Slide) {
		if imageURL != "" {
			sl.SetImageURL(imageURL)
		} else if videoURL != "" {
			sl.SetVideoURL(videoURL)
		} else {
			sl.ImageURL = ""
			sl.VideoURL = ""
		}
	})
}

// SaveDeck persists the current deck and pushes it to the remote store
// best-effort.
func (s *Service) SaveDeck(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "orchestration.save_deck")
	defer span.End()

	if err := s.persistErr(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	s.saveRemote(ctx)
	return nil
}

// Stats reports dashboard statistics from the session store.
func (s *Service) Stats(ctx context.Context) (*session.Stats, error) {
	return s.store.Stats(ctx)
}

// updateSlide clones the deck, applies the mutation to one slide and
// swaps the clone in. Concurrent updates to other slides are preserved
// because each update starts from the freshest deck; concurrent updates
// to the same slide are last-write-wins.
func (s *Service) updateSlide(ctx context.Context, index int, mutate func(*deck.Slide)) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.deck.Slides) {
		s.mu.Unlock()
		return &ValidationError{Message: fmt.Sprintf("slide index %d out of range", index)}
	}
	d := s.deck.Clone()
	mutate(&d.Slides[index])
	s.deck = d
	s.mu.Unlock()

	s.events.Publish(DeckEvent{EventType: EventSlideUpdated, Data: map[string]interface{}{"slide_index": index}})
	return s.persistErr(ctx)
}

// replaceDeck swaps the whole deck and persists it. Interleaved replace
// operations are last-write-wins wholesale; a reader never sees a mix of
// two decks.
func (s *Service) replaceDeck(ctx context.Context, d *deck.Deck) error {
	s.mu.Lock()
	s.deck = d
	s.mu.Unlock()
	return s.persistErr(ctx)
}

// persistErr writes the current deck to the session store.
func (s *Service) persistErr(ctx context.Context) error {
	s.mu.RLock()
	d := s.deck.Clone()
	fp := s.lastFeedbackFP
	s.mu.RUnlock()

	state := &session.State{
		Slides:             d.Slides,
		Metrics:            d.Metrics,
		AIFeedback:         d.Feedback,
		DeckTitle:          d.Title,
		DeckDescription:    d.Description,
		ContentFingerprint: fp,
	}
	if err := s.store.Save(ctx, s.sessionID, state); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// persist is persistErr for paths where a store failure must not mask the
// primary error.
func (s *Service) persist(ctx context.Context) {
	if err := s.persistErr(ctx); err != nil {
		log.Printf(`{"level":"error","component":"orchestration","message":"failed to persist session","session_id":"%s","error":"%v"}`, s.sessionID, err)
	}
}

// saveRemote pushes the slide list to the remote slide store. Best-effort;
// the session store already holds the authoritative copy.
func (s *Service) saveRemote(ctx context.Context) {
	s.mu.RLock()
	slides := s.deck.Clone().Slides
	s.mu.RUnlock()

	if err := s.gen.SaveSlides(ctx, s.sessionID, slides); err != nil {
		log.Printf(`{"level":"warn","component":"orchestration","message":"remote slide save failed","session_id":"%s","error":"%v"}`, s.sessionID, err)
		s.metrics.RecordRemoteSaveFailure(ctx, s.sessionID)
	}
}

func (s *Service) slideAt(index int) (deck.Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.deck.Slides) {
		return deck.Slide{}, &ValidationError{Message: fmt.Sprintf("slide index %d out of range", index)}
	}
	return s.deck.Slides[index].Clone(), nil
}

func (s *Service) slideContext(index int) (generation.SlideContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.deck.Slides) {
		return generation.SlideContext{}, &ValidationError{Message: fmt.Sprintf("slide index %d out of range", index)}
	}
	slide := s.deck.Slides[index]
	return generation.SlideContext{
		Problem:        s.deck.Title,
		Solution:       s.deck.Description,
		SlideTitle:     slide.Title,
		CurrentContent: slide.Content,
	}, nil
}

func (s *Service) setGenerating(v bool) {
	s.mu.Lock()
	s.generating = v
	s.mu.Unlock()
}

func (s *Service) setAnalyzing(v bool) {
	s.mu.Lock()
	s.analyzing = v
	s.mu.Unlock()
}
