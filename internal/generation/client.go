// Package generation is the HTTP client for the external pitch-deck
// generation service. Every endpoint gets one typed method; calls run
// through a circuit breaker and carry trace context.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchcraft/deck-orchestrator/internal/deck"
)

// Client defines the generation service surface the orchestrator depends on.
type Client interface {
	GenerateSlides(ctx context.Context, problem, solution string) ([]string, error)
	GenerateSlideContent(ctx context.Context, sc SlideContext) (string, error)
	GenerateDesignSuggestions(ctx context.Context, sc SlideContext) (string, error)
	GenerateSuggestion(ctx context.Context, slideTitle, content, design string, category SuggestionCategory) (string, error)
	AnalyzePitchDeck(ctx context.Context, slides []SlideSummary, getFeedback bool) (*Analysis, error)
	OptimizeForInvestors(ctx context.Context, sc SlideContext) (string, error)
	AddDataVisualization(ctx context.Context, sc SlideContext) (string, error)
	ImproveMessaging(ctx context.Context, sc SlideContext) (string, error)
	GetSlides(ctx context.Context, userID string) ([]deck.Slide, error)
	SaveSlides(ctx context.Context, userID string, slides []deck.Slide) error
	Export(ctx context.Context, slides []SlideSummary, format ExportFormat) ([]byte, error)
	IsHealthy(ctx context.Context) bool
}

const (
	slideCacheSize = 128
	slideCacheTTL  = time.Hour
)

// HTTPClient talks to the generation service over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
	slideCache *expirable.LRU[string, []string]
}

// NewHTTPClient creates a generation client configured from
// GENERATION_SERVICE_URL.
func NewHTTPClient() *HTTPClient {
	baseURL := os.Getenv("GENERATION_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
		log.Printf("WARN: GENERATION_SERVICE_URL not set, defaulting to %s", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "generation-service",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tracer:     otel.Tracer("generation-client"),
		breaker:    gobreaker.NewCircuitBreaker(settings),
		slideCache: expirable.NewLRU[string, []string](slideCacheSize, nil, slideCacheTTL),
	}
}

// SetBaseURL sets the base URL for testing purposes
func (c *HTTPClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GenerateSlides asks the service for the full deck outline. Responses are
// cached for an hour keyed by the problem/solution pair.
func (c *HTTPClient) GenerateSlides(ctx context.Context, problem, solution string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.generate_slides")
	defer span.End()

	cacheKey := fmt.Sprintf("%s:%s", problem, solution)
	if cached, ok := c.slideCache.Get(cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	var out generateSlidesResponse
	err := c.post(ctx, span, "/generate-slides",
		generateSlidesRequest{Problem: problem, Solution: solution},
		&out, "Failed to generate slides. Please try again.")
	if err != nil {
		return nil, err
	}

	c.slideCache.Add(cacheKey, out.Slides)
	return out.Slides, nil
}

// GenerateSlideContent rewrites one slide's content.
func (c *HTTPClient) GenerateSlideContent(ctx context.Context, sc SlideContext) (string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.generate_slide_content")
	defer span.End()
	span.SetAttributes(attribute.String("slide_title", sc.SlideTitle))

	var out slideContentResponse
	err := c.post(ctx, span, "/generate-slide-content", sc, &out,
		"Failed to generate slide content. Please try again.")
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

// GenerateDesignSuggestions produces design guidance for one slide.
func (c *HTTPClient) GenerateDesignSuggestions(ctx context.Context, sc SlideContext) (string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.generate_design_suggestions")
	defer span.End()
	span.SetAttributes(attribute.String("slide_title", sc.SlideTitle))

	var out designSuggestionsResponse
	err := c.post(ctx, span, "/generate-design-suggestions", sc, &out,
		"Failed to generate design suggestions. Please try again.")
	if err != nil {
		return "", err
	}
	return out.Suggestions, nil
}

// GenerateSuggestion fetches one improvement suggestion of the given
// category for a slide.
func (c *HTTPClient) GenerateSuggestion(ctx context.Context, slideTitle, content, design string, category SuggestionCategory) (string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.generate_suggestion")
	defer span.End()
	span.SetAttributes(
		attribute.String("slide_title", slideTitle),
		attribute.String("category", string(category)),
	)

	var out suggestionResponse
	err := c.post(ctx, span, "/generate-suggestion",
		suggestionRequest{SlideTitle: slideTitle, Content: content, Design: design, Type: category},
		&out, "Failed to generate suggestion. Please try again.")
	if err != nil {
		return "", err
	}
	return out.Suggestion, nil
}

// AnalyzePitchDeck scores the deck. The rating scales travel with the
// request so the service picks from the fixed vocabularies.
func (c *HTTPClient) AnalyzePitchDeck(ctx context.Context, slides []SlideSummary, getFeedback bool) (*Analysis, error) {
	ctx, span := c.tracer.Start(ctx, "generation.analyze_pitch_deck")
	defer span.End()
	span.SetAttributes(
		attribute.Int("slide_count", len(slides)),
		attribute.Bool("get_feedback", getFeedback),
	)

	req := analyzeRequest{
		Slides: slides,
		MetricScales: map[string][]string{
			"narrative_flow":   deck.NarrativeFlowScale,
			"visual_design":    deck.VisualDesignScale,
			"data_credibility": deck.DataCredibilityScale,
		},
		GetFeedback: getFeedback,
	}

	var out Analysis
	err := c.post(ctx, span, "/analyze-pitch-deck", req, &out,
		"Failed to analyze pitch deck. Please try again.")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OptimizeForInvestors rewrites a slide's content for an investor audience.
func (c *HTTPClient) OptimizeForInvestors(ctx context.Context, sc SlideContext) (string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.optimize_for_investors")
	defer span.End()
	span.SetAttributes(attribute.String("slide_title", sc.SlideTitle))

	var out slideContentResponse
	err := c.post(ctx, span, "/optimize-for-investors", sc, &out,
		"Failed to optimize slide. Please try again.")
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

// AddDataVisualization rewrites a slide's content around a data visual.
func (c *HTTPClient) AddDataVisualization(ctx context.Context, sc SlideContext) (string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.add_data_visualization")
	defer span.End()
	span.SetAttributes(attribute.String("slide_title", sc.SlideTitle))

	var out slideContentResponse
	err := c.post(ctx, span, "/add-data-visualization", sc, &out,
		"Failed to add data visualization. Please try again.")
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

// ImproveMessaging rewrites a slide's content for clarity and punch.
func (c *HTTPClient) ImproveMessaging(ctx context.Context, sc SlideContext) (string, error) {
	ctx, span := c.tracer.Start(ctx, "generation.improve_messaging")
	defer span.End()
	span.SetAttributes(attribute.String("slide_title", sc.SlideTitle))

	var out slideContentResponse
	err := c.post(ctx, span, "/improve-messaging", sc, &out,
		"Failed to improve messaging. Please try again.")
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

// GetSlides fetches the slides saved remotely for a user.
func (c *HTTPClient) GetSlides(ctx context.Context, userID string) ([]deck.Slide, error) {
	ctx, span := c.tracer.Start(ctx, "generation.get_slides")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		reqURL := fmt.Sprintf("%s/get-slides?userId=%s", c.baseURL, url.QueryEscape(userID))
		httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, c.statusError(resp, "Failed to fetch saved slides.")
		}

		var out getSlidesResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return out.Slides, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]deck.Slide), nil
}

// SaveSlides pushes the full slide list to the remote store.
func (c *HTTPClient) SaveSlides(ctx context.Context, userID string, slides []deck.Slide) error {
	ctx, span := c.tracer.Start(ctx, "generation.save_slides")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("slide_count", len(slides)),
	)

	var out map[string]any
	return c.post(ctx, span, "/save-slides",
		saveSlidesRequest{UserID: userID, Slides: slides},
		&out, "Failed to save slides.")
}

// Export renders the deck and returns the document bytes.
func (c *HTTPClient) Export(ctx context.Context, slides []SlideSummary, format ExportFormat) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "generation.export")
	defer span.End()
	span.SetAttributes(
		attribute.String("format", string(format)),
		attribute.Int("slide_count", len(slides)),
	)

	path := "/export-pdf"
	if format == ExportPPT {
		path = "/export-ppt"
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		jsonData, err := json.Marshal(slidesPayloadRequest{Slides: slides})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, c.statusError(resp, fmt.Sprintf("Failed to export %s. Please try again.", strings.ToUpper(string(format))))
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result.([]byte), nil
}

// IsHealthy checks if the generation service is reachable.
func (c *HTTPClient) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "generation.health_check")
	defer span.End()

	if c.breaker.State() == gobreaker.StateOpen {
		span.SetAttributes(attribute.Bool("healthy", false), attribute.String("reason", "circuit_breaker_open"))
		return false
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		span.RecordError(err)
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	span.SetAttributes(attribute.Bool("healthy", healthy))

	return healthy
}

// post runs a JSON POST through the circuit breaker and decodes the
// response into out.
func (c *HTTPClient) post(ctx context.Context, span trace.Span, path string, body, out any, fallback string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, c.statusError(resp, fallback)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// statusError builds the error for a non-2xx response, preferring the
// service's detail message over the fixed fallback.
func (c *HTTPClient) statusError(resp *http.Response, fallback string) error {
	bodyBytes, readErr := io.ReadAll(resp.Body)
	detail := fallback
	if readErr == nil && len(bodyBytes) > 0 {
		var er errorResponse
		if err := json.Unmarshal(bodyBytes, &er); err == nil && er.Detail != "" {
			detail = er.Detail
		}
	}
	return fmt.Errorf("generation service returned status %d: %s", resp.StatusCode, detail)
}
