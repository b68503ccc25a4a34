package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchcraft/deck-orchestrator/internal/deck"
)

func TestGenerateSlides(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectedError  string
		expectedSlides []string
	}{
		{
			name: "successful generation",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/generate-slides", r.URL.Path)

				var req generateSlidesRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "slow shipping", req.Problem)
				assert.Equal(t, "faster shipping", req.Solution)

				json.NewEncoder(w).Encode(generateSlidesResponse{
					Slides: []string{"The Problem: shipping is slow", "Our Solution: we fix it"},
				})
			},
			expectedSlides: []string{"The Problem: shipping is slow", "Our Solution: we fix it"},
		},
		{
			name: "service error with detail",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]string{"detail": "model overloaded"})
			},
			expectedError: "generation service returned status 502: model overloaded",
		},
		{
			name: "service error without detail falls back",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			},
			expectedError: "generation service returned status 500: Failed to generate slides. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			client := NewHTTPClient()
			client.SetBaseURL(server.URL)

			slides, err := client.GenerateSlides(context.Background(), "slow shipping", "faster shipping")

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedSlides, slides)
			}
		})
	}
}

func TestGenerateSlidesCachesResponses(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(generateSlidesResponse{Slides: []string{"Team"}})
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)
	ctx := context.Background()

	first, err := client.GenerateSlides(ctx, "p", "s")
	require.NoError(t, err)
	second, err := client.GenerateSlides(ctx, "p", "s")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	// A different pitch misses the cache.
	_, err = client.GenerateSlides(ctx, "p2", "s2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnalyzePitchDeckSendsScalesAndFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze-pitch-deck", r.URL.Path)

		// Decode into a raw map so the asserted key names are the wire
		// names, not this package's struct tags.
		var req map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Contains(t, req, "metricScales")
		require.Contains(t, req, "getFeedback")

		var scales map[string][]string
		require.NoError(t, json.Unmarshal(req["metricScales"], &scales))
		assert.Equal(t, deck.NarrativeFlowScale, scales["narrative_flow"])
		assert.Equal(t, deck.VisualDesignScale, scales["visual_design"])
		assert.Equal(t, deck.DataCredibilityScale, scales["data_credibility"])

		var getFeedback bool
		require.NoError(t, json.Unmarshal(req["getFeedback"], &getFeedback))
		assert.True(t, getFeedback)

		var slides []SlideSummary
		require.NoError(t, json.Unmarshal(req["slides"], &slides))
		require.Len(t, slides, 1)

		json.NewEncoder(w).Encode(Analysis{
			Score:           78,
			NarrativeFlow:   "Strong",
			VisualDesign:    "Polished",
			DataCredibility: "High",
			Feedback:        "Lead with traction.",
		})
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)

	analysis, err := client.AnalyzePitchDeck(context.Background(),
		[]SlideSummary{{Title: "Traction", Content: "Up 40%"}}, true)
	require.NoError(t, err)
	assert.Equal(t, 78.0, analysis.Score)
	assert.Equal(t, "Strong", analysis.NarrativeFlow)
	assert.Equal(t, "Lead with traction.", analysis.Feedback)
}

func TestGenerateSuggestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Design", req["type"])
		assert.Equal(t, "Traction", req["slide_title"])
		assert.Equal(t, "Up 40%", req["content"])
		assert.Equal(t, "minimal", req["design"])

		json.NewEncoder(w).Encode(suggestionResponse{Suggestion: "Use a bolder headline."})
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)

	suggestion, err := client.GenerateSuggestion(context.Background(), "Traction", "Up 40%", "minimal", SuggestionDesign)
	require.NoError(t, err)
	assert.Equal(t, "Use a bolder headline.", suggestion)
}

func TestGenerateDesignSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-design-suggestions", r.URL.Path)
		w.Write([]byte(`{"suggestions": "Use a blue background with white text."}`))
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)

	design, err := client.GenerateDesignSuggestions(context.Background(),
		SlideContext{Problem: "p", Solution: "s", SlideTitle: "Traction"})
	require.NoError(t, err)
	assert.Equal(t, "Use a blue background with white text.", design)
}

func TestExportReturnsDocumentBytes(t *testing.T) {
	payload := []byte("%PDF-1.7 fake document")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/export-pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(payload)
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)

	data, err := client.Export(context.Background(), []SlideSummary{{Title: "Team"}}, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestExportPPTPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/export-ppt", r.URL.Path)
		w.Write([]byte("pptx"))
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)

	_, err := client.Export(context.Background(), []SlideSummary{{Title: "Team"}}, ExportPPT)
	require.NoError(t, err)
}

func TestSaveAndGetSlides(t *testing.T) {
	slides := []deck.Slide{{Title: "Team", Content: "Two founders"}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/save-slides":
			var req map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Contains(t, req, "userId")
			var userID string
			require.NoError(t, json.Unmarshal(req["userId"], &userID))
			assert.Equal(t, "sess-1", userID)
			var sent []deck.Slide
			require.NoError(t, json.Unmarshal(req["slides"], &sent))
			require.Len(t, sent, 1)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		case "/get-slides":
			assert.Equal(t, "sess-1", r.URL.Query().Get("userId"))
			json.NewEncoder(w).Encode(getSlidesResponse{Slides: slides})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)
	ctx := context.Background()

	require.NoError(t, client.SaveSlides(ctx, "sess-1", slides))

	got, err := client.GetSlides(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, slides, got)
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(slideContentResponse{Content: "late"})
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.GenerateSlideContent(ctx, SlideContext{SlideTitle: "Team"})
	require.Error(t, err)
}

func TestIsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient()
	client.SetBaseURL(server.URL)
	assert.True(t, client.IsHealthy(context.Background()))

	client.SetBaseURL("http://127.0.0.1:1")
	assert.False(t, client.IsHealthy(context.Background()))
}

func TestSummarize(t *testing.T) {
	slides := []deck.Slide{
		{Title: "Team", Content: "Two founders", Design: "minimal"},
		{Title: "Traction", Content: "Up 40%"},
	}
	summaries := Summarize(slides)
	require.Len(t, summaries, 2)
	assert.Equal(t, SlideSummary{Title: "Team", Content: "Two founders"}, summaries[0])
	assert.Equal(t, SlideSummary{Title: "Traction", Content: "Up 40%"}, summaries[1])
}
