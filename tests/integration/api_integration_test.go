package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchcraft/deck-orchestrator/tests/helpers"
)

func TestSessionLifecycleIntegration(t *testing.T) {
	env := helpers.NewTestEnv(t)

	t.Run("Create Session", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/sessions", "", nil)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["session_id"])
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("Authentication Required", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp["error"], "authorization")
	})

	t.Run("Invalid Token Rejected", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDeckGenerationIntegration(t *testing.T) {
	env := helpers.NewTestEnv(t)
	token := env.Token(t, "gen-session")

	t.Run("Empty Deck Initially", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		snapshot := decodeSnapshot(t, w)
		assert.Empty(t, snapshot.Deck.Slides)
		assert.False(t, snapshot.Generating)
	})

	t.Run("Generate Deck", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/deck/generate", token, map[string]string{
			"problem":  "slow deck authoring",
			"solution": "generate drafts automatically",
		})
		require.Equal(t, http.StatusOK, w.Code)

		snapshot := decodeSnapshot(t, w)
		require.Len(t, snapshot.Deck.Slides, 13)
		assert.Equal(t, "The Problem", snapshot.Deck.Slides[0].Title)
		assert.Contains(t, snapshot.Deck.Slides[0].Content, "slow deck authoring")
	})

	t.Run("Missing Fields Rejected", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/deck/generate", token, map[string]string{
			"problem": "only half a pitch",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Deck Survives Across Requests", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		snapshot := decodeSnapshot(t, w)
		assert.Len(t, snapshot.Deck.Slides, 13)
	})

	t.Run("Stats Counts The Deck", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck/stats", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var stats map[string]int
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 1, stats["decks_created"])
	})
}

func TestAnalysisAndExportIntegration(t *testing.T) {
	env := helpers.NewTestEnv(t)
	token := env.Token(t, "analysis-session")

	t.Run("Export Without Slides Rejected", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck/export?format=pdf", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, int64(0), env.Generation.ExportCalls.Load())
	})

	generateDeck(t, env, token)

	t.Run("Analyze With Feedback", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/deck/analyze", token, map[string]bool{
			"get_feedback": true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result struct {
			Metrics struct {
				Score float64 `json:"score"`
			} `json:"metrics"`
			Feedback  string `json:"feedback"`
			FromCache bool   `json:"from_cache"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 7.5, result.Metrics.Score)
		assert.NotEmpty(t, result.Feedback)
		assert.False(t, result.FromCache)
	})

	t.Run("Unchanged Deck Reuses Feedback", func(t *testing.T) {
		before := env.Generation.AnalyzeCalls.Load()

		w := doRequest(t, env, http.MethodPost, "/api/deck/analyze", token, map[string]bool{
			"get_feedback": true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result struct {
			FromCache bool `json:"from_cache"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.FromCache)
		assert.Equal(t, before, env.Generation.AnalyzeCalls.Load())
	})

	t.Run("Export PDF", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck/export?format=pdf", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "pitch-deck.pdf")
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("Unknown Export Format Rejected", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck/export?format=docx", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSlideEditingIntegration(t *testing.T) {
	env := helpers.NewTestEnv(t)
	token := env.Token(t, "edit-session")
	generateDeck(t, env, token)

	t.Run("Update Slide Content", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPut, "/api/deck/slides/0", token, map[string]string{
			"content": "Rewritten problem statement",
		})
		require.Equal(t, http.StatusOK, w.Code)

		snapshot := decodeSnapshot(t, w)
		assert.Equal(t, "Rewritten problem statement", snapshot.Deck.Slides[0].Content)
	})

	t.Run("Out Of Range Slide Rejected", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPut, "/api/deck/slides/99", token, map[string]string{
			"content": "nope",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Media Exclusivity Enforced", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPut, "/api/deck/slides/0", token, map[string]string{
			"image_url": "https://cdn.example.com/chart.png",
			"video_url": "https://cdn.example.com/demo.mp4",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Slide Actions Rewrite Content", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/deck/slides/1/optimize", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		snapshot := decodeSnapshot(t, w)
		assert.Contains(t, snapshot.Deck.Slides[1].Content, "Investor-ready:")
	})

	t.Run("Block Editor Round Trip", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck/slides/0/blocks", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var blocks []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &blocks))
		require.GreaterOrEqual(t, len(blocks), 2)
		// First block is the slide title.
		assert.Equal(t, "The Problem", blocks[0]["content"])

		blocks[1]["content"] = "Edited through the block editor"
		w = doRequest(t, env, http.MethodPut, "/api/deck/slides/0/blocks", token, map[string]interface{}{
			"blocks": blocks,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var slide struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slide))
		assert.Equal(t, "The Problem", slide.Title)
		assert.Equal(t, "Edited through the block editor", slide.Content)
	})

	t.Run("Edit Single Block", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPut, "/api/deck/slides/0/blocks/1", token, map[string]string{
			"content": "Single block edit",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var slide struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slide))
		assert.Contains(t, slide.Content, "Single block edit")
	})
}

func TestSuggestionsIntegration(t *testing.T) {
	env := helpers.NewTestEnv(t)
	token := env.Token(t, "suggestion-session")
	generateDeck(t, env, token)

	t.Run("Fetch Suggestion Pair", func(t *testing.T) {
		w := doRequest(t, env, http.MethodGet, "/api/deck/slides/0/suggestions", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var suggestions []struct {
			Category string `json:"category"`
			Text     string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestions))
		require.Len(t, suggestions, 2)
		assert.Equal(t, "Content", suggestions[0].Category)
		assert.Equal(t, "Design", suggestions[1].Category)
	})

	t.Run("Apply Suggestion Refills Slot", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/deck/slides/0/suggestions/0/apply", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var result struct {
			Applied struct {
				Text string `json:"text"`
			} `json:"applied"`
			NewSuggestion struct {
				Text string `json:"text"`
			} `json:"new_suggestion"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.NotEmpty(t, result.Applied.Text)
		assert.NotEmpty(t, result.NewSuggestion.Text)
	})

	t.Run("Apply Without Suggestions Rejected", func(t *testing.T) {
		w := doRequest(t, env, http.MethodPost, "/api/deck/slides/0/suggestions/7/apply", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type snapshotResponse struct {
	Deck struct {
		Slides []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"slides"`
	} `json:"deck"`
	Generating bool `json:"generating"`
	Analyzing  bool `json:"analyzing"`
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) snapshotResponse {
	t.Helper()
	var snapshot snapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	return snapshot
}

func generateDeck(t *testing.T, env *helpers.TestEnv, token string) {
	t.Helper()
	w := doRequest(t, env, http.MethodPost, "/api/deck/generate", token, map[string]string{
		"problem":  "manual deck assembly",
		"solution": "AI-assisted drafting",
	})
	require.Equal(t, http.StatusOK, w.Code, "deck generation failed: %s", w.Body.String())
}

func doRequest(t *testing.T, env *helpers.TestEnv, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}
