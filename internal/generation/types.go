package generation

import "github.com/pitchcraft/deck-orchestrator/internal/deck"

// SuggestionCategory selects which kind of suggestion the service writes.
type SuggestionCategory string

const (
	SuggestionContent SuggestionCategory = "Content"
	SuggestionDesign  SuggestionCategory = "Design"
)

// ExportFormat selects the export endpoint.
type ExportFormat string

const (
	ExportPDF ExportFormat = "pdf"
	ExportPPT ExportFormat = "ppt"
)

// SlideContext carries the deck pitch plus the slide being worked on; it
// is the request body shared by the per-slide generation endpoints.
type SlideContext struct {
	Problem        string `json:"problem"`
	Solution       string `json:"solution"`
	SlideTitle     string `json:"slide_title"`
	CurrentContent string `json:"current_content,omitempty"`
}

// SlideSummary is the title/content pair sent to analysis and export.
type SlideSummary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Summarize projects slides down to the title/content pairs the analysis
// and export endpoints accept.
func Summarize(slides []deck.Slide) []SlideSummary {
	out := make([]SlideSummary, len(slides))
	for i, s := range slides {
		out[i] = SlideSummary{Title: s.Title, Content: s.Content}
	}
	return out
}

// Analysis is the scorecard returned by analyze-pitch-deck. Feedback is
// present only when it was requested.
type Analysis struct {
	Score           float64 `json:"score"`
	NarrativeFlow   string  `json:"narrative_flow"`
	VisualDesign    string  `json:"visual_design"`
	DataCredibility string  `json:"data_credibility"`
	Feedback        string  `json:"feedback,omitempty"`
}

type generateSlidesRequest struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

type generateSlidesResponse struct {
	Slides []string `json:"slides"`
}

type slideContentResponse struct {
	Content string `json:"content"`
}

type designSuggestionsResponse struct {
	Suggestions string `json:"suggestions"`
}

type suggestionRequest struct {
	SlideTitle string             `json:"slide_title"`
	Content    string             `json:"content,omitempty"`
	Design     string             `json:"design,omitempty"`
	Type       SuggestionCategory `json:"type"`
}

type suggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

type analyzeRequest struct {
	Slides       []SlideSummary      `json:"slides"`
	MetricScales map[string][]string `json:"metricScales"`
	GetFeedback  bool                `json:"getFeedback"`
}

type slidesPayloadRequest struct {
	Slides []SlideSummary `json:"slides"`
}

type getSlidesResponse struct {
	Slides []deck.Slide `json:"slides"`
}

type saveSlidesRequest struct {
	UserID string       `json:"userId"`
	Slides []deck.Slide `json:"slides"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
