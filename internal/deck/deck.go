package deck

import (
	"regexp"
	"strings"
)

// StandardSlides is the canonical pitch-deck outline, in presentation order.
// Bulk generation groups generated fragments into these slots.
var StandardSlides = []string{
	"The Problem",
	"Our Solution",
	"Product Demo",
	"Market Opportunity",
	"Traction",
	"Customer Love",
	"Competitive Landscape",
	"Business Model",
	"Financial Projections",
	"Go-to-Market Strategy",
	"Team",
	"Funding Ask",
	"Thank You",
}

// Slide is one deck slide. Title, Content and Design are the aggregate
// fields; Blocks is the fine-grained layout when the block editor has been
// used. ImageURL and VideoURL are mutually exclusive.
type Slide struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Design   string   `json:"design,omitempty"`
	Blocks   []Block  `json:"blocks,omitempty"`
	Visuals  []Visual `json:"visuals,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	VideoURL string   `json:"videoUrl,omitempty"`
	Theme    string   `json:"theme,omitempty"`
}

// SetImageURL attaches an image and clears any video.
func (s *Slide) SetImageURL(url string) {
	s.ImageURL = url
	if url != "" {
		s.VideoURL = ""
	}
}

// SetVideoURL attaches a video and clears any image.
func (s *Slide) SetVideoURL(url string) {
	s.VideoURL = url
	if url != "" {
		s.ImageURL = ""
	}
}

// Clone returns a deep copy of the slide.
func (s Slide) Clone() Slide {
	out := s
	out.Blocks = CloneBlocks(s.Blocks)
	if s.Visuals != nil {
		out.Visuals = make([]Visual, len(s.Visuals))
		for i, v := range s.Visuals {
			out.Visuals[i] = v.Clone()
		}
	}
	return out
}

// NotAnalyzed is the sentinel rating for a deck that has not been scored.
const NotAnalyzed = "Not analyzed"

// Metrics is the analysis scorecard for a deck.
type Metrics struct {
	Score           float64 `json:"score"`
	NarrativeFlow   string  `json:"narrative_flow"`
	VisualDesign    string  `json:"visual_design"`
	DataCredibility string  `json:"data_credibility"`
}

// UnanalyzedMetrics returns the scorecard shown before any analysis ran,
// and after a failed one.
func UnanalyzedMetrics() Metrics {
	return Metrics{
		Score:           0,
		NarrativeFlow:   NotAnalyzed,
		VisualDesign:    NotAnalyzed,
		DataCredibility: NotAnalyzed,
	}
}

// Rating scales the analyzer picks from, worst to best.
var (
	NarrativeFlowScale   = []string{"Really Weak", "Weak", "Medium", "Strong", "Very Strong"}
	VisualDesignScale    = []string{"Amateur", "Basic", "Decent", "Polished", "Professional"}
	DataCredibilityScale = []string{"Low", "Average", "High"}
)

// Deck is the full document: slides plus the deck-level analysis state.
type Deck struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Slides      []Slide `json:"slides"`
	Metrics     Metrics `json:"metrics"`
	Feedback    string  `json:"feedback,omitempty"`
}

// NewDeck returns an empty deck with unanalyzed metrics.
func NewDeck(title, description string) *Deck {
	return &Deck{
		Title:       title,
		Description: description,
		Metrics:     UnanalyzedMetrics(),
	}
}

// Clone returns a deep copy of the deck.
func (d *Deck) Clone() *Deck {
	out := *d
	if d.Slides != nil {
		out.Slides = make([]Slide, len(d.Slides))
		for i, s := range d.Slides {
			out.Slides[i] = s.Clone()
		}
	}
	return &out
}

// MatchStandardSlide finds the first standard slide whose title appears in
// the fragment, case-insensitively.
func MatchStandardSlide(fragment string) (string, bool) {
	lower := strings.ToLower(fragment)
	for _, title := range StandardSlides {
		if strings.Contains(lower, strings.ToLower(title)) {
			return title, true
		}
	}
	return "", false
}

var titleStripRes = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(StandardSlides))
	for _, title := range StandardSlides {
		m[title] = regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(title) + `:?\s*`)
	}
	return m
}()

// StripSlideTitle removes the slide title, with an optional colon, from
// the start of a generated fragment, leaving the body text. Fragments
// that mention the title elsewhere are returned unchanged.
func StripSlideTitle(fragment, title string) string {
	fragment = strings.TrimSpace(fragment)
	re, ok := titleStripRes[title]
	if !ok {
		re = regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(title) + `:?\s*`)
	}
	return strings.TrimSpace(re.ReplaceAllString(fragment, ""))
}
