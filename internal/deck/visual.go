package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// VisualKind enumerates the supported chart and table kinds.
type VisualKind string

const (
	VisualPie     VisualKind = "pie"
	VisualBar     VisualKind = "bar"
	VisualLine    VisualKind = "line"
	VisualScatter VisualKind = "scatter"
	VisualTable   VisualKind = "table"
)

// ErrUnknownVisualKind is returned when a visual names a kind outside the
// supported set.
var ErrUnknownVisualKind = errors.New("unknown visual kind")

// Visual is a chart or table embedded in a slide. Data is shaped by Kind:
// pie/bar/line carry named value points, scatter carries x/y points and
// table carries columns plus rows.
type Visual struct {
	Kind   VisualKind      `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Config map[string]any  `json:"config,omitempty"`
}

// ChartPoint is one labelled value in a pie, bar or line dataset.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ScatterPoint is one x/y pair in a scatter dataset.
type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TableData is a column header list plus string rows.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Validate checks that the kind is known and that any payload decodes into
// the shape that kind requires.
func (v Visual) Validate() error {
	switch v.Kind {
	case VisualPie, VisualBar, VisualLine:
		if len(v.Data) == 0 {
			return nil
		}
		var points []ChartPoint
		if err := json.Unmarshal(v.Data, &points); err != nil {
			return fmt.Errorf("%s visual data: %w", v.Kind, err)
		}
		return nil
	case VisualScatter:
		if len(v.Data) == 0 {
			return nil
		}
		var points []ScatterPoint
		if err := json.Unmarshal(v.Data, &points); err != nil {
			return fmt.Errorf("scatter visual data: %w", err)
		}
		return nil
	case VisualTable:
		if len(v.Data) == 0 {
			return nil
		}
		var table TableData
		if err := json.Unmarshal(v.Data, &table); err != nil {
			return fmt.Errorf("table visual data: %w", err)
		}
		for i, row := range table.Rows {
			if len(row) != len(table.Columns) {
				return fmt.Errorf("table visual data: row %d has %d cells, want %d", i, len(row), len(table.Columns))
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVisualKind, v.Kind)
	}
}

// Clone returns a deep copy of the visual.
func (v Visual) Clone() Visual {
	out := v
	if v.Data != nil {
		out.Data = append(json.RawMessage(nil), v.Data...)
	}
	if v.Config != nil {
		cfg := make(map[string]any, len(v.Config))
		for k, val := range v.Config {
			cfg[k] = val
		}
		out.Config = cfg
	}
	return out
}

// SampleData returns the deterministic placeholder dataset for a kind,
// used when a visual is inserted before real data exists.
func SampleData(kind VisualKind) (json.RawMessage, error) {
	var payload any
	switch kind {
	case VisualPie:
		payload = []ChartPoint{
			{Name: "Founders", Value: 60},
			{Name: "Investors", Value: 20},
			{Name: "ESOP", Value: 20},
		}
	case VisualBar:
		payload = []ChartPoint{
			{Name: "Q1", Value: 100},
			{Name: "Q2", Value: 300},
			{Name: "Q3", Value: 700},
			{Name: "Q4", Value: 1200},
		}
	case VisualLine:
		payload = []ChartPoint{
			{Name: "Jan", Value: 30},
			{Name: "Feb", Value: 45},
			{Name: "Mar", Value: 60},
			{Name: "Apr", Value: 80},
		}
	case VisualScatter:
		payload = []ScatterPoint{
			{X: 10, Y: 20}, {X: 25, Y: 40}, {X: 40, Y: 30}, {X: 55, Y: 60},
		}
	case VisualTable:
		payload = TableData{
			Columns: []string{"Feature", "Status", "ETA"},
			Rows: [][]string{
				{"User Onboarding", "Complete", "N/A"},
				{"AI Suggestions", "In Progress", "Q3"},
				{"Team Collaboration", "Planned", "Q4"},
			},
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVisualKind, kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal sample data: %w", err)
	}
	return data, nil
}

// NewSampleVisual builds a visual of the given kind seeded with the
// placeholder dataset.
func NewSampleVisual(kind VisualKind) (Visual, error) {
	data, err := SampleData(kind)
	if err != nil {
		return Visual{}, err
	}
	return Visual{Kind: kind, Data: data}, nil
}

var visualIntentPatterns = []struct {
	kind VisualKind
	re   *regexp.Regexp
}{
	{VisualPie, regexp.MustCompile(`(?i)pie chart`)},
	{VisualBar, regexp.MustCompile(`(?i)bar (graph|chart)`)},
	{VisualLine, regexp.MustCompile(`(?i)line (graph|chart)`)},
	{VisualScatter, regexp.MustCompile(`(?i)scatter ?(plot|chart)`)},
	{VisualTable, regexp.MustCompile(`(?i)table`)},
}

// DetectVisualKind classifies free text that asks for a chart or table.
// The first matching pattern wins; ok is false when nothing matches.
func DetectVisualKind(text string) (VisualKind, bool) {
	for _, p := range visualIntentPatterns {
		if p.re.MatchString(text) {
			return p.kind, true
		}
	}
	return "", false
}
