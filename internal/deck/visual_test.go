package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualValidate(t *testing.T) {
	tests := []struct {
		name        string
		visual      Visual
		expectedErr string
	}{
		{
			name:   "valid pie",
			visual: Visual{Kind: VisualPie, Data: json.RawMessage(`[{"name":"A","value":10}]`)},
		},
		{
			name:   "valid scatter",
			visual: Visual{Kind: VisualScatter, Data: json.RawMessage(`[{"x":1,"y":2}]`)},
		},
		{
			name:   "valid table",
			visual: Visual{Kind: VisualTable, Data: json.RawMessage(`{"columns":["a","b"],"rows":[["1","2"]]}`)},
		},
		{
			name:   "empty data allowed",
			visual: Visual{Kind: VisualBar},
		},
		{
			name:        "unknown kind",
			visual:      Visual{Kind: "gauge"},
			expectedErr: "unknown visual kind",
		},
		{
			name:        "chart data wrong shape",
			visual:      Visual{Kind: VisualLine, Data: json.RawMessage(`{"not":"a list"}`)},
			expectedErr: "line visual data",
		},
		{
			name:        "table row width mismatch",
			visual:      Visual{Kind: VisualTable, Data: json.RawMessage(`{"columns":["a","b"],"rows":[["1"]]}`)},
			expectedErr: "row 0 has 1 cells, want 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.visual.Validate()
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVisualValidateUnknownKindSentinel(t *testing.T) {
	err := Visual{Kind: "hologram"}.Validate()
	assert.ErrorIs(t, err, ErrUnknownVisualKind)
}

func TestSampleDataValidPerKind(t *testing.T) {
	kinds := []VisualKind{VisualPie, VisualBar, VisualLine, VisualScatter, VisualTable}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			v, err := NewSampleVisual(kind)
			require.NoError(t, err)
			assert.NoError(t, v.Validate())
			assert.NotEmpty(t, v.Data)
		})
	}

	_, err := SampleData("gauge")
	assert.ErrorIs(t, err, ErrUnknownVisualKind)
}

func TestSampleDataFixedSets(t *testing.T) {
	pie, err := SampleData(VisualPie)
	require.NoError(t, err)
	var points []ChartPoint
	require.NoError(t, json.Unmarshal(pie, &points))
	assert.Equal(t, []ChartPoint{
		{Name: "Founders", Value: 60},
		{Name: "Investors", Value: 20},
		{Name: "ESOP", Value: 20},
	}, points)

	bar, err := SampleData(VisualBar)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bar, &points))
	assert.Equal(t, []ChartPoint{
		{Name: "Q1", Value: 100},
		{Name: "Q2", Value: 300},
		{Name: "Q3", Value: 700},
		{Name: "Q4", Value: 1200},
	}, points)

	table, err := SampleData(VisualTable)
	require.NoError(t, err)
	var td TableData
	require.NoError(t, json.Unmarshal(table, &td))
	assert.Equal(t, []string{"Feature", "Status", "ETA"}, td.Columns)
	require.Len(t, td.Rows, 3)
	assert.Equal(t, []string{"User Onboarding", "Complete", "N/A"}, td.Rows[0])
}

func TestDetectVisualKind(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind VisualKind
		wantOK   bool
	}{
		{"pie", "Add a pie chart of revenue by segment", VisualPie, true},
		{"bar graph", "Show a bar graph comparing competitors", VisualBar, true},
		{"bar chart", "Include a BAR CHART here", VisualBar, true},
		{"line", "A line chart of MRR over time would help", VisualLine, true},
		{"scatter with space", "Plot a scatter plot of CAC vs LTV", VisualScatter, true},
		{"scatter without space", "add a scatterplot", VisualScatter, true},
		{"table", "Summarize projections in a table", VisualTable, true},
		{"none", "Tighten the opening sentence", "", false},
		{"pie before table", "pie chart with a table below", VisualPie, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := DetectVisualKind(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestBlockValidate(t *testing.T) {
	text := NewTextBlock("hello", Position{X: 50, Y: 50}, Size{Width: 500, Height: 80})
	assert.NoError(t, text.Validate())

	visual, err := NewSampleVisual(VisualPie)
	require.NoError(t, err)
	vb := NewVisualBlock(visual, Position{X: 50, Y: 250}, Size{Width: 300, Height: 300})
	assert.NoError(t, vb.Validate())

	vb.Visual = nil
	assert.Error(t, vb.Validate())

	text.Visual = &visual
	assert.Error(t, text.Validate())

	bogus := Block{ID: "x", Type: "sticker"}
	assert.Error(t, bogus.Validate())
}

func TestBlockIDsAreStableAcrossClone(t *testing.T) {
	b := NewTextBlock("hello", Position{X: 50, Y: 50}, Size{Width: 500, Height: 80})
	clone := b.Clone()
	assert.Equal(t, b.ID, clone.ID)

	other := NewTextBlock("hello", Position{X: 50, Y: 50}, Size{Width: 500, Height: 80})
	assert.NotEqual(t, b.ID, other.ID)
}
