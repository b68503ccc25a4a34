package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripParagraphWrapper(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"single wrapper", "<p>Revenue is growing</p>", "Revenue is growing"},
		{"no wrapper", "Revenue is growing", "Revenue is growing"},
		{"nested paragraphs kept", "<p>first</p><p>second</p>", "<p>first</p><p>second</p>"},
		{"inner paragraph kept", "<p>outer <p>inner</p></p>", "<p>outer <p>inner</p></p>"},
		{"unclosed", "<p>dangling", "<p>dangling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripParagraphWrapper(tt.html))
		})
	}
}

func TestDeriveAggregate(t *testing.T) {
	visual, err := NewSampleVisual(VisualBar)
	require.NoError(t, err)

	blocks := []Block{
		NewTextBlock("<p>First point</p>", Position{X: 50, Y: 50}, Size{Width: 500, Height: 80}),
		NewVisualBlock(visual, Position{X: 50, Y: 150}, Size{Width: 300, Height: 300}),
		NewTextBlock("Second point", Position{X: 50, Y: 250}, Size{Width: 500, Height: 80}),
		NewTextBlock("   ", Position{X: 50, Y: 350}, Size{Width: 500, Height: 80}),
	}

	content, visuals := DeriveAggregate(blocks)
	assert.Equal(t, "First point\n\nSecond point", content)
	require.Len(t, visuals, 1)
	assert.Equal(t, VisualBar, visuals[0].Kind)
}

func TestDeriveAggregateEmpty(t *testing.T) {
	content, visuals := DeriveAggregate(nil)
	assert.Empty(t, content)
	assert.Empty(t, visuals)
}

func TestSplitThenDeriveRoundTrip(t *testing.T) {
	visual, err := NewSampleVisual(VisualLine)
	require.NoError(t, err)

	s := Slide{
		Title:   "Financial Projections",
		Content: "ARR reaches $5M in year three",
		Visuals: []Visual{visual},
	}

	blocks := SplitForBlockEditor(s)
	require.Len(t, blocks, 3)
	assert.Equal(t, s.Title, blocks[0].Content)
	assert.Equal(t, s.Content, blocks[1].Content)
	assert.Equal(t, BlockTypeVisual, blocks[2].Type)

	// Dropping the synthesized title block, the remaining blocks reproduce
	// the aggregate fields.
	content, visuals := DeriveAggregate(blocks[1:])
	assert.Equal(t, s.Content, content)
	require.Len(t, visuals, 1)
	assert.Equal(t, VisualLine, visuals[0].Kind)
}

func TestSplitForBlockEditorLayout(t *testing.T) {
	v1, err := NewSampleVisual(VisualPie)
	require.NoError(t, err)
	v2, err := NewSampleVisual(VisualTable)
	require.NoError(t, err)

	s := Slide{Title: "Traction", Content: "Up and to the right", Visuals: []Visual{v1, v2}}
	blocks := SplitForBlockEditor(s)
	require.Len(t, blocks, 4)

	assert.Equal(t, Position{X: 50, Y: 50}, blocks[0].Position)
	assert.Equal(t, Position{X: 50, Y: 150}, blocks[1].Position)
	assert.Equal(t, Position{X: 50, Y: 250}, blocks[2].Position)
	assert.Equal(t, Position{X: 50, Y: 350}, blocks[3].Position)
}

func TestSplitForBlockEditorSkipsEmptyContent(t *testing.T) {
	blocks := SplitForBlockEditor(Slide{Title: "Thank You"})
	require.Len(t, blocks, 1)
	assert.Equal(t, "Thank You", blocks[0].Content)
}

func TestApplyBlockEditIsImmutable(t *testing.T) {
	blocks := []Block{
		NewTextBlock("original", Position{X: 50, Y: 50}, Size{Width: 500, Height: 80}),
	}

	edited := ApplyBlockEdit(blocks, 0, "edited")
	assert.Equal(t, "original", blocks[0].Content)
	assert.Equal(t, "edited", edited[0].Content)
	assert.Equal(t, blocks[0].ID, edited[0].ID)
}

func TestApplyBlockEditIgnoresVisualAndOutOfRange(t *testing.T) {
	visual, err := NewSampleVisual(VisualPie)
	require.NoError(t, err)
	blocks := []Block{
		NewVisualBlock(visual, Position{X: 50, Y: 50}, Size{Width: 300, Height: 300}),
	}

	edited := ApplyBlockEdit(blocks, 0, "text on a chart")
	assert.Empty(t, edited[0].Content)

	edited = ApplyBlockEdit(blocks, 5, "nope")
	require.Len(t, edited, 1)
}

func TestMergeBlockEditor(t *testing.T) {
	visual, err := NewSampleVisual(VisualScatter)
	require.NoError(t, err)

	s := Slide{Title: "Old Title", Content: "old content", Design: "dark theme"}
	blocks := []Block{
		NewTextBlock("New Title", Position{X: 50, Y: 50}, Size{Width: 500, Height: 60}),
		NewTextBlock("<p>First paragraph</p>", Position{X: 50, Y: 150}, Size{Width: 500, Height: 80}),
		NewTextBlock("Second paragraph", Position{X: 50, Y: 250}, Size{Width: 500, Height: 80}),
		NewVisualBlock(visual, Position{X: 50, Y: 350}, Size{Width: 300, Height: 300}),
	}

	merged := MergeBlockEditor(s, blocks)
	assert.Equal(t, "New Title", merged.Title)
	assert.Equal(t, "First paragraph\n\nSecond paragraph", merged.Content)
	assert.Equal(t, "dark theme", merged.Design)
	require.Len(t, merged.Visuals, 1)
	assert.Equal(t, VisualScatter, merged.Visuals[0].Kind)
	assert.Len(t, merged.Blocks, 4)

	// Source slide untouched.
	assert.Equal(t, "Old Title", s.Title)
}

func TestSynthesizeGeneratedBlocks(t *testing.T) {
	blocks := SynthesizeGeneratedBlocks([]string{"one", "two"})
	require.Len(t, blocks, 2)
	assert.Equal(t, Position{X: 50, Y: 50}, blocks[0].Position)
	assert.Equal(t, Position{X: 50, Y: 150}, blocks[1].Position)
	assert.Equal(t, Size{Width: 500, Height: 80}, blocks[0].Size)
	assert.True(t, blocks[0].IsEditable)

	empty := SynthesizeGeneratedBlocks(nil)
	require.Len(t, empty, 1)
	assert.Empty(t, empty[0].Content)
}
