package deck

import "strings"

// Separator used when joining text block contents into aggregate content.
const contentSeparator = "\n\n"

// Block-editor layout constants. Synthesized blocks stack down the left
// edge of the canvas.
const (
	editorColumnX     = 50.0
	editorTitleY      = 50.0
	editorContentY    = 150.0
	editorVisualBaseY = 250.0
	editorRowSpacing  = 100.0
	editorBlockWidth  = 500.0
	editorTextHeight  = 80.0
	editorTitleHeight = 60.0
	editorVisualSize  = 300.0
)

// StripParagraphWrapper removes a single outer <p>...</p> wrapper when the
// inner text contains no further paragraph tags. Nested or multiple
// paragraphs are left untouched.
func StripParagraphWrapper(html string) string {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<p>") || !strings.HasSuffix(trimmed, "</p>") {
		return html
	}
	inner := trimmed[len("<p>") : len(trimmed)-len("</p>")]
	if strings.Contains(inner, "<p>") || strings.Contains(inner, "</p>") {
		return html
	}
	return inner
}

// DeriveAggregate folds a block list back into the slide-level aggregate
// fields: text block contents joined by blank lines, visuals collected in
// block order. Non-text, non-visual blocks are ignored.
func DeriveAggregate(blocks []Block) (string, []Visual) {
	var parts []string
	var visuals []Visual
	for _, b := range blocks {
		switch b.Type {
		case BlockTypeText:
			text := strings.TrimSpace(StripParagraphWrapper(b.Content))
			if text != "" {
				parts = append(parts, text)
			}
		case BlockTypeVisual:
			if b.Visual != nil {
				visuals = append(visuals, b.Visual.Clone())
			}
		}
	}
	return strings.Join(parts, contentSeparator), visuals
}

// SplitForBlockEditor synthesizes the block list the fine-grained editor
// works on: a title block, a content block when content exists, then one
// block per visual.
func SplitForBlockEditor(s Slide) []Block {
	blocks := []Block{
		NewTextBlock(s.Title, Position{X: editorColumnX, Y: editorTitleY}, Size{Width: editorBlockWidth, Height: editorTitleHeight}),
	}
	if strings.TrimSpace(s.Content) != "" {
		blocks = append(blocks, NewTextBlock(s.Content,
			Position{X: editorColumnX, Y: editorContentY},
			Size{Width: editorBlockWidth, Height: editorTextHeight}))
	}
	for i, v := range s.Visuals {
		blocks = append(blocks, NewVisualBlock(v.Clone(),
			Position{X: editorColumnX, Y: editorVisualBaseY + float64(i)*editorRowSpacing},
			Size{Width: editorVisualSize, Height: editorVisualSize}))
	}
	return blocks
}

// ApplyBlockEdit replaces the content of the text block at index and
// returns a new list; the input list and its blocks are not modified.
// Edits addressed at a visual block are ignored.
func ApplyBlockEdit(blocks []Block, index int, content string) []Block {
	out := CloneBlocks(blocks)
	if index < 0 || index >= len(out) {
		return out
	}
	if out[index].Type == BlockTypeText {
		out[index].Content = content
	}
	return out
}

// MergeBlockEditor folds a saved block list back into the slide: the first
// text block becomes the title, remaining text blocks join into content,
// visual blocks replace the slide's visuals. The block list itself is kept
// as the slide's layout.
func MergeBlockEditor(s Slide, blocks []Block) Slide {
	out := s.Clone()

	var texts []string
	var visuals []Visual
	for _, b := range blocks {
		switch b.Type {
		case BlockTypeText:
			texts = append(texts, strings.TrimSpace(StripParagraphWrapper(b.Content)))
		case BlockTypeVisual:
			if b.Visual != nil {
				visuals = append(visuals, b.Visual.Clone())
			}
		}
	}

	if len(texts) > 0 && strings.TrimSpace(texts[0]) != "" {
		out.Title = texts[0]
	}
	if len(texts) > 1 {
		out.Content = strings.Join(texts[1:], contentSeparator)
	} else {
		out.Content = ""
	}
	out.Visuals = visuals
	out.Blocks = CloneBlocks(blocks)
	return out
}

// SynthesizeGeneratedBlocks lays out bulk-generated fragments as stacked
// editable text blocks, one per fragment. An empty fragment list still
// yields a single empty block so the slide stays editable.
func SynthesizeGeneratedBlocks(fragments []string) []Block {
	if len(fragments) == 0 {
		fragments = []string{""}
	}
	blocks := make([]Block, 0, len(fragments))
	for i, content := range fragments {
		blocks = append(blocks, NewTextBlock(content,
			Position{X: editorColumnX, Y: editorTitleY + float64(i)*editorRowSpacing},
			Size{Width: editorBlockWidth, Height: editorTextHeight}))
	}
	return blocks
}
