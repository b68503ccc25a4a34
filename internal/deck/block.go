package deck

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockType discriminates the block union on the wire.
type BlockType string

const (
	BlockTypeText   BlockType = "text"
	BlockTypeVisual BlockType = "visual"
)

// Position is a block's top-left offset on the slide canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a block's bounding box.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Block is one positioned element on a slide. Text blocks carry content,
// visual blocks carry an embedded Visual. The ID is assigned at creation
// and never changes across edits.
type Block struct {
	ID         string    `json:"id"`
	Type       BlockType `json:"type"`
	Position   Position  `json:"position"`
	Size       Size      `json:"size"`
	Content    string    `json:"content,omitempty"`
	IsEditable bool      `json:"isEditable,omitempty"`
	Visual     *Visual   `json:"visual,omitempty"`
}

// NewTextBlock creates an editable text block with a fresh ID.
func NewTextBlock(content string, pos Position, size Size) Block {
	return Block{
		ID:         fmt.Sprintf("text-%s", uuid.New().String()),
		Type:       BlockTypeText,
		Position:   pos,
		Size:       size,
		Content:    content,
		IsEditable: true,
	}
}

// NewVisualBlock creates a block wrapping the given visual with a fresh ID.
func NewVisualBlock(v Visual, pos Position, size Size) Block {
	return Block{
		ID:       fmt.Sprintf("visual-%s", uuid.New().String()),
		Type:     BlockTypeVisual,
		Position: pos,
		Size:     size,
		Visual:   &v,
	}
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	if b.Visual != nil {
		v := b.Visual.Clone()
		out.Visual = &v
	}
	return out
}

// Validate checks the block's variant shape. Text blocks must not carry a
// visual payload, visual blocks must carry a valid one.
func (b Block) Validate() error {
	switch b.Type {
	case BlockTypeText:
		if b.Visual != nil {
			return fmt.Errorf("text block %s carries a visual payload", b.ID)
		}
		return nil
	case BlockTypeVisual:
		if b.Visual == nil {
			return fmt.Errorf("visual block %s has no visual payload", b.ID)
		}
		if err := b.Visual.Validate(); err != nil {
			return fmt.Errorf("visual block %s: %w", b.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown block type %q", b.Type)
	}
}

// CloneBlocks deep-copies a block list. A nil input stays nil.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}
