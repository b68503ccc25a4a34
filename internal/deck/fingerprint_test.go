package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	slides := []Slide{
		{Title: "The Problem", Content: "Shipping is slow", Design: "minimal"},
		{Title: "Our Solution", Content: "Faster shipping"},
	}

	assert.Equal(t, Fingerprint(slides), Fingerprint(slides))
	assert.Equal(t, "The Problem:Shipping is slow:minimal|Our Solution:Faster shipping:", Fingerprint(slides))
}

func TestFingerprintIgnoresLayoutAndMedia(t *testing.T) {
	base := []Slide{{Title: "Traction", Content: "Up 40%", Design: "bold"}}
	fp := Fingerprint(base)

	moved := []Slide{base[0].Clone()}
	moved[0].Blocks = SynthesizeGeneratedBlocks([]string{"Up 40%"})
	moved[0].ImageURL = "https://cdn.example.com/chart.png"
	assert.Equal(t, fp, Fingerprint(moved))
	assert.False(t, IsStale(moved, fp))
}

func TestIsStale(t *testing.T) {
	slides := []Slide{{Title: "Team", Content: "Two founders"}}
	fp := Fingerprint(slides)
	assert.False(t, IsStale(slides, fp))

	slides[0].Content = "Three founders"
	assert.True(t, IsStale(slides, fp))

	assert.True(t, IsStale(slides, ""))
	assert.False(t, IsStale(nil, Fingerprint(nil)))
}
