package deck

import (
	"fmt"
	"strings"
)

// Fingerprint derives a deterministic identity for the deck's analyzed
// content from each slide's title, content and design. Layout, visuals and
// media do not participate, so moving blocks around never invalidates a
// cached analysis.
func Fingerprint(slides []Slide) string {
	parts := make([]string, len(slides))
	for i, s := range slides {
		parts[i] = fmt.Sprintf("%s:%s:%s", s.Title, s.Content, s.Design)
	}
	return strings.Join(parts, "|")
}

// IsStale reports whether the slides have diverged from the fingerprint a
// previous analysis was computed against.
func IsStale(slides []Slide, lastFingerprint string) bool {
	return Fingerprint(slides) != lastFingerprint
}
