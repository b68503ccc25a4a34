package orchestration

import "sync"

// DeckEvent is one entry in a session's live event stream. Clients watch
// these over WebSocket to follow generation progress.
type DeckEvent struct {
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
}

// Event types emitted by the orchestrator.
const (
	EventDeckGenerated       = "deck.generated"
	EventSlideUpdated        = "slide.updated"
	EventSlideDesignReady    = "slide.design_ready"
	EventSlideDesignFailed   = "slide.design_failed"
	EventAnalysisCompleted   = "analysis.completed"
	EventAnalysisFailed      = "analysis.failed"
	EventSuggestionApplied   = "suggestion.applied"
	EventGenerationFailed    = "generation.failed"
)

// EventBus fans deck events out to any number of subscribers. Slow
// subscribers drop events instead of blocking the orchestrator.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan DeckEvent]struct{}
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan DeckEvent]struct{})}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *EventBus) Subscribe() chan DeckEvent {
	ch := make(chan DeckEvent, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan DeckEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to every subscriber without blocking.
func (b *EventBus) Publish(event DeckEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
