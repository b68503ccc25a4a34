package gateway

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchcraft/deck-orchestrator/internal/auth"
	"github.com/pitchcraft/deck-orchestrator/internal/orchestration"
)

const eventPingInterval = 30 * time.Second

// EventStreamer pushes deck lifecycle events to editor clients over
// WebSocket.
type EventStreamer struct {
	manager  *orchestration.Manager
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// NewEventStreamer creates a WebSocket streamer over the session manager.
func NewEventStreamer(manager *orchestration.Manager) *EventStreamer {
	return &EventStreamer{
		manager: manager,
		tracer:  otel.Tracer("deck-event-streamer"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper CORS origin checking for production
				origin := r.Header.Get("Origin")
				log.Printf(`{"level":"info","message":"WebSocket connection","origin":"%s"}`, origin)
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// StreamDeckEvents handles WebSocket /api/ws/deck
// @Summary Stream deck events
// @Description WebSocket endpoint streaming deck generation, analysis and edit events for the session
// @Tags events
// @Param token query string false "Session token (WebSocket clients cannot set headers)"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /ws/deck [get]
func (s *EventStreamer) StreamDeckEvents(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "event_streamer.stream_deck_events")
	defer span.End()

	sessionID := auth.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not authenticated"})
		return
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	svc, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"error","message":"Failed to load session for event stream","session_id":"%s","error":"%v"}`, sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"error","message":"Failed to upgrade connection","session_id":"%s","error":"%v"}`, sessionID, err)
		return
	}
	defer conn.Close()

	events := svc.Events().Subscribe()
	defer svc.Events().Unsubscribe(events)

	errChan := make(chan error, 2)

	// Client -> server is ignored, reads only detect the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				errChan <- err
				return
			}
		}
	}()

	// Events -> client, with periodic pings to keep idle connections open.
	go func() {
		ticker := time.NewTicker(eventPingInterval)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					errChan <- nil
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					errChan <- err
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					errChan <- err
					return
				}
			}
		}
	}()

	err = <-errChan
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"Event stream closed with error","session_id":"%s","error":"%v"}`, sessionID, err)
	}

	log.Printf(`{"level":"info","message":"Event stream closed","session_id":"%s"}`, sessionID)
}
