package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pitchcraft/deck-orchestrator/internal/auth"
	"github.com/pitchcraft/deck-orchestrator/internal/gateway"
	"github.com/pitchcraft/deck-orchestrator/internal/metrics"
	"github.com/pitchcraft/deck-orchestrator/internal/orchestration"
	"github.com/pitchcraft/deck-orchestrator/internal/session"
)

// TestEnv wires the full API against a file store and a stub generation
// client.
type TestEnv struct {
	Router     *gin.Engine
	Generation *StubGenerationClient
	JWTManager *auth.JWTManager
	Store      session.Store
}

// NewTestEnv builds a routed API identical to the production wiring,
// minus Postgres and the real generation service.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "integration-test-secret")
	gin.SetMode(gin.TestMode)

	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)

	genClient := &StubGenerationClient{}
	genMetrics, err := metrics.NewGenerationMetrics()
	require.NoError(t, err)

	manager := orchestration.NewManager(store, genClient, genMetrics)

	jwtManager, err := auth.NewJWTManager()
	require.NoError(t, err)

	handler := gateway.NewHandler(manager, jwtManager)
	streamer := gateway.NewEventStreamer(manager)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/sessions", handler.CreateSession)

	protected := api.Group("")
	protected.Use(auth.RequireSession(jwtManager))
	protected.GET("/deck", handler.GetDeck)
	protected.POST("/deck/generate", handler.GenerateDeck)
	protected.POST("/deck/analyze", handler.AnalyzeDeck)
	protected.GET("/deck/export", handler.ExportDeck)
	protected.POST("/deck/save", handler.SaveDeck)
	protected.GET("/deck/stats", handler.GetStats)
	protected.PUT("/deck/slides/:index", handler.UpdateSlide)
	protected.POST("/deck/slides/:index/content", handler.GenerateSlideContent)
	protected.POST("/deck/slides/:index/design", handler.GenerateSlideDesign)
	protected.POST("/deck/slides/:index/generate", handler.GenerateSlide)
	protected.POST("/deck/slides/:index/optimize", handler.OptimizeSlide)
	protected.POST("/deck/slides/:index/visualize", handler.VisualizeSlide)
	protected.POST("/deck/slides/:index/message", handler.ImproveSlideMessaging)
	protected.GET("/deck/slides/:index/blocks", handler.GetBlocks)
	protected.PUT("/deck/slides/:index/blocks", handler.SaveBlocks)
	protected.PUT("/deck/slides/:index/blocks/:block", handler.EditBlock)
	protected.GET("/deck/slides/:index/suggestions", handler.GetSuggestions)
	protected.POST("/deck/slides/:index/suggestions/:slot/apply", handler.ApplySuggestion)
	protected.GET("/ws/deck", streamer.StreamDeckEvents)

	return &TestEnv{
		Router:     router,
		Generation: genClient,
		JWTManager: jwtManager,
		Store:      store,
	}
}

// Token mints a session token the way the sessions endpoint does.
func (e *TestEnv) Token(t *testing.T, sessionID string) string {
	t.Helper()
	token, err := e.JWTManager.GenerateSessionToken(context.Background(), sessionID, time.Hour)
	require.NoError(t, err)
	return token
}
