package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/pitchcraft/deck-orchestrator/internal/auth"
	"github.com/pitchcraft/deck-orchestrator/internal/gateway"
	"github.com/pitchcraft/deck-orchestrator/internal/generation"
	"github.com/pitchcraft/deck-orchestrator/internal/metrics"
	"github.com/pitchcraft/deck-orchestrator/internal/orchestration"
	"github.com/pitchcraft/deck-orchestrator/internal/session"

	_ "github.com/pitchcraft/deck-orchestrator/docs" // swagger docs
)

// @title Deck Orchestrator API
// @version 1.0
// @description Pitch deck editor backend for AI-assisted deck generation
// @description
// @description This API manages per-session pitch decks: bulk generation, per-slide
// @description content and design actions, block-level editing, analysis scoring and export.

// @contact.name API Support
// @contact.email support@pitchcraft.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// Initialize OpenTelemetry
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// Session state lives in Postgres when DATABASE_URL is set, otherwise
	// in a local JSON file.
	var store session.Store
	var pool *pgxpool.Pool

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		log.Println("Connecting to PostgreSQL database...")
		var err error

		// Add a retry loop for the initial connection
		for i := 0; i < 10; i++ {
			pool, err = pgxpool.New(context.Background(), dbURL)
			if err == nil {
				err = pool.Ping(context.Background())
				if err == nil {
					break
				}
			}
			log.Printf("Waiting for database... (attempt %d/10): %v", i+1, err)
			time.Sleep(3 * time.Second)
		}

		if err != nil {
			log.Fatalf("Failed to connect to database after retries: %v", err)
		}
		defer pool.Close()
		log.Println("Connected to PostgreSQL database")

		pgStore, err := session.NewPostgresStore(context.Background(), pool)
		if err != nil {
			log.Fatalf("Failed to initialize session store: %v", err)
		}
		store = pgStore
	} else {
		dataPath := os.Getenv("SESSION_DATA_PATH")
		if dataPath == "" {
			dataPath = "./data"
		}
		fileStore, err := session.NewFileStore(dataPath)
		if err != nil {
			log.Fatalf("Failed to initialize session store: %v", err)
		}
		store = fileStore
		log.Printf("Using file session store at %s", dataPath)
	}

	// Initialize generation client and orchestration layer
	genClient := generation.NewHTTPClient()
	genMetrics, err := metrics.NewGenerationMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	manager := orchestration.NewManager(store, genClient, genMetrics)

	// Initialize JWT manager
	jwtManager, err := auth.NewJWTManager()
	if err != nil {
		log.Fatalf("Failed to initialize JWT manager: %v", err)
	}

	// Initialize gateway layer
	gatewayHandler := gateway.NewHandler(manager, jwtManager)
	eventStreamer := gateway.NewEventStreamer(manager)

	// Setup Gin router
	router := gin.Default()

	// Add structured JSON logging middleware
	router.Use(structuredLoggingMiddleware())

	// Health checks MUST be at the root for the WebService standard
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		// Readiness tracks the backing store and the generation service
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "not ready",
					"error":  "database connection failed",
				})
				return
			}
		}
		if !genClient.IsHealthy(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "generation service unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// API routes
	api := router.Group("/api")

	// Public routes (no authentication required)
	api.POST("/sessions", gatewayHandler.CreateSession)

	// Health check (public) - keep for backward compatibility
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes (require a session token)
	protected := api.Group("")
	protected.Use(auth.RequireSession(jwtManager))

	// Deck routes
	protected.GET("/deck", gatewayHandler.GetDeck)
	protected.POST("/deck/generate", gatewayHandler.GenerateDeck)
	protected.POST("/deck/analyze", gatewayHandler.AnalyzeDeck)
	protected.GET("/deck/export", gatewayHandler.ExportDeck)
	protected.POST("/deck/save", gatewayHandler.SaveDeck)
	protected.GET("/deck/stats", gatewayHandler.GetStats)

	// Slide routes
	protected.PUT("/deck/slides/:index", gatewayHandler.UpdateSlide)
	protected.POST("/deck/slides/:index/content", gatewayHandler.GenerateSlideContent)
	protected.POST("/deck/slides/:index/design", gatewayHandler.GenerateSlideDesign)
	protected.POST("/deck/slides/:index/generate", gatewayHandler.GenerateSlide)
	protected.POST("/deck/slides/:index/optimize", gatewayHandler.OptimizeSlide)
	protected.POST("/deck/slides/:index/visualize", gatewayHandler.VisualizeSlide)
	protected.POST("/deck/slides/:index/message", gatewayHandler.ImproveSlideMessaging)

	// Block editor routes
	protected.GET("/deck/slides/:index/blocks", gatewayHandler.GetBlocks)
	protected.PUT("/deck/slides/:index/blocks", gatewayHandler.SaveBlocks)
	protected.PUT("/deck/slides/:index/blocks/:block", gatewayHandler.EditBlock)

	// Suggestion routes
	protected.GET("/deck/slides/:index/suggestions", gatewayHandler.GetSuggestions)
	protected.POST("/deck/slides/:index/suggestions/:slot/apply", gatewayHandler.ApplySuggestion)

	// WebSocket routes (authenticated)
	protected.GET("/ws/deck", eventStreamer.StreamDeckEvents)

	// HTTP server configuration
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Increased for synchronous generation calls
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Deck Orchestrator API server on port %s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		// Get session ID from context if available
		sessionID, _ := c.Get(auth.SessionIDKey)

		// Build log entry
		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		// Add session ID if authenticated
		if sessionID != nil {
			logEntry["session_id"] = sessionID
		}

		// Add error if present
		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		// Output as JSON
		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}
