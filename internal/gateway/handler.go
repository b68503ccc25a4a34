// Package gateway exposes the editor surface over HTTP: session issue,
// deck reads, generation and analysis triggers, slide mutations and the
// WebSocket event stream.
package gateway

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pitchcraft/deck-orchestrator/internal/auth"
	"github.com/pitchcraft/deck-orchestrator/internal/deck"
	"github.com/pitchcraft/deck-orchestrator/internal/generation"
	"github.com/pitchcraft/deck-orchestrator/internal/orchestration"
)

const sessionTokenTTL = 24 * time.Hour

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	manager    *orchestration.Manager
	jwtManager *auth.JWTManager
}

// NewHandler creates a new gateway handler
func NewHandler(manager *orchestration.Manager, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		manager:    manager,
		jwtManager: jwtManager,
	}
}

// CreateSessionResponse represents a new editor session
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

// CreateSession godoc
// @Summary Create editor session
// @Description Create an anonymous editor session and return its token
// @Tags sessions
// @Produce json
// @Success 201 {object} CreateSessionResponse
// @Failure 500 {object} map[string]string
// @Router /sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	sessionID := uuid.New().String()

	token, err := h.jwtManager.GenerateSessionToken(c.Request.Context(), sessionID, sessionTokenTTL)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to generate session token","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: sessionID,
		Token:     token,
	})
}

// GetDeck godoc
// @Summary Get deck
// @Description Return the session's deck, suggestions and busy flags
// @Tags deck
// @Produce json
// @Success 200 {object} orchestration.Snapshot
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /deck [get]
func (h *Handler) GetDeck(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, svc.Snapshot())
}

// GenerateDeckRequest represents a bulk generation request
type GenerateDeckRequest struct {
	Problem  string `json:"problem" binding:"required"`
	Solution string `json:"solution" binding:"required"`
}

// GenerateDeck godoc
// @Summary Generate deck
// @Description Generate a full deck from a problem/solution pitch
// @Tags deck
// @Accept json
// @Produce json
// @Param request body GenerateDeckRequest true "Pitch"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/generate [post]
func (h *Handler) GenerateDeck(c *gin.Context) {
	var req GenerateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := svc.BulkGenerate(c.Request.Context(), req.Problem, req.Solution); err != nil {
		h.respondError(c, "Failed to generate deck", err)
		return
	}
	c.JSON(http.StatusOK, svc.Snapshot())
}

// AnalyzeDeckRequest represents an analysis request
type AnalyzeDeckRequest struct {
	GetFeedback bool `json:"get_feedback"`
}

// AnalyzeDeck godoc
// @Summary Analyze deck
// @Description Score the deck; optionally produce written feedback
// @Tags deck
// @Accept json
// @Produce json
// @Param request body AnalyzeDeckRequest true "Analysis options"
// @Success 200 {object} orchestration.AnalysisResult
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/analyze [post]
func (h *Handler) AnalyzeDeck(c *gin.Context) {
	var req AnalyzeDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	result, err := svc.Analyze(c.Request.Context(), req.GetFeedback)
	if err != nil {
		h.respondError(c, "Failed to analyze deck", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportDeck godoc
// @Summary Export deck
// @Description Render the deck as a PDF or PPT document
// @Tags deck
// @Produce octet-stream
// @Param format query string false "Export format (pdf or ppt)" default(pdf)
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/export [get]
func (h *Handler) ExportDeck(c *gin.Context) {
	format := generation.ExportFormat(c.DefaultQuery("format", "pdf"))
	if format != generation.ExportPDF && format != generation.ExportPPT {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid export format"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	data, err := svc.Export(c.Request.Context(), format)
	if err != nil {
		h.respondError(c, "Failed to export deck", err)
		return
	}

	contentType := "application/pdf"
	filename := "pitch-deck.pdf"
	if format == generation.ExportPPT {
		contentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		filename = "pitch-deck.pptx"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// SaveDeck godoc
// @Summary Save deck
// @Description Persist the deck locally and push it to the remote store
// @Tags deck
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /deck/save [post]
func (h *Handler) SaveDeck(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := svc.SaveDeck(c.Request.Context()); err != nil {
		h.respondError(c, "Failed to save deck", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// GetStats godoc
// @Summary Dashboard statistics
// @Description Report how many decks have been created
// @Tags deck
// @Produce json
// @Success 200 {object} session.Stats
// @Security BearerAuth
// @Router /deck/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}

	stats, err := svc.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to load stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateSlideRequest represents a direct slide update. Fields are applied
// only when present.
type UpdateSlideRequest struct {
	Content  *string `json:"content"`
	Design   *string `json:"design"`
	ImageURL *string `json:"image_url"`
	VideoURL *string `json:"video_url"`
}

// UpdateSlide godoc
// @Summary Update slide
// @Description Set a slide's content, design or media directly
// @Tags slides
// @Accept json
// @Produce json
// @Param index path int true "Slide index"
// @Param request body UpdateSlideRequest true "Fields to update"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index} [put]
func (h *Handler) UpdateSlide(c *gin.Context) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	var req UpdateSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if req.Content != nil {
		if err := svc.UpdateSlideContent(ctx, index, *req.Content); err != nil {
			h.respondError(c, "Failed to update slide", err)
			return
		}
	}
	if req.Design != nil {
		if err := svc.UpdateSlideDesign(ctx, index, *req.Design); err != nil {
			h.respondError(c, "Failed to update slide", err)
			return
		}
	}
	if req.ImageURL != nil || req.VideoURL != nil {
		var image, video string
		if req.ImageURL != nil {
			image = *req.ImageURL
		}
		if req.VideoURL != nil {
			video = *req.VideoURL
		}
		if err := svc.SetSlideMedia(ctx, index, image, video); err != nil {
			h.respondError(c, "Failed to update slide", err)
			return
		}
	}

	c.JSON(http.StatusOK, svc.Snapshot())
}

// GenerateSlideContent godoc
// @Summary Generate slide content
// @Description Generate fresh content for one slide
// @Tags slides
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/content [post]
func (h *Handler) GenerateSlideContent(c *gin.Context) {
	h.slideAction(c, "Failed to generate content", func(svc *orchestration.Service, index int) error {
		return svc.GenerateContent(c.Request.Context(), index)
	})
}

// GenerateSlideDesign godoc
// @Summary Generate slide design
// @Description Generate design suggestions for one slide
// @Tags slides
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/design [post]
func (h *Handler) GenerateSlideDesign(c *gin.Context) {
	h.slideAction(c, "Failed to generate design", func(svc *orchestration.Service, index int) error {
		return svc.GenerateDesign(c.Request.Context(), index)
	})
}

// GenerateSlide godoc
// @Summary Generate slide content and design
// @Description Generate content and design for one slide in one call
// @Tags slides
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/generate [post]
func (h *Handler) GenerateSlide(c *gin.Context) {
	h.slideAction(c, "Failed to generate slide", func(svc *orchestration.Service, index int) error {
		return svc.GenerateBoth(c.Request.Context(), index)
	})
}

// OptimizeSlide godoc
// @Summary Optimize slide for investors
// @Description Rewrite a slide's content for an investor audience
// @Tags slides
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/optimize [post]
func (h *Handler) OptimizeSlide(c *gin.Context) {
	h.slideAction(c, "Failed to optimize slide", func(svc *orchestration.Service, index int) error {
		return svc.OptimizeForInvestors(c.Request.Context(), index)
	})
}

// VisualizeSlide godoc
// @Summary Add data visualization
// @Description Rewrite a slide's content around a data visualization
// @Tags slides
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/visualize [post]
func (h *Handler) VisualizeSlide(c *gin.Context) {
	h.slideAction(c, "Failed to add visualization", func(svc *orchestration.Service, index int) error {
		return svc.AddDataVisualization(c.Request.Context(), index)
	})
}

// ImproveSlideMessaging godoc
// @Summary Improve slide messaging
// @Description Rewrite a slide's content for clearer messaging
// @Tags slides
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {object} orchestration.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/message [post]
func (h *Handler) ImproveSlideMessaging(c *gin.Context) {
	h.slideAction(c, "Failed to improve messaging", func(svc *orchestration.Service, index int) error {
		return svc.ImproveMessaging(c.Request.Context(), index)
	})
}

func (h *Handler) slideAction(c *gin.Context, message string, action func(svc *orchestration.Service, index int) error) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	if err := action(svc, index); err != nil {
		h.respondError(c, message, err)
		return
	}
	c.JSON(http.StatusOK, svc.Snapshot())
}

// GetBlocks godoc
// @Summary Get editor blocks
// @Description Return the block list the fine-grained editor opens with
// @Tags blocks
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {array} deck.Block
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/blocks [get]
func (h *Handler) GetBlocks(c *gin.Context) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	blocks, err := svc.SplitBlocks(index)
	if err != nil {
		h.respondError(c, "Failed to load blocks", err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

// SaveBlocksRequest represents a block-editor save
type SaveBlocksRequest struct {
	Blocks []deck.Block `json:"blocks" binding:"required"`
}

// SaveBlocks godoc
// @Summary Save editor blocks
// @Description Commit a block-editor save back into the slide
// @Tags blocks
// @Accept json
// @Produce json
// @Param index path int true "Slide index"
// @Param request body SaveBlocksRequest true "Block list"
// @Success 200 {object} deck.Slide
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/blocks [put]
func (h *Handler) SaveBlocks(c *gin.Context) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	var req SaveBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	slide, err := svc.SaveBlocks(c.Request.Context(), index, req.Blocks)
	if err != nil {
		h.respondError(c, "Failed to save blocks", err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

// EditBlockRequest represents a single text block edit
type EditBlockRequest struct {
	Content string `json:"content"`
}

// EditBlock godoc
// @Summary Edit one block
// @Description Replace the content of one text block and re-derive the slide aggregates
// @Tags blocks
// @Accept json
// @Produce json
// @Param index path int true "Slide index"
// @Param block path int true "Block index"
// @Param request body EditBlockRequest true "New content"
// @Success 200 {object} deck.Slide
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/blocks/{block} [put]
func (h *Handler) EditBlock(c *gin.Context) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	blockIndex, err := strconv.Atoi(c.Param("block"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid block index"})
		return
	}

	var req EditBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	slide, err := svc.EditBlock(c.Request.Context(), index, blockIndex, req.Content)
	if err != nil {
		h.respondError(c, "Failed to edit block", err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

// GetSuggestions godoc
// @Summary Refresh suggestions
// @Description Fetch a fresh content/design suggestion pair for a slide
// @Tags suggestions
// @Produce json
// @Param index path int true "Slide index"
// @Success 200 {array} orchestration.Suggestion
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/suggestions [get]
func (h *Handler) GetSuggestions(c *gin.Context) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	suggestions, err := svc.RefreshSuggestions(c.Request.Context(), index)
	if err != nil {
		h.respondError(c, "Failed to fetch suggestions", err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// ApplySuggestion godoc
// @Summary Apply suggestion
// @Description Apply the suggestion in a slot to a slide and refill the slot
// @Tags suggestions
// @Produce json
// @Param index path int true "Slide index"
// @Param slot path int true "Suggestion slot"
// @Success 200 {object} orchestration.ApplyResult
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /deck/slides/{index}/suggestions/{slot}/apply [post]
func (h *Handler) ApplySuggestion(c *gin.Context) {
	index, ok := h.slideIndex(c)
	if !ok {
		return
	}

	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid suggestion slot"})
		return
	}

	svc, ok := h.service(c)
	if !ok {
		return
	}

	result, err := svc.ApplySuggestion(c.Request.Context(), index, slot)
	if err != nil {
		// The edit may have landed even when the refill failed.
		if result != nil {
			c.JSON(http.StatusOK, gin.H{"result": result, "warning": err.Error()})
			return
		}
		h.respondError(c, "Failed to apply suggestion", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// service resolves the orchestration service for the authenticated
// session. Writes the error response itself when resolution fails.
func (h *Handler) service(c *gin.Context) (*orchestration.Service, bool) {
	sessionID := auth.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not authenticated"})
		return nil, false
	}

	svc, err := h.manager.Get(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to load session","session_id":"%s","error":"%v"}`, sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return nil, false
	}
	return svc, true
}

func (h *Handler) slideIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slide index"})
		return 0, false
	}
	return index, true
}

func (h *Handler) respondError(c *gin.Context, message string, err error) {
	var verr *orchestration.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	log.Printf(`{"level":"error","message":"%s","path":"%s","error":"%v"}`, message, c.Request.URL.Path, err)
	c.JSON(http.StatusBadGateway, gin.H{"error": message, "details": err.Error()})
}
