package api

import (
	"net/http"
	"strings"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/events"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SSE event names consumed by the stage display
const (
	StreamEventWinner = "lucky-draw:winner"
	StreamEventReset  = "lucky-draw:reset"
	streamEventPing   = "ping"
)

const streamHeartbeat = 15 * time.Second

// EventStream hands out live event subscriptions
type EventStream interface {
	Listen() (<-chan events.Event, func())
}

// LuckyDrawHandler serves the admin lucky draw endpoints
type LuckyDrawHandler struct {
	engine interfaces.LuckyDrawService
	stream EventStream
}

// NewLuckyDrawHandler creates a new handler
func NewLuckyDrawHandler(engine interfaces.LuckyDrawService, stream EventStream) *LuckyDrawHandler {
	return &LuckyDrawHandler{engine: engine, stream: stream}
}

// StartDrawRequest is the body of POST /lucky-draw/start
type StartDrawRequest struct {
	PrizeID        string `json:"prizeId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// RedrawRequest is the body of POST /lucky-draw/redraw
type RedrawRequest struct {
	ResultID string `json:"resultId"`
}

// StartDraw handles POST /api/admin/lucky-draw/start
func (h *LuckyDrawHandler) StartDraw(c *gin.Context) {
	var req StartDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_BODY", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.PrizeID) == "" {
		badRequest(c, "INVALID_PRIZE_ID", "prizeId is required")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	detail, err := h.engine.Draw(c.Request.Context(), entities.DrawRequest{
		PrizeID:        req.PrizeID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": detail})
}

// Redraw handles POST /api/admin/lucky-draw/redraw
func (h *LuckyDrawHandler) Redraw(c *gin.Context) {
	var req RedrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_BODY", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.ResultID) == "" {
		badRequest(c, "INVALID_RESULT_ID", "resultId is required")
		return
	}

	detail, err := h.engine.Redraw(c.Request.Context(), req.ResultID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Results handles GET /api/admin/lucky-draw/results
func (h *LuckyDrawHandler) Results(c *gin.Context) {
	views, err := h.engine.ListOutcomes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if views == nil {
		views = []*entities.OutcomeView{}
	}
	c.JSON(http.StatusOK, views)
}

// History handles GET /api/admin/lucky-draw/history
func (h *LuckyDrawHandler) History(c *gin.Context) {
	views, err := h.engine.ListOutcomeHistory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if views == nil {
		views = []*entities.OutcomeView{}
	}
	c.JSON(http.StatusOK, views)
}

// ResetPrizes handles POST /api/admin/prizes/reset
func (h *LuckyDrawHandler) ResetPrizes(c *gin.Context) {
	result, err := h.engine.ResetPool(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

// Stream handles GET /api/admin/lucky-draw/stream as server-sent events
func (h *LuckyDrawHandler) Stream(c *gin.Context) {
	ch, stop := h.stream.Listen()
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			c.SSEvent(streamEventPing, time.Now().UTC().Format(time.RFC3339))
		case event, ok := <-ch:
			if !ok {
				return
			}
			switch e := event.(type) {
			case events.OutcomeProducedEvent:
				c.SSEvent(StreamEventWinner, e)
			case events.PoolResetEvent:
				c.SSEvent(StreamEventReset, e)
			default:
				log.WithField("eventType", event.Type()).Debug("Skipping event on display stream")
				continue
			}
		}
		c.Writer.Flush()
	}
}

// Health handles GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
