package api

import (
	"context"
	"errors"
	"net/http"

	"luckydraw/domain/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the grand-tier error also matches ErrNoCandidates.
var errorMappings = []errorMapping{
	{services.ErrInvalidPrizeID, http.StatusBadRequest, "INVALID_PRIZE_ID"},
	{services.ErrInvalidOutcomeID, http.StatusBadRequest, "INVALID_RESULT_ID"},
	{services.ErrIdempotencyKeyReused, http.StatusBadRequest, "IDEMPOTENCY_KEY_REUSED"},
	{services.ErrPrizeNotFound, http.StatusNotFound, "PRIZE_NOT_FOUND"},
	{services.ErrOutcomeNotFound, http.StatusNotFound, "RESULT_NOT_FOUND"},
	{services.ErrPrizeInactive, http.StatusConflict, "PRIZE_INACTIVE"},
	{services.ErrPrizeExhausted, http.StatusConflict, "PRIZE_EXHAUSTED"},
	{services.ErrOutcomeAlreadyVoided, http.StatusConflict, "RESULT_ALREADY_REDRAWN"},
	{services.ErrNoCheckedInParticipants, http.StatusConflict, "NO_CHECKED_IN_PARTICIPANTS"},
	{services.ErrNoCandidates, http.StatusConflict, "NO_CANDIDATES"},
	{services.ErrStockRaceLost, http.StatusConflict, "STOCK_RACE_LOST"},
	{services.ErrWinnerConflict, http.StatusConflict, "WINNER_CONFLICT"},
	{services.ErrDuplicateRequest, http.StatusConflict, "DUPLICATE_REQUEST"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
}

// writeError maps err onto a status code and error body
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{
				Error:     m.target.Error(),
				Code:      m.code,
				Retryable: services.IsRetryable(err),
			})
			return
		}
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal error",
		Code:  "INTERNAL_ERROR",
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: code})
}
