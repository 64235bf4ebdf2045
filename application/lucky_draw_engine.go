package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/services"

	log "github.com/sirupsen/logrus"
)

// Operation names used for logging and metrics
const (
	OperationDraw      = "draw"
	OperationRedraw    = "redraw"
	OperationList      = "list_outcomes"
	OperationHistory   = "list_history"
	OperationResetPool = "reset_pool"
)

const (
	defaultDrawAttempts = 3
	defaultDrawTimeout  = 10 * time.Second
)

// EngineConfig tunes the lucky draw engine
type EngineConfig struct {
	MaxDrawAttempts       int
	DrawTimeout           time.Duration
	RedrawAllowSameWinner bool
}

// LuckyDrawEngine runs each draw operation in its own unit of work.
// It retries draws that lost a winner conflict to a concurrent draw. A lost stock race is
// only followed by a replay of the request's idempotency key, never by a second draw attempt.
type LuckyDrawEngine struct {
	uowFactory UnitOfWorkFactory
	config     EngineConfig
	picker     services.IndexPicker
	metrics    DrawMetrics
}

// EngineOption customises a LuckyDrawEngine
type EngineOption func(*LuckyDrawEngine)

// WithPicker replaces the default crypto/rand winner picker
func WithPicker(picker services.IndexPicker) EngineOption {
	return func(e *LuckyDrawEngine) {
		e.picker = picker
	}
}

// WithMetrics attaches a metrics recorder
func WithMetrics(metrics DrawMetrics) EngineOption {
	return func(e *LuckyDrawEngine) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}

// NewLuckyDrawEngine creates a new lucky draw engine
func NewLuckyDrawEngine(uowFactory UnitOfWorkFactory, config EngineConfig, opts ...EngineOption) *LuckyDrawEngine {
	if config.MaxDrawAttempts < 1 {
		config.MaxDrawAttempts = defaultDrawAttempts
	}
	if config.DrawTimeout <= 0 {
		config.DrawTimeout = defaultDrawTimeout
	}

	e := &LuckyDrawEngine{
		uowFactory: uowFactory,
		config:     config,
		picker:     services.CryptoIndexPicker,
		metrics:    noopDrawMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ interfaces.LuckyDrawService = (*LuckyDrawEngine)(nil)

// Draw awards one unit of a prize
func (e *LuckyDrawEngine) Draw(ctx context.Context, req entities.DrawRequest) (*entities.OutcomeDetail, error) {
	start := time.Now()
	var detail *entities.OutcomeDetail
	err := e.retrying(ctx, OperationDraw, func(svc interfaces.LuckyDrawService) error {
		var err error
		detail, err = svc.Draw(ctx, req)
		return err
	})
	if errors.Is(err, services.ErrStockRaceLost) {
		e.metrics.IncStockRaceLost(req.PrizeID)
		if replayed, ok := e.replayAfterStockRace(ctx, req); ok {
			detail, err = replayed, nil
		}
	}
	e.metrics.ObserveOperation(OperationDraw, ResultLabel(err), time.Since(start))

	if err != nil {
		return nil, err
	}
	return detail, nil
}

// replayAfterStockRace looks the idempotency key up once more after a lost stock race.
// The draw that took the last unit may have been a duplicate of this request, in which case
// its outcome is now committed under the same key.
func (e *LuckyDrawEngine) replayAfterStockRace(ctx context.Context, req entities.DrawRequest) (*entities.OutcomeDetail, bool) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.DrawTimeout)
	defer cancel()

	var detail *entities.OutcomeDetail
	err := e.inUnitOfWork(ctx, func(svc interfaces.LuckyDrawService) error {
		var err error
		detail, err = svc.Draw(ctx, req)
		return err
	})
	if err != nil {
		log.WithFields(log.Fields{
			"prizeID": req.PrizeID,
		}).WithError(err).Debug("No committed draw to replay after stock race")
		return nil, false
	}

	log.WithFields(log.Fields{
		"prizeID":   req.PrizeID,
		"outcomeID": detail.Outcome.ID,
	}).Info("Stock race lost to a duplicate request, replayed its outcome")
	return detail, true
}

// Redraw voids an outcome and awards its unit to someone else
func (e *LuckyDrawEngine) Redraw(ctx context.Context, outcomeID string) (*entities.OutcomeDetail, error) {
	start := time.Now()
	var detail *entities.OutcomeDetail
	err := e.retrying(ctx, OperationRedraw, func(svc interfaces.LuckyDrawService) error {
		var err error
		detail, err = svc.Redraw(ctx, outcomeID)
		return err
	})
	e.metrics.ObserveOperation(OperationRedraw, ResultLabel(err), time.Since(start))

	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListOutcomes returns live outcomes, newest first
func (e *LuckyDrawEngine) ListOutcomes(ctx context.Context) ([]*entities.OutcomeView, error) {
	var views []*entities.OutcomeView
	err := e.once(ctx, OperationList, func(svc interfaces.LuckyDrawService) error {
		var err error
		views, err = svc.ListOutcomes(ctx)
		return err
	})
	return views, err
}

// ListOutcomeHistory returns every outcome including voided ones, oldest first
func (e *LuckyDrawEngine) ListOutcomeHistory(ctx context.Context) ([]*entities.OutcomeView, error) {
	var views []*entities.OutcomeView
	err := e.once(ctx, OperationHistory, func(svc interfaces.LuckyDrawService) error {
		var err error
		views, err = svc.ListOutcomeHistory(ctx)
		return err
	})
	return views, err
}

// ResetPool restores all stock and purges the outcome log
func (e *LuckyDrawEngine) ResetPool(ctx context.Context) (*entities.ResetResult, error) {
	var result *entities.ResetResult
	err := e.once(ctx, OperationResetPool, func(svc interfaces.LuckyDrawService) error {
		var err error
		result, err = svc.ResetPool(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// retrying runs fn in fresh units of work until it stops losing winner conflicts.
// A duplicate idempotency key is retried too: the next attempt replays the committed draw.
func (e *LuckyDrawEngine) retrying(ctx context.Context, operation string, fn func(interfaces.LuckyDrawService) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.DrawTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= e.config.MaxDrawAttempts; attempt++ {
		err = e.inUnitOfWork(ctx, fn)
		if err == nil || !isConflict(err) {
			break
		}

		e.metrics.IncWinnerConflict(operation)
		log.WithFields(log.Fields{
			"operation":   operation,
			"attempt":     attempt,
			"maxAttempts": e.config.MaxDrawAttempts,
		}).WithError(err).Warn("Draw conflicted with a concurrent draw, retrying")

		if ctx.Err() != nil {
			err = fmt.Errorf("%s timed out after %d attempts: %w", operation, attempt, err)
			break
		}
	}
	return err
}

func (e *LuckyDrawEngine) once(ctx context.Context, operation string, fn func(interfaces.LuckyDrawService) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.config.DrawTimeout)
	defer cancel()

	err := e.inUnitOfWork(ctx, fn)
	e.metrics.ObserveOperation(operation, ResultLabel(err), time.Since(start))
	return err
}

func (e *LuckyDrawEngine) inUnitOfWork(ctx context.Context, fn func(interfaces.LuckyDrawService) error) error {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewLuckyDrawService(
		uow.PrizeRepository(),
		uow.ParticipantRepository(),
		uow.OutcomeRepository(),
		uow.DrawRequestRepository(),
		uow.EventBus(),
		services.WithIndexPicker(e.picker),
		services.WithRedrawAllowSameWinner(e.config.RedrawAllowSameWinner),
	)

	if err := fn(svc); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isConflict(err error) bool {
	return errors.Is(err, services.ErrWinnerConflict) || errors.Is(err, services.ErrDuplicateRequest)
}

// ResultLabel maps an engine error to a low-cardinality label
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, services.ErrInvalidPrizeID),
		errors.Is(err, services.ErrInvalidOutcomeID),
		errors.Is(err, services.ErrIdempotencyKeyReused):
		return "invalid"
	case errors.Is(err, services.ErrPrizeNotFound), errors.Is(err, services.ErrOutcomeNotFound):
		return "not_found"
	case errors.Is(err, services.ErrPrizeInactive):
		return "inactive"
	case errors.Is(err, services.ErrPrizeExhausted):
		return "exhausted"
	case errors.Is(err, services.ErrOutcomeAlreadyVoided):
		return "already_voided"
	case errors.Is(err, services.ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, services.ErrStockRaceLost):
		return "stock_race_lost"
	case isConflict(err):
		return "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
