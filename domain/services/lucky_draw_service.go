package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// luckyDrawService implements the draw engine on top of repositories bound to one transaction
type luckyDrawService struct {
	prizeRepo       interfaces.PrizeRepository
	participantRepo interfaces.ParticipantRepository
	outcomeRepo     interfaces.OutcomeRepository
	drawRequestRepo interfaces.DrawRequestRepository
	eventPublisher  interfaces.EventPublisher

	pick            IndexPicker
	allowSameWinner bool
	now             func() time.Time
}

// LuckyDrawOption customises a lucky draw service
type LuckyDrawOption func(*luckyDrawService)

// WithIndexPicker replaces the crypto/rand picker
func WithIndexPicker(pick IndexPicker) LuckyDrawOption {
	return func(s *luckyDrawService) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// WithRedrawAllowSameWinner lets a voided winner be drawn again for the same slot
func WithRedrawAllowSameWinner(allow bool) LuckyDrawOption {
	return func(s *luckyDrawService) {
		s.allowSameWinner = allow
	}
}

// NewLuckyDrawService creates a new lucky draw service
func NewLuckyDrawService(
	prizeRepo interfaces.PrizeRepository,
	participantRepo interfaces.ParticipantRepository,
	outcomeRepo interfaces.OutcomeRepository,
	drawRequestRepo interfaces.DrawRequestRepository,
	eventPublisher interfaces.EventPublisher,
	opts ...LuckyDrawOption,
) interfaces.LuckyDrawService {
	s := &luckyDrawService{
		prizeRepo:       prizeRepo,
		participantRepo: participantRepo,
		outcomeRepo:     outcomeRepo,
		drawRequestRepo: drawRequestRepo,
		eventPublisher:  eventPublisher,
		pick:            CryptoIndexPicker,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draw awards one unit of a prize
func (s *luckyDrawService) Draw(ctx context.Context, req entities.DrawRequest) (*entities.OutcomeDetail, error) {
	prizeID := strings.TrimSpace(req.PrizeID)
	if prizeID == "" {
		return nil, ErrInvalidPrizeID
	}
	key := strings.TrimSpace(req.IdempotencyKey)

	if key != "" {
		record, err := s.drawRequestRepo.GetByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
		if record != nil {
			if record.PrizeID != prizeID {
				return nil, ErrIdempotencyKeyReused
			}
			log.WithFields(log.Fields{
				"prizeID":   prizeID,
				"outcomeID": record.OutcomeID,
			}).Info("Replaying committed draw for idempotency key")
			return s.loadDetail(ctx, record.OutcomeID)
		}
	}

	prize, err := s.prizeRepo.GetByID(ctx, prizeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	if prize == nil {
		return nil, ErrPrizeNotFound
	}
	if !prize.IsActive {
		return nil, ErrPrizeInactive
	}
	if !prize.HasStock() {
		return nil, ErrPrizeExhausted
	}

	eligible, err := s.eligibleFor(ctx, prize.Category)
	if err != nil {
		return nil, err
	}

	winner, err := s.pickWinner(eligible)
	if err != nil {
		return nil, err
	}

	// Must stay a single conditional statement so concurrent draws never oversell.
	taken, err := s.prizeRepo.DecrementRemaining(ctx, prize.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement prize stock: %w", err)
	}
	if !taken {
		return nil, ErrStockRaceLost
	}
	prize.Remaining--

	outcome := &entities.Outcome{
		ID:            uuid.NewString(),
		PrizeID:       prize.ID,
		ParticipantID: winner.ID,
	}
	if err := s.createOutcome(ctx, outcome); err != nil {
		return nil, err
	}

	if key != "" {
		record := &entities.DrawRecord{
			IdempotencyKey: key,
			PrizeID:        prize.ID,
			OutcomeID:      outcome.ID,
		}
		if err := s.drawRequestRepo.Create(ctx, record); err != nil {
			if errors.Is(err, interfaces.ErrDuplicateIdempotencyKey) {
				return nil, fmt.Errorf("%w: %w", ErrDuplicateRequest, err)
			}
			return nil, fmt.Errorf("failed to record idempotency key: %w", err)
		}
	}

	detail := &entities.OutcomeDetail{Outcome: outcome, Participant: winner, Prize: prize}
	s.publish(detail)

	log.WithFields(log.Fields{
		"outcomeID":     outcome.ID,
		"prizeID":       prize.ID,
		"category":      prize.Category,
		"participantID": winner.ID,
		"remaining":     prize.Remaining,
		"eligibleCount": len(eligible),
	}).Info("Prize drawn")

	return detail, nil
}

// Redraw voids an outcome and awards its unit to someone else
func (s *luckyDrawService) Redraw(ctx context.Context, outcomeID string) (*entities.OutcomeDetail, error) {
	outcomeID = strings.TrimSpace(outcomeID)
	if outcomeID == "" {
		return nil, ErrInvalidOutcomeID
	}

	previous, err := s.outcomeRepo.GetByIDForUpdate(ctx, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock outcome: %w", err)
	}
	if previous == nil {
		return nil, ErrOutcomeNotFound
	}
	if previous.IsVoided() {
		return nil, ErrOutcomeAlreadyVoided
	}

	prize, err := s.prizeRepo.GetByID(ctx, previous.PrizeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	if prize == nil {
		return nil, ErrPrizeNotFound
	}
	if !prize.IsActive {
		return nil, ErrPrizeInactive
	}

	voided, err := s.outcomeRepo.Void(ctx, previous.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to void outcome: %w", err)
	}
	if !voided {
		return nil, ErrOutcomeAlreadyVoided
	}

	var excluded []string
	if !s.allowSameWinner {
		excluded = append(excluded, previous.ParticipantID)
	}

	eligible, err := s.eligibleFor(ctx, prize.Category, excluded...)
	if err != nil {
		return nil, err
	}

	winner, err := s.pickWinner(eligible)
	if err != nil {
		return nil, err
	}

	replaces := previous.ID
	outcome := &entities.Outcome{
		ID:                uuid.NewString(),
		PrizeID:           prize.ID,
		ParticipantID:     winner.ID,
		ReplacesOutcomeID: &replaces,
	}
	if err := s.createOutcome(ctx, outcome); err != nil {
		return nil, err
	}

	detail := &entities.OutcomeDetail{Outcome: outcome, Participant: winner, Prize: prize}
	s.publish(detail)

	log.WithFields(log.Fields{
		"outcomeID":         outcome.ID,
		"replacesOutcomeID": previous.ID,
		"prizeID":           prize.ID,
		"previousWinnerID":  previous.ParticipantID,
		"participantID":     winner.ID,
	}).Info("Prize redrawn")

	return detail, nil
}

// ListOutcomes returns live outcomes, newest first
func (s *luckyDrawService) ListOutcomes(ctx context.Context) ([]*entities.OutcomeView, error) {
	views, err := s.outcomeRepo.ListActiveViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	return views, nil
}

// ListOutcomeHistory returns every outcome, voided ones included, oldest first
func (s *luckyDrawService) ListOutcomeHistory(ctx context.Context) ([]*entities.OutcomeView, error) {
	views, err := s.outcomeRepo.ListHistoryViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcome history: %w", err)
	}
	return views, nil
}

// ResetPool restores every prize to full stock and clears the outcome log
func (s *luckyDrawService) ResetPool(ctx context.Context) (*entities.ResetResult, error) {
	restored, err := s.prizeRepo.RestoreAllStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore prize stock: %w", err)
	}

	if _, err := s.drawRequestRepo.PurgeAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to purge draw requests: %w", err)
	}

	purged, err := s.outcomeRepo.PurgeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to purge outcomes: %w", err)
	}

	result := &entities.ResetResult{PrizesRestored: restored, OutcomesPurged: purged}

	if err := s.eventPublisher.Publish(events.PoolResetEvent{
		PrizesRestored: restored,
		OutcomesPurged: purged,
		ResetAt:        s.now().UTC(),
	}); err != nil {
		log.WithError(err).Warn("Failed to queue pool reset event")
	}

	log.WithFields(log.Fields{
		"prizesRestored": restored,
		"outcomesPurged": purged,
	}).Warn("Prize pool reset")

	return result, nil
}

// eligibleFor loads a fresh participant snapshot and resolves who may win the category
func (s *luckyDrawService) eligibleFor(ctx context.Context, category entities.PrizeCategory, excluded ...string) ([]*entities.Participant, error) {
	participants, err := s.participantRepo.List(ctx, entities.ParticipantFilter{
		CheckedInOnly: category.RequiresCheckIn(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	winnerIDs, err := s.outcomeRepo.ListActiveWinnerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list current winners: %w", err)
	}

	return ResolveEligibility(category, participants, winnerIDs, excluded...)
}

func (s *luckyDrawService) pickWinner(eligible []*entities.Participant) (*entities.Participant, error) {
	if len(eligible) == 0 {
		return nil, ErrNoCandidates
	}
	idx, err := s.pick(len(eligible))
	if err != nil {
		return nil, fmt.Errorf("failed to pick winner: %w", err)
	}
	if idx < 0 || idx >= len(eligible) {
		return nil, fmt.Errorf("picker returned index %d outside [0,%d)", idx, len(eligible))
	}
	return eligible[idx], nil
}

func (s *luckyDrawService) createOutcome(ctx context.Context, outcome *entities.Outcome) error {
	if err := s.outcomeRepo.Create(ctx, outcome); err != nil {
		if errors.Is(err, interfaces.ErrParticipantAlreadyWon) {
			return fmt.Errorf("%w: %w", ErrWinnerConflict, err)
		}
		return fmt.Errorf("failed to create outcome: %w", err)
	}
	return nil
}

// publish queues the notification; delivery happens after commit and never fails the draw
func (s *luckyDrawService) publish(detail *entities.OutcomeDetail) {
	if err := s.eventPublisher.Publish(events.NewOutcomeProducedEvent(detail)); err != nil {
		log.WithError(err).WithField("outcomeID", detail.Outcome.ID).Warn("Failed to queue outcome event")
	}
}

// loadDetail rebuilds the detail of a committed outcome
func (s *luckyDrawService) loadDetail(ctx context.Context, outcomeID string) (*entities.OutcomeDetail, error) {
	outcome, err := s.outcomeRepo.GetByID(ctx, outcomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}
	if outcome == nil {
		return nil, ErrOutcomeNotFound
	}

	participant, err := s.participantRepo.GetByID(ctx, outcome.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	prize, err := s.prizeRepo.GetByID(ctx, outcome.PrizeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	if prize == nil {
		return nil, ErrPrizeNotFound
	}

	return &entities.OutcomeDetail{Outcome: outcome, Participant: participant, Prize: prize}, nil
}
