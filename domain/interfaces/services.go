package interfaces

import (
	"context"

	"luckydraw/domain/entities"
)

// LuckyDrawService defines the draw engine operations.
// The domain implementation runs inside a caller-owned unit of work; the application
// engine exposes the same operations with one unit of work per call.
type LuckyDrawService interface {
	// Draw awards one unit of the prize to a uniformly chosen eligible participant
	Draw(ctx context.Context, req entities.DrawRequest) (*entities.OutcomeDetail, error)

	// Redraw voids an outcome and awards the same unit to a new participant without touching stock
	Redraw(ctx context.Context, outcomeID string) (*entities.OutcomeDetail, error)

	// ListOutcomes returns live outcomes, newest first
	ListOutcomes(ctx context.Context) ([]*entities.OutcomeView, error)

	// ListOutcomeHistory returns all outcomes including voided ones, oldest first
	ListOutcomeHistory(ctx context.Context) ([]*entities.OutcomeView, error)

	// ResetPool restores all stock and purges the outcome log
	ResetPool(ctx context.Context) (*entities.ResetResult, error)
}
