package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/testhelpers"
	"luckydraw/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type luckyDrawMocks struct {
	prizes       *testhelpers.MockPrizeRepository
	participants *testhelpers.MockParticipantRepository
	outcomes     *testhelpers.MockOutcomeRepository
	drawRequests *testhelpers.MockDrawRequestRepository
	publisher    *testhelpers.MockEventPublisher
}

func setupLuckyDrawMocks() *luckyDrawMocks {
	return &luckyDrawMocks{
		prizes:       new(testhelpers.MockPrizeRepository),
		participants: new(testhelpers.MockParticipantRepository),
		outcomes:     new(testhelpers.MockOutcomeRepository),
		drawRequests: new(testhelpers.MockDrawRequestRepository),
		publisher:    new(testhelpers.MockEventPublisher),
	}
}

func (m *luckyDrawMocks) service(opts ...LuckyDrawOption) interfaces.LuckyDrawService {
	return NewLuckyDrawService(m.prizes, m.participants, m.outcomes, m.drawRequests, m.publisher, opts...)
}

func (m *luckyDrawMocks) assertExpectations(t *testing.T) {
	m.prizes.AssertExpectations(t)
	m.participants.AssertExpectations(t)
	m.outcomes.AssertExpectations(t)
	m.drawRequests.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

// pickIndex returns a picker that always chooses idx
func pickIndex(idx int) LuckyDrawOption {
	return WithIndexPicker(func(n int) (int, error) { return idx, nil })
}

func createTestPrize(id string, category entities.PrizeCategory, stock, remaining int, opts ...func(*entities.Prize)) *entities.Prize {
	prize := &entities.Prize{
		ID:        id,
		Name:      "Prize " + id,
		Category:  category,
		Stock:     stock,
		Remaining: remaining,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(prize)
	}
	return prize
}

func createTestParticipant(id string, checkedIn bool) *entities.Participant {
	return &entities.Participant{
		ID:         id,
		EmployeeID: "E-" + id,
		FullName:   "Participant " + id,
		Department: "Engineering",
		CheckedIn:  checkedIn,
	}
}

func stampCreatedAt(args mock.Arguments) {
	args.Get(1).(*entities.Outcome).CreatedAt = time.Now().UTC()
}

func TestLuckyDrawService_Draw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := createTestParticipant("a", true)
	b := createTestParticipant("b", false)
	c := createTestParticipant("c", true)

	tests := []struct {
		name          string
		req           entities.DrawRequest
		picker        int
		setupMocks    func(m *luckyDrawMocks)
		expectedErr   error
		expectWinner  string
		expectRemains int
	}{
		{
			name:   "small prize draws from everyone",
			req:    entities.DrawRequest{PrizeID: "small"},
			picker: 1,
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 2, 2), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{CheckedInOnly: false}).
					Return([]*entities.Participant{a, b, c}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.prizes.On("DecrementRemaining", ctx, "small").Return(true, nil)
				m.outcomes.On("Create", ctx, mock.MatchedBy(func(o *entities.Outcome) bool {
					return o.PrizeID == "small" && o.ParticipantID == "b" && !o.IsRedraw && o.ReplacesOutcomeID == nil && o.ID != ""
				})).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
					ev, ok := e.(events.OutcomeProducedEvent)
					return ok && ev.PrizeID == "small" && ev.ParticipantID == "b" && !ev.IsRedraw()
				})).Return(nil)
			},
			expectWinner:  "b",
			expectRemains: 1,
		},
		{
			name:   "grand prize only considers checked-in participants",
			req:    entities.DrawRequest{PrizeID: "grand"},
			picker: 1,
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "grand").Return(createTestPrize("grand", entities.PrizeCategoryGrand, 1, 1), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{CheckedInOnly: true}).
					Return([]*entities.Participant{a, c}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.prizes.On("DecrementRemaining", ctx, "grand").Return(true, nil)
				m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.AnythingOfType("events.OutcomeProducedEvent")).Return(nil)
			},
			expectWinner:  "c",
			expectRemains: 0,
		},
		{
			name:   "existing winners are skipped",
			req:    entities.DrawRequest{PrizeID: "big"},
			picker: 0,
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "big").Return(createTestPrize("big", entities.PrizeCategoryBig, 5, 3), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a, b, c}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{"a", "b"}, nil)
				m.prizes.On("DecrementRemaining", ctx, "big").Return(true, nil)
				m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.Anything).Return(nil)
			},
			expectWinner:  "c",
			expectRemains: 2,
		},
		{
			name: "publisher failure does not fail the draw",
			req:  entities.DrawRequest{PrizeID: "small"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 1, 1), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.prizes.On("DecrementRemaining", ctx, "small").Return(true, nil)
				m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.Anything).Return(errors.New("bus closed"))
			},
			expectWinner:  "a",
			expectRemains: 0,
		},
		{
			name:        "blank prize id",
			req:         entities.DrawRequest{PrizeID: "   "},
			setupMocks:  func(m *luckyDrawMocks) {},
			expectedErr: ErrInvalidPrizeID,
		},
		{
			name: "prize not found",
			req:  entities.DrawRequest{PrizeID: "missing"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "missing").Return(nil, nil)
			},
			expectedErr: ErrPrizeNotFound,
		},
		{
			name: "inactive prize",
			req:  entities.DrawRequest{PrizeID: "off"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "off").Return(createTestPrize("off", entities.PrizeCategorySmall, 3, 3, func(p *entities.Prize) {
					p.IsActive = false
				}), nil)
			},
			expectedErr: ErrPrizeInactive,
		},
		{
			name: "exhausted prize",
			req:  entities.DrawRequest{PrizeID: "gone"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "gone").Return(createTestPrize("gone", entities.PrizeCategoryMedium, 2, 0), nil)
			},
			expectedErr: ErrPrizeExhausted,
		},
		{
			name: "grand prize with nobody checked in",
			req:  entities.DrawRequest{PrizeID: "grand"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "grand").Return(createTestPrize("grand", entities.PrizeCategoryGrand, 1, 1), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{CheckedInOnly: true}).Return([]*entities.Participant{}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
			},
			expectedErr: ErrNoCheckedInParticipants,
		},
		{
			name: "everyone already won",
			req:  entities.DrawRequest{PrizeID: "small"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 9, 9), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a, b}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{"a", "b"}, nil)
			},
			expectedErr: ErrNoCandidates,
		},
		{
			name: "stock race lost",
			req:  entities.DrawRequest{PrizeID: "small"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 1, 1), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.prizes.On("DecrementRemaining", ctx, "small").Return(false, nil)
			},
			expectedErr: ErrStockRaceLost,
		},
		{
			name: "winner conflict surfaces as retryable",
			req:  entities.DrawRequest{PrizeID: "small"},
			setupMocks: func(m *luckyDrawMocks) {
				m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 2, 2), nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.prizes.On("DecrementRemaining", ctx, "small").Return(true, nil)
				m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Return(interfaces.ErrParticipantAlreadyWon)
			},
			expectedErr: ErrWinnerConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := setupLuckyDrawMocks()
			tt.setupMocks(m)
			svc := m.service(pickIndex(tt.picker))

			detail, err := svc.Draw(ctx, tt.req)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, detail)
			} else {
				require.NoError(t, err)
				require.NotNil(t, detail)
				assert.Equal(t, tt.expectWinner, detail.Participant.ID)
				assert.Equal(t, tt.expectWinner, detail.Outcome.ParticipantID)
				assert.Equal(t, tt.expectRemains, detail.Prize.Remaining)
				assert.False(t, detail.Outcome.CreatedAt.IsZero())
			}

			m.assertExpectations(t)
		})
	}
}

func TestLuckyDrawService_Draw_NoStockChangeOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := setupLuckyDrawMocks()
	m.prizes.On("GetByID", ctx, "grand").Return(createTestPrize("grand", entities.PrizeCategoryGrand, 1, 1), nil)
	m.participants.On("List", ctx, entities.ParticipantFilter{CheckedInOnly: true}).Return([]*entities.Participant{}, nil)
	m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)

	_, err := m.service().Draw(ctx, entities.DrawRequest{PrizeID: "grand"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCandidates)

	m.prizes.AssertNotCalled(t, "DecrementRemaining", mock.Anything, mock.Anything)
	m.outcomes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestLuckyDrawService_Draw_Idempotency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first call records the key", func(t *testing.T) {
		t.Parallel()
		m := setupLuckyDrawMocks()
		m.drawRequests.On("GetByKey", ctx, "req-1").Return(nil, nil)
		m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 1, 1), nil)
		m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{createTestParticipant("a", false)}, nil)
		m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
		m.prizes.On("DecrementRemaining", ctx, "small").Return(true, nil)
		m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
		m.drawRequests.On("Create", ctx, mock.MatchedBy(func(r *entities.DrawRecord) bool {
			return r.IdempotencyKey == "req-1" && r.PrizeID == "small" && r.OutcomeID != ""
		})).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		detail, err := m.service().Draw(ctx, entities.DrawRequest{PrizeID: "small", IdempotencyKey: "req-1"})
		require.NoError(t, err)
		assert.Equal(t, "a", detail.Participant.ID)
		m.assertExpectations(t)
	})

	t.Run("replay returns the committed outcome without drawing", func(t *testing.T) {
		t.Parallel()
		m := setupLuckyDrawMocks()
		committed := &entities.Outcome{ID: "out-1", PrizeID: "small", ParticipantID: "a", CreatedAt: time.Now()}
		m.drawRequests.On("GetByKey", ctx, "req-1").Return(&entities.DrawRecord{IdempotencyKey: "req-1", PrizeID: "small", OutcomeID: "out-1"}, nil)
		m.outcomes.On("GetByID", ctx, "out-1").Return(committed, nil)
		m.participants.On("GetByID", ctx, "a").Return(createTestParticipant("a", false), nil)
		m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 1, 0), nil)

		detail, err := m.service().Draw(ctx, entities.DrawRequest{PrizeID: "small", IdempotencyKey: "req-1"})
		require.NoError(t, err)
		assert.Equal(t, "out-1", detail.Outcome.ID)

		m.prizes.AssertNotCalled(t, "DecrementRemaining", mock.Anything, mock.Anything)
		m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("key reused for another prize", func(t *testing.T) {
		t.Parallel()
		m := setupLuckyDrawMocks()
		m.drawRequests.On("GetByKey", ctx, "req-1").Return(&entities.DrawRecord{IdempotencyKey: "req-1", PrizeID: "small", OutcomeID: "out-1"}, nil)

		_, err := m.service().Draw(ctx, entities.DrawRequest{PrizeID: "big", IdempotencyKey: "req-1"})
		assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
		m.assertExpectations(t)
	})

	t.Run("concurrent duplicate key", func(t *testing.T) {
		t.Parallel()
		m := setupLuckyDrawMocks()
		m.drawRequests.On("GetByKey", ctx, "req-1").Return(nil, nil)
		m.prizes.On("GetByID", ctx, "small").Return(createTestPrize("small", entities.PrizeCategorySmall, 2, 2), nil)
		m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{createTestParticipant("a", false)}, nil)
		m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
		m.prizes.On("DecrementRemaining", ctx, "small").Return(true, nil)
		m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
		m.drawRequests.On("Create", ctx, mock.AnythingOfType("*entities.DrawRecord")).Return(interfaces.ErrDuplicateIdempotencyKey)

		_, err := m.service().Draw(ctx, entities.DrawRequest{PrizeID: "small", IdempotencyKey: "req-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateRequest)
		assert.True(t, IsRetryable(err))
		m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestLuckyDrawService_Redraw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a := createTestParticipant("a", true)
	b := createTestParticipant("b", true)
	c := createTestParticipant("c", false)

	liveOutcome := func() *entities.Outcome {
		return &entities.Outcome{ID: "out-1", PrizeID: "big", ParticipantID: "a", CreatedAt: time.Now()}
	}

	tests := []struct {
		name         string
		outcomeID    string
		opts         []LuckyDrawOption
		setupMocks   func(m *luckyDrawMocks)
		expectedErr  error
		expectWinner string
	}{
		{
			name:      "voids and replaces without touching stock",
			outcomeID: "out-1",
			opts:      []LuckyDrawOption{pickIndex(0)},
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "out-1").Return(liveOutcome(), nil)
				m.prizes.On("GetByID", ctx, "big").Return(createTestPrize("big", entities.PrizeCategoryBig, 3, 2), nil)
				m.outcomes.On("Void", ctx, "out-1").Return(true, nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a, b, c}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{"c"}, nil)
				m.outcomes.On("Create", ctx, mock.MatchedBy(func(o *entities.Outcome) bool {
					return o.ParticipantID == "b" && o.PrizeID == "big" && o.ReplacesOutcomeID != nil && *o.ReplacesOutcomeID == "out-1"
				})).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
					ev, ok := e.(events.OutcomeProducedEvent)
					return ok && ev.IsRedraw() && ev.ReplacesOutcomeID == "out-1"
				})).Return(nil)
			},
			expectWinner: "b",
		},
		{
			name:      "voided winner may win again when allowed",
			outcomeID: "out-1",
			opts:      []LuckyDrawOption{pickIndex(0), WithRedrawAllowSameWinner(true)},
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "out-1").Return(liveOutcome(), nil)
				m.prizes.On("GetByID", ctx, "big").Return(createTestPrize("big", entities.PrizeCategoryBig, 1, 0), nil)
				m.outcomes.On("Void", ctx, "out-1").Return(true, nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.Anything).Return(nil)
			},
			expectWinner: "a",
		},
		{
			name:      "grand redraw only considers checked-in participants",
			outcomeID: "out-g",
			opts:      []LuckyDrawOption{pickIndex(0)},
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "out-g").Return(&entities.Outcome{ID: "out-g", PrizeID: "grand", ParticipantID: "a"}, nil)
				m.prizes.On("GetByID", ctx, "grand").Return(createTestPrize("grand", entities.PrizeCategoryGrand, 1, 0), nil)
				m.outcomes.On("Void", ctx, "out-g").Return(true, nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{CheckedInOnly: true}).Return([]*entities.Participant{a, b}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{}, nil)
				m.outcomes.On("Create", ctx, mock.AnythingOfType("*entities.Outcome")).Run(stampCreatedAt).Return(nil)
				m.publisher.On("Publish", mock.Anything).Return(nil)
			},
			expectWinner: "b",
		},
		{
			name:        "blank outcome id",
			outcomeID:   "",
			setupMocks:  func(m *luckyDrawMocks) {},
			expectedErr: ErrInvalidOutcomeID,
		},
		{
			name:      "outcome not found",
			outcomeID: "nope",
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "nope").Return(nil, nil)
			},
			expectedErr: ErrOutcomeNotFound,
		},
		{
			name:      "outcome already voided",
			outcomeID: "out-1",
			setupMocks: func(m *luckyDrawMocks) {
				voided := liveOutcome()
				voided.IsRedraw = true
				m.outcomes.On("GetByIDForUpdate", ctx, "out-1").Return(voided, nil)
			},
			expectedErr: ErrOutcomeAlreadyVoided,
		},
		{
			name:      "prize deactivated since the draw",
			outcomeID: "out-1",
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "out-1").Return(liveOutcome(), nil)
				m.prizes.On("GetByID", ctx, "big").Return(createTestPrize("big", entities.PrizeCategoryBig, 3, 2, func(p *entities.Prize) {
					p.IsActive = false
				}), nil)
			},
			expectedErr: ErrPrizeInactive,
		},
		{
			name:      "nobody left to award",
			outcomeID: "out-1",
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "out-1").Return(liveOutcome(), nil)
				m.prizes.On("GetByID", ctx, "big").Return(createTestPrize("big", entities.PrizeCategoryBig, 3, 2), nil)
				m.outcomes.On("Void", ctx, "out-1").Return(true, nil)
				m.participants.On("List", ctx, entities.ParticipantFilter{}).Return([]*entities.Participant{a, b}, nil)
				m.outcomes.On("ListActiveWinnerIDs", ctx).Return([]string{"b"}, nil)
			},
			expectedErr: ErrNoCandidates,
		},
		{
			name:      "lost void race",
			outcomeID: "out-1",
			setupMocks: func(m *luckyDrawMocks) {
				m.outcomes.On("GetByIDForUpdate", ctx, "out-1").Return(liveOutcome(), nil)
				m.prizes.On("GetByID", ctx, "big").Return(createTestPrize("big", entities.PrizeCategoryBig, 3, 2), nil)
				m.outcomes.On("Void", ctx, "out-1").Return(false, nil)
			},
			expectedErr: ErrOutcomeAlreadyVoided,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := setupLuckyDrawMocks()
			tt.setupMocks(m)

			detail, err := m.service(tt.opts...).Redraw(ctx, tt.outcomeID)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, detail)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectWinner, detail.Participant.ID)
				require.NotNil(t, detail.Outcome.ReplacesOutcomeID)
			}

			m.prizes.AssertNotCalled(t, "DecrementRemaining", mock.Anything, mock.Anything)
			m.prizes.AssertNotCalled(t, "RestoreAllStock", mock.Anything)
			m.assertExpectations(t)
		})
	}
}

func TestLuckyDrawService_ListOutcomes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := setupLuckyDrawMocks()
	views := []*entities.OutcomeView{
		{ID: "out-2", WinnerName: "Bob", PrizeName: "Car"},
		{ID: "out-1", WinnerName: "Alice", PrizeName: "Mug"},
	}
	m.outcomes.On("ListActiveViews", ctx).Return(views, nil)
	m.outcomes.On("ListHistoryViews", ctx).Return(nil, errors.New("connection reset"))

	svc := m.service()

	got, err := svc.ListOutcomes(ctx)
	require.NoError(t, err)
	assert.Equal(t, views, got)

	_, err = svc.ListOutcomeHistory(ctx)
	assert.Error(t, err)

	m.assertExpectations(t)
}

func TestLuckyDrawService_ResetPool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := setupLuckyDrawMocks()
	m.prizes.On("RestoreAllStock", ctx).Return(int64(4), nil)
	m.drawRequests.On("PurgeAll", ctx).Return(int64(2), nil)
	m.outcomes.On("PurgeAll", ctx).Return(int64(7), nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.PoolResetEvent)
		return ok && ev.PrizesRestored == 4 && ev.OutcomesPurged == 7
	})).Return(nil)

	result, err := m.service().ResetPool(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.PrizesRestored)
	assert.Equal(t, int64(7), result.OutcomesPurged)
	m.assertExpectations(t)
}

func TestLuckyDrawService_ResetPool_StopsOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := setupLuckyDrawMocks()
	m.prizes.On("RestoreAllStock", ctx).Return(int64(0), errors.New("boom"))

	_, err := m.service().ResetPool(ctx)
	require.Error(t, err)
	m.outcomes.AssertNotCalled(t, "PurgeAll", mock.Anything)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRetryable(ErrStockRaceLost))
	assert.True(t, IsRetryable(ErrWinnerConflict))
	assert.True(t, IsRetryable(ErrDuplicateRequest))
	assert.False(t, IsRetryable(ErrPrizeExhausted))
	assert.False(t, IsRetryable(ErrNoCandidates))
	assert.False(t, IsRetryable(errors.New("other")))
}
