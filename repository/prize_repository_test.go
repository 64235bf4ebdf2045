package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"luckydraw/domain/entities"
	"luckydraw/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrizeRepository_GetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewPrizeRepository(testDB.DB)
	ctx := context.Background()

	t.Run("prize not found", func(t *testing.T) {
		prize, err := repo.GetByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, prize)
	})

	t.Run("prize found", func(t *testing.T) {
		want := testutil.CreateTestPrize("Espresso Machine", entities.PrizeCategoryBig, 2)
		want.Description = "Dual boiler"
		testutil.InsertPrizes(t, testDB.DB, want)

		got, err := repo.GetByID(ctx, want.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, entities.PrizeCategoryBig, got.Category)
		assert.Equal(t, 2, got.Stock)
		assert.Equal(t, 2, got.Remaining)
		assert.True(t, got.IsActive)
	})
}

func TestPrizeRepository_DecrementRemaining(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewPrizeRepository(testDB.DB)
	ctx := context.Background()

	prize := testutil.CreateTestPrize("Voucher", entities.PrizeCategorySmall, 1)
	testutil.InsertPrizes(t, testDB.DB, prize)

	taken, err := repo.DecrementRemaining(ctx, prize.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.DecrementRemaining(ctx, prize.ID)
	require.NoError(t, err)
	assert.False(t, taken, "decrement at zero must not apply")

	assert.Equal(t, 0, testutil.RemainingStock(t, testDB.DB, prize.ID))

	taken, err = repo.DecrementRemaining(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestPrizeRepository_DecrementRemaining_Concurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewPrizeRepository(testDB.DB)

	const stock = 5
	const callers = 40
	prize := testutil.CreateTestPrize("Tablet", entities.PrizeCategoryMedium, stock)
	testutil.InsertPrizes(t, testDB.DB, prize)

	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			taken, err := repo.DecrementRemaining(context.Background(), prize.ID)
			assert.NoError(t, err)
			if taken {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(stock), successes.Load())
	assert.Equal(t, 0, testutil.RemainingStock(t, testDB.DB, prize.ID))
}

func TestPrizeRepository_RestoreAllStock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	repo := NewPrizeRepository(testDB.DB)
	ctx := context.Background()

	a := testutil.CreateTestPrize("Mug", entities.PrizeCategorySmall, 3)
	b := testutil.CreateTestPrize("Car", entities.PrizeCategoryGrand, 1)
	testutil.InsertPrizes(t, testDB.DB, a, b)

	for i := 0; i < 2; i++ {
		_, err := repo.DecrementRemaining(ctx, a.ID)
		require.NoError(t, err)
	}
	_, err := repo.DecrementRemaining(ctx, b.ID)
	require.NoError(t, err)

	restored, err := repo.RestoreAllStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), restored)
	assert.Equal(t, 3, testutil.RemainingStock(t, testDB.DB, a.ID))
	assert.Equal(t, 1, testutil.RemainingStock(t, testDB.DB, b.ID))
}
