package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/testutil"
	"gorm.io/gorm"
)

func createActiveRound(t *testing.T, ctx context.Context, repo RoundRepository) *entity.Round {
	current := true
	now := time.Now()
	round := &entity.Round{
		Status:    entity.RoundActive,
		Current:   &current,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
	}

	require.NoError(t, repo.Create(ctx, round))
	return round
}

func Test_roundRepository_Create_SingleActive(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()

	createActiveRound(t, ctx, repo)

	current := true
	err := repo.Create(ctx, &entity.Round{
		Status:  entity.RoundActive,
		Current: &current,
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func Test_roundRepository_Transition_CompareAndSet(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()
	round := createActiveRound(t, ctx, repo)

	err := repo.Transition(ctx, round.ID, entity.RoundActive, entity.RoundStopped, nil)
	require.NoError(t, err)

	// The losing side of a close race observes a not-found.
	err = repo.Transition(ctx, round.ID, entity.RoundActive, entity.RoundStopped, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stopped, err := repo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundStopped, stopped.Status)
	require.Nil(t, stopped.Current)

	// The marker is released, a new active round can be created.
	createActiveRound(t, ctx, repo)
}

func Test_roundRepository_CheckAndIncreaseTicketCount(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()
	round := createActiveRound(t, ctx, repo)

	require.NoError(t, repo.CheckAndIncreaseTicketCount(ctx, round.ID))
	require.NoError(t, repo.CheckAndIncreaseTicketCount(ctx, round.ID))

	updated, err := repo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, 2, updated.TicketCount)

	err = repo.Transition(ctx, round.ID, entity.RoundActive, entity.RoundStopped, nil)
	require.NoError(t, err)

	// The ticket set of a stopped round can no longer grow.
	err = repo.CheckAndIncreaseTicketCount(ctx, round.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_roundRepository_FinishEmpty_GuardsTicketCount(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()
	round := createActiveRound(t, ctx, repo)

	// A ticket attached after the caller read a zero counter.
	require.NoError(t, repo.CheckAndIncreaseTicketCount(ctx, round.ID))

	err := repo.FinishEmpty(ctx, round.ID, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	still, err := repo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundActive, still.Status)
	require.NotNil(t, still.Current)
}

func Test_roundRepository_FinishEmpty(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()
	round := createActiveRound(t, ctx, repo)

	require.NoError(t, repo.FinishEmpty(ctx, round.ID, time.Now()))

	finished, err := repo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundFinishedEmpty, finished.Status)
	require.Nil(t, finished.Current)
	require.True(t, finished.ClosedAt.Valid)

	// The guard also refuses rounds that already left active.
	err = repo.FinishEmpty(ctx, round.ID, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_roundRepository_SetCommitHash_WriteOnce(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()
	round := createActiveRound(t, ctx, repo)

	err := repo.Transition(ctx, round.ID, entity.RoundActive, entity.RoundStopped, nil)
	require.NoError(t, err)

	require.NoError(t, repo.SetCommitHash(ctx, round.ID, "aaaa"))
	require.ErrorIs(t, repo.SetCommitHash(ctx, round.ID, "bbbb"), gorm.ErrRecordNotFound)

	stopped, err := repo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, "aaaa", stopped.CommitHash)
}

func Test_roundRepository_GetHistory(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewRoundRepository()

	for i := 0; i < 3; i++ {
		round := createActiveRound(t, ctx, repo)
		err := repo.Transition(ctx, round.ID, entity.RoundActive, entity.RoundCompleted, nil)
		require.NoError(t, err)
	}

	active := createActiveRound(t, ctx, repo)

	history, err := repo.GetHistory(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Newest first, the active round excluded.
	require.Greater(t, history[0].ID, history[1].ID)
	for _, round := range history {
		require.NotEqual(t, active.ID, round.ID)
	}

	page, err := repo.GetHistory(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, history[1].ID, page[0].ID)
}
