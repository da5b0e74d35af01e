package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/internal/repository"
	"github.com/tonlotto/backend/pkg/errorx"
	"github.com/tonlotto/backend/pkg/testutil"
	"github.com/tonlotto/backend/pkg/xcontext"
	"gorm.io/gorm"
)

func newTestLotteryDomain(balance *testutil.MockBalanceFetcher) *lotteryDomain {
	return NewLotteryDomain(
		repository.NewRoundRepository(),
		repository.NewTicketRepository(),
		repository.NewAuditLogRepository(),
		balance,
		&testutil.MockRedisClient{},
		&testutil.MockTelegramEndpoint{},
	)
}

func Test_lotteryDomain_SubmitDeposit_Idempotent(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	req := &model.SubmitDepositRequest{TxHash: "deadbeef", Sender: "wallet-1", Amount: 10}
	first, err := lotteryDomain.SubmitDeposit(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Accepted)
	require.False(t, first.Duplicate)
	require.NotZero(t, first.RoundID)

	// Redelivered observations of the same deposit must not mint a second
	// ticket.
	for i := 0; i < 3; i++ {
		resp, err := lotteryDomain.SubmitDeposit(ctx, req)
		require.NoError(t, err)
		require.False(t, resp.Accepted)
		require.True(t, resp.Duplicate)
	}

	round, err := lotteryDomain.roundRepo.GetByID(ctx, first.RoundID)
	require.NoError(t, err)
	require.Equal(t, 1, round.TicketCount)

	tickets, err := lotteryDomain.ticketRepo.GetByRoundID(ctx, first.RoundID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
}

func Test_lotteryDomain_SubmitDeposit_BelowMinimum(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	resp, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "tiny", Sender: "wallet-1", Amount: 1,
	})
	require.NoError(t, err)
	require.True(t, resp.BelowMinimum)
	require.False(t, resp.Accepted)

	// Nothing was recorded, not even a lazily created round.
	_, err = lotteryDomain.roundRepo.GetActive(ctx)
	require.Error(t, err)
}

func Test_lotteryDomain_EnsureActiveRound_Single(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	first, err := lotteryDomain.EnsureActiveRound(ctx)
	require.NoError(t, err)

	second, err := lotteryDomain.EnsureActiveRound(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	duration := xcontext.Configs(ctx).Lottery.RoundDuration
	require.WithinDuration(t, first.StartTime.Add(duration), first.EndTime, time.Second)
}

func Test_lotteryDomain_CloseAndSelectWinner(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	depositB, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "b2", Sender: "wallet-b", Amount: 10,
	})
	require.NoError(t, err)
	require.True(t, depositB.Accepted)

	depositA, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "a1", Sender: "wallet-a", Amount: 10,
	})
	require.NoError(t, err)
	require.Equal(t, depositB.RoundID, depositA.RoundID)
	roundID := depositA.RoundID
	require.Equal(t, int64(1), roundID)

	require.NoError(t, lotteryDomain.CloseRound(ctx, roundID))

	round, err := lotteryDomain.roundRepo.GetByID(ctx, roundID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundStopped, round.Status)
	require.Nil(t, round.Current)
	require.Equal(t,
		"85337816d263d362acb23a4255a636191075c2a90c47f2ee6db3362f7df11203",
		round.CommitHash)

	// Closing again changes nothing.
	require.NoError(t, lotteryDomain.CloseRound(ctx, roundID))
	again, err := lotteryDomain.roundRepo.GetByID(ctx, roundID)
	require.NoError(t, err)
	require.Equal(t, round.CommitHash, again.CommitHash)
	require.Equal(t, entity.RoundStopped, again.Status)

	selected, err := lotteryDomain.SelectWinner(ctx, &model.SelectWinnerRequest{RoundID: roundID})
	require.NoError(t, err)
	require.Equal(t, "wallet-a", selected.Round.Winner)
	require.Equal(t, "a1", selected.Round.WinnerTx)

	// A second selection is rejected, the recorded winner is final.
	_, err = lotteryDomain.SelectWinner(ctx, &model.SelectWinnerRequest{RoundID: roundID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.RoundNotInExpectedState, errx.Code)

	auditLog, err := lotteryDomain.GetAuditLog(ctx, &model.GetAuditLogRequest{RoundID: roundID})
	require.NoError(t, err)

	events := []string{}
	for _, entry := range auditLog.Entries {
		events = append(events, entry.Event)
	}
	require.Equal(t, []string{"round_created", "round_stopped", "winner_selected"}, events)
}

func Test_lotteryDomain_PayoutFlow_Continuity(t *testing.T) {
	ctx := testutil.MockContext()
	balance := &testutil.MockBalanceFetcher{BalanceValue: 10}
	lotteryDomain := newTestLotteryDomain(balance)

	deposit, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "deadbeef", Sender: "wallet-1", Amount: 10,
	})
	require.NoError(t, err)
	roundID := deposit.RoundID

	require.NoError(t, lotteryDomain.CloseRound(ctx, roundID))
	_, err = lotteryDomain.SelectWinner(ctx, &model.SelectWinnerRequest{RoundID: roundID})
	require.NoError(t, err)

	prepared, err := lotteryDomain.PrepareWithdraw(ctx, &model.PrepareWithdrawRequest{RoundID: roundID})
	require.NoError(t, err)
	require.Equal(t, float64(9), prepared.Round.Prize)

	confirmed, err := lotteryDomain.ConfirmPayout(ctx, &model.ConfirmPayoutRequest{
		RoundID: roundID, PayoutTxHash: "payout123",
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.RoundCompleted), confirmed.Round.Status)
	require.Equal(t, "payout123", confirmed.Round.PayoutTx)
	require.NotEqual(t, roundID, confirmed.NextRoundID)

	// The next round is already accepting deposits.
	active, err := lotteryDomain.roundRepo.GetActive(ctx)
	require.NoError(t, err)
	require.Equal(t, confirmed.NextRoundID, active.ID)

	// Confirming twice is a stale transition.
	_, err = lotteryDomain.ConfirmPayout(ctx, &model.ConfirmPayoutRequest{
		RoundID: roundID, PayoutTxHash: "payout123",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.StaleTransition, errx.Code)
}

func Test_lotteryDomain_PrepareWithdraw_BalanceBelowReserve(t *testing.T) {
	ctx := testutil.MockContext()
	balance := &testutil.MockBalanceFetcher{BalanceValue: 0.5}
	lotteryDomain := newTestLotteryDomain(balance)

	deposit, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "deadbeef", Sender: "wallet-1", Amount: 10,
	})
	require.NoError(t, err)

	require.NoError(t, lotteryDomain.CloseRound(ctx, deposit.RoundID))
	_, err = lotteryDomain.SelectWinner(ctx, &model.SelectWinnerRequest{RoundID: deposit.RoundID})
	require.NoError(t, err)

	_, err = lotteryDomain.PrepareWithdraw(ctx, &model.PrepareWithdrawRequest{RoundID: deposit.RoundID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unavailable, errx.Code)

	// The round is still awaiting a withdraw.
	round, err := lotteryDomain.roundRepo.GetByID(ctx, deposit.RoundID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundWinnerSelected, round.Status)
}

func Test_lotteryDomain_CloseRound_Empty(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	round, err := lotteryDomain.EnsureActiveRound(ctx)
	require.NoError(t, err)

	require.NoError(t, lotteryDomain.CloseRound(ctx, round.ID))

	closed, err := lotteryDomain.roundRepo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundFinishedEmpty, closed.Status)
	require.Empty(t, closed.CommitHash)

	// A replacement round opened immediately.
	active, err := lotteryDomain.roundRepo.GetActive(ctx)
	require.NoError(t, err)
	require.NotEqual(t, round.ID, active.ID)
}

func Test_lotteryDomain_CloseRound_DepositDuringEmptyClose(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	round, err := lotteryDomain.EnsureActiveRound(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, round.TicketCount)

	// A deposit commits after the closer read a zero counter.
	deposit, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "deadbeef", Sender: "wallet-1", Amount: 10,
	})
	require.NoError(t, err)
	require.Equal(t, round.ID, deposit.RoundID)

	// The empty finish refuses a round holding a paid ticket.
	err = lotteryDomain.finishEmptyRound(ctx, round.ID, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	still, err := lotteryDomain.roundRepo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundActive, still.Status)

	// The closure path falls through to a normal stop instead.
	require.NoError(t, lotteryDomain.CloseRound(ctx, round.ID))
	closed, err := lotteryDomain.roundRepo.GetByID(ctx, round.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundStopped, closed.Status)
	require.NotEmpty(t, closed.CommitHash)
}

type failingAuditLogRepo struct {
	repository.AuditLogRepository
	fail bool
}

func (r *failingAuditLogRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	if r.fail {
		return errors.New("audit store down")
	}

	return r.AuditLogRepository.Create(ctx, log)
}

func Test_lotteryDomain_CloseRound_AtomicWithCommitHash(t *testing.T) {
	ctx := testutil.MockContext()
	auditRepo := &failingAuditLogRepo{AuditLogRepository: repository.NewAuditLogRepository()}
	lotteryDomain := NewLotteryDomain(
		repository.NewRoundRepository(),
		repository.NewTicketRepository(),
		auditRepo,
		&testutil.MockBalanceFetcher{},
		&testutil.MockRedisClient{},
		&testutil.MockTelegramEndpoint{},
	)

	deposit, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "deadbeef", Sender: "wallet-1", Amount: 10,
	})
	require.NoError(t, err)

	// A closure that cannot write its audit entry rolls back whole: the
	// round never parks at stopped without a commit hash.
	auditRepo.fail = true
	require.Error(t, lotteryDomain.CloseRound(ctx, deposit.RoundID))

	round, err := lotteryDomain.roundRepo.GetByID(ctx, deposit.RoundID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundActive, round.Status)
	require.Empty(t, round.CommitHash)

	// A retry completes the closure.
	auditRepo.fail = false
	require.NoError(t, lotteryDomain.CloseRound(ctx, deposit.RoundID))

	round, err = lotteryDomain.roundRepo.GetByID(ctx, deposit.RoundID)
	require.NoError(t, err)
	require.Equal(t, entity.RoundStopped, round.Status)
	require.NotEmpty(t, round.CommitHash)
}

func Test_lotteryDomain_GetCurrentRound_And_AddressSummary(t *testing.T) {
	ctx := testutil.MockContext()
	lotteryDomain := newTestLotteryDomain(&testutil.MockBalanceFetcher{})

	_, err := lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "tx1", Sender: "wallet-1", Amount: 10,
	})
	require.NoError(t, err)
	_, err = lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "tx2", Sender: "wallet-1", Amount: 5,
	})
	require.NoError(t, err)
	_, err = lotteryDomain.SubmitDeposit(ctx, &model.SubmitDepositRequest{
		TxHash: "tx3", Sender: "wallet-2", Amount: 5,
	})
	require.NoError(t, err)

	current, err := lotteryDomain.GetCurrentRound(ctx, &model.GetCurrentRoundRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, current.Round.TicketCount)
	require.Equal(t, float64(20), current.Pool)
	require.Equal(t, int64(2), current.Players)

	summary, err := lotteryDomain.GetAddressSummary(ctx, &model.GetAddressSummaryRequest{
		Address: "wallet-1",
	})
	require.NoError(t, err)
	require.Equal(t, float64(15), summary.TotalInvested)
	require.Equal(t, int64(2), summary.TicketCount)
	require.InDelta(t, 2.0/3.0, summary.Chance, 1e-9)
	require.Len(t, summary.History, 2)
}
