package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/structs"
	"github.com/google/uuid"
	"github.com/tonlotto/backend/internal/domain/fairdraw"
	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/internal/repository"
	"github.com/tonlotto/backend/pkg/api/telegram"
	"github.com/tonlotto/backend/pkg/errorx"
	"github.com/tonlotto/backend/pkg/xcontext"
	"github.com/tonlotto/backend/pkg/xredis"
	"gorm.io/gorm"
)

const currentRoundCacheKey = "lottery:current_round"

// BalanceFetcher reads the point-in-time balance of the watched contract.
// The ton package provides the production implementation.
type BalanceFetcher interface {
	Balance(ctx context.Context, address string) (float64, error)
}

type LotteryDomain interface {
	// SubmitDeposit ingests one observed deposit. It is safe under
	// at-least-once delivery: a replayed tx hash is reported as a duplicate
	// without any side effect.
	SubmitDeposit(context.Context, *model.SubmitDepositRequest) (*model.SubmitDepositResponse, error)

	// CloseRound ends an active round. Both the deadline clock and the
	// ticket-cap trigger call it; whichever loses the race becomes a no-op.
	CloseRound(ctx context.Context, roundID int64) error

	// ForceCloseRound is the operator entry of CloseRound. A zero round id
	// targets the active round.
	ForceCloseRound(context.Context, *model.CloseRoundRequest) (*model.CloseRoundResponse, error)

	SelectWinner(context.Context, *model.SelectWinnerRequest) (*model.SelectWinnerResponse, error)
	PrepareWithdraw(context.Context, *model.PrepareWithdrawRequest) (*model.PrepareWithdrawResponse, error)
	ConfirmPayout(context.Context, *model.ConfirmPayoutRequest) (*model.ConfirmPayoutResponse, error)

	GetCurrentRound(context.Context, *model.GetCurrentRoundRequest) (*model.GetCurrentRoundResponse, error)
	GetRoundHistory(context.Context, *model.GetRoundHistoryRequest) (*model.GetRoundHistoryResponse, error)
	GetAddressSummary(context.Context, *model.GetAddressSummaryRequest) (*model.GetAddressSummaryResponse, error)
	GetAuditLog(context.Context, *model.GetAuditLogRequest) (*model.GetAuditLogResponse, error)

	// EnsureActiveRound lazily creates a round when none is active.
	EnsureActiveRound(ctx context.Context) (*entity.Round, error)
}

type lotteryDomain struct {
	roundRepo      repository.RoundRepository
	ticketRepo     repository.TicketRepository
	auditLogRepo   repository.AuditLogRepository
	balanceFetcher BalanceFetcher
	redisClient    xredis.Client
	tele           telegram.IEndpoint
}

func NewLotteryDomain(
	roundRepo repository.RoundRepository,
	ticketRepo repository.TicketRepository,
	auditLogRepo repository.AuditLogRepository,
	balanceFetcher BalanceFetcher,
	redisClient xredis.Client,
	tele telegram.IEndpoint,
) *lotteryDomain {
	return &lotteryDomain{
		roundRepo:      roundRepo,
		ticketRepo:     ticketRepo,
		auditLogRepo:   auditLogRepo,
		balanceFetcher: balanceFetcher,
		redisClient:    redisClient,
		tele:           tele,
	}
}

func (d *lotteryDomain) SubmitDeposit(
	ctx context.Context, req *model.SubmitDepositRequest,
) (*model.SubmitDepositResponse, error) {
	if req.TxHash == "" || req.Sender == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a tx hash and a sender")
	}

	cfg := xcontext.Configs(ctx).Lottery
	if req.Amount < cfg.MinDeposit {
		return &model.SubmitDepositResponse{BelowMinimum: true}, nil
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	round, err := d.EnsureActiveRound(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &entity.Ticket{
		SnowFlakeBase: entity.SnowFlakeBase{ID: xcontext.SnowflakeNode(ctx).Generate().Int64()},
		RoundID:       round.ID,
		Sender:        req.Sender,
		Amount:        req.Amount,
		TxHash:        req.TxHash,
	}

	if err := d.ticketRepo.Create(ctx, ticket); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &model.SubmitDepositResponse{Duplicate: true}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot create ticket: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.roundRepo.CheckAndIncreaseTicketCount(ctx, round.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The round closed while this deposit was being accepted. The
			// rollback discards the ticket; the poller redelivers the
			// deposit next cycle and it joins the new round.
			return nil, errorx.New(errorx.StaleTransition,
				"Round %d closed while accepting the deposit", round.ID)
		}

		xcontext.Logger(ctx).Errorf("Cannot increase ticket count: %v", err)
		return nil, errorx.Unknown
	}

	updated, err := d.roundRepo.GetByID(ctx, round.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get round after increment: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)
	d.invalidateSnapshot(ctx)

	if updated.TicketCount >= cfg.MaxTicketsPerRound {
		// Dispatched independently so ticket acceptance never waits for
		// closure work. The deadline clock may race this; the
		// compare-and-set transition lets exactly one of them win.
		go func() {
			if err := d.CloseRound(ctx, round.ID); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot close full round %d: %v", round.ID, err)
			}
		}()
	}

	d.notify(ctx, fmt.Sprintf("💰 <b>+%g TON</b>\n🎫 Ticket %d joined round %d",
		req.Amount, updated.TicketCount, round.ID))

	return &model.SubmitDepositResponse{
		Accepted: true,
		RoundID:  round.ID,
		TicketID: ticket.ID,
	}, nil
}

func (d *lotteryDomain) CloseRound(ctx context.Context, roundID int64) error {
	round, err := d.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found round %d", roundID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get round: %v", err)
		return errorx.Unknown
	}

	if round.Status != entity.RoundActive {
		return nil
	}

	now := time.Now()
	if round.TicketCount == 0 {
		err := d.finishEmptyRound(ctx, roundID, now)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The guarded update missed: either another trigger closed the
		// round first, or a deposit attached a ticket after the read above.
		round, err = d.roundRepo.GetByID(ctx, roundID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get round again: %v", err)
			return errorx.Unknown
		}

		if round.Status != entity.RoundActive {
			xcontext.Logger(ctx).Debugf("Round %d was closed concurrently", roundID)
			return nil
		}
	}

	// The transition, the commit hash, and the audit entry land atomically,
	// so a stopped round always carries its commit hash.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err = d.roundRepo.Transition(ctx, roundID,
		entity.RoundActive, entity.RoundStopped,
		map[string]any{"closed_at": now})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The other trigger already closed this round.
			xcontext.Logger(ctx).Debugf("Round %d was closed concurrently", roundID)
			return nil
		}

		xcontext.Logger(ctx).Errorf("Cannot stop round: %v", err)
		return errorx.Unknown
	}

	// The round is stopped; its ticket set can no longer grow. The ordered
	// tx hashes are committed before any winner is known.
	tickets, err := d.ticketRepo.GetByRoundID(ctx, roundID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tickets of round %d: %v", roundID, err)
		return errorx.Unknown
	}

	commitHash := fairdraw.CommitHash(ticketTxHashes(tickets))
	if err := d.roundRepo.SetCommitHash(ctx, roundID, commitHash); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set commit hash of round %d: %v", roundID, err)
		return errorx.Unknown
	}

	if err := d.audit(ctx, roundID, entity.AuditRoundStopped, roundStoppedPayload{
		TicketCount: len(tickets),
		CommitHash:  commitHash,
	}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write audit log: %v", err)
		return errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)
	d.invalidateSnapshot(ctx)
	d.notify(ctx, fmt.Sprintf("🏁 Round %d stopped with %d tickets\ncommit: <code>%s</code>",
		roundID, len(tickets), commitHash))

	return nil
}

func (d *lotteryDomain) ForceCloseRound(
	ctx context.Context, req *model.CloseRoundRequest,
) (*model.CloseRoundResponse, error) {
	roundID := req.RoundID
	if roundID == 0 {
		round, err := d.roundRepo.GetActive(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NoActiveRound, "No active round")
			}

			xcontext.Logger(ctx).Errorf("Cannot get active round: %v", err)
			return nil, errorx.Unknown
		}

		roundID = round.ID
	}

	if err := d.CloseRound(ctx, roundID); err != nil {
		return nil, err
	}

	round, err := d.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get round after closing: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CloseRoundResponse{Round: convertRound(round)}, nil
}

// finishEmptyRound ends a round whose counter was read as zero. The caller
// resolves a gorm.ErrRecordNotFound return: the round either gained a ticket
// or was closed by the other trigger.
func (d *lotteryDomain) finishEmptyRound(ctx context.Context, roundID int64, now time.Time) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.roundRepo.FinishEmpty(ctx, roundID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		xcontext.Logger(ctx).Errorf("Cannot finish empty round: %v", err)
		return errorx.Unknown
	}

	if err := d.audit(ctx, roundID, entity.AuditRoundEmpty, nil); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write audit log: %v", err)
		return errorx.Unknown
	}

	// An empty round is terminal and non-payable; open the next one right
	// away so deposits are always accepted.
	if _, err := d.EnsureActiveRound(ctx); err != nil {
		return err
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)
	d.invalidateSnapshot(ctx)
	return nil
}

func (d *lotteryDomain) SelectWinner(
	ctx context.Context, req *model.SelectWinnerRequest,
) (*model.SelectWinnerResponse, error) {
	round, err := d.roundRepo.GetByID(ctx, req.RoundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found round %d", req.RoundID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get round: %v", err)
		return nil, errorx.Unknown
	}

	if round.Status != entity.RoundStopped {
		return nil, errorx.New(errorx.RoundNotInExpectedState,
			"Round %d is not awaiting winner selection", round.ID)
	}

	tickets, err := d.ticketRepo.GetByRoundID(ctx, round.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tickets of round %d: %v", round.ID, err)
		return nil, errorx.Unknown
	}

	orderedHashes := ticketTxHashes(tickets)
	if recomputed := fairdraw.CommitHash(orderedHashes); recomputed != round.CommitHash {
		xcontext.Logger(ctx).Errorf("Commit hash mismatch of round %d: %s != %s",
			round.ID, recomputed, round.CommitHash)
		return nil, errorx.New(errorx.Internal, "Ticket set does not match the commit hash")
	}

	index, err := fairdraw.Draw(round.ID, round.CommitHash, orderedHashes)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot draw round %d: %v", round.ID, err)
		return nil, errorx.Unknown
	}

	winner := tickets[index]
	err = d.roundRepo.Transition(ctx, round.ID,
		entity.RoundStopped, entity.RoundWinnerSelected,
		map[string]any{
			"winner_wallet":         winner.Sender,
			"winner_ticket_tx_hash": winner.TxHash,
		})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.StaleTransition,
				"Round %d was selected concurrently", round.ID)
		}

		xcontext.Logger(ctx).Errorf("Cannot transition round to winner_selected: %v", err)
		return nil, errorx.Unknown
	}

	entropy := fairdraw.Entropy(round.ID, round.CommitHash, orderedHashes[len(orderedHashes)-1])
	if err := d.audit(ctx, round.ID, entity.AuditWinnerSelected, winnerSelectedPayload{
		Entropy:      entropy,
		WinnerIndex:  index,
		WinnerWallet: winner.Sender,
		WinnerTxHash: winner.TxHash,
	}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write audit log: %v", err)
		return nil, errorx.Unknown
	}

	updated, err := d.roundRepo.GetByID(ctx, round.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get round after selection: %v", err)
		return nil, errorx.Unknown
	}

	d.notify(ctx, fmt.Sprintf("🎉 Round %d winner: <code>%s</code> (ticket %s)",
		round.ID, shortenHash(winner.Sender), shortenHash(winner.TxHash)))

	return &model.SelectWinnerResponse{Round: convertRound(updated)}, nil
}

func (d *lotteryDomain) PrepareWithdraw(
	ctx context.Context, req *model.PrepareWithdrawRequest,
) (*model.PrepareWithdrawResponse, error) {
	cfg := xcontext.Configs(ctx)
	balance, err := d.balanceFetcher.Balance(ctx, cfg.Ton.ContractAddress)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot read the contract balance: %v", err)
		return nil, errorx.New(errorx.UpstreamUnavailable, "Cannot read the contract balance")
	}

	prize := balance - cfg.Lottery.PrizeReserve
	if prize <= 0 {
		return nil, errorx.New(errorx.Unavailable,
			"Balance %.2f TON is below the prize reserve", balance)
	}

	err = d.roundRepo.Transition(ctx, req.RoundID,
		entity.RoundWinnerSelected, entity.RoundWithdrawPrepared,
		map[string]any{"expected_prize": prize})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.StaleTransition,
				"Round %d is not awaiting a withdraw", req.RoundID)
		}

		xcontext.Logger(ctx).Errorf("Cannot transition round to withdraw_prepared: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.audit(ctx, req.RoundID, entity.AuditWithdrawPrepared, withdrawPreparedPayload{
		Balance:       balance,
		Reserve:       cfg.Lottery.PrizeReserve,
		ExpectedPrize: prize,
	}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write audit log: %v", err)
		return nil, errorx.Unknown
	}

	updated, err := d.roundRepo.GetByID(ctx, req.RoundID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get round after prepare: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PrepareWithdrawResponse{Round: convertRound(updated)}, nil
}

func (d *lotteryDomain) ConfirmPayout(
	ctx context.Context, req *model.ConfirmPayoutRequest,
) (*model.ConfirmPayoutResponse, error) {
	if req.PayoutTxHash == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a payout tx hash")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err := d.roundRepo.Transition(ctx, req.RoundID,
		entity.RoundWithdrawPrepared, entity.RoundCompleted,
		map[string]any{
			"payout_tx_hash": req.PayoutTxHash,
			"completed_at":   time.Now(),
		})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.StaleTransition,
				"Round %d is not awaiting a payout confirmation", req.RoundID)
		}

		xcontext.Logger(ctx).Errorf("Cannot transition round to completed: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.audit(ctx, req.RoundID, entity.AuditPayoutCompleted, payoutCompletedPayload{
		PayoutTxHash: req.PayoutTxHash,
	}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write audit log: %v", err)
		return nil, errorx.Unknown
	}

	// Continuity: the next round must exist before this operation returns.
	// It may already exist if a deposit arrived while the payout was
	// pending; EnsureActiveRound is a no-op then.
	next, err := d.EnsureActiveRound(ctx)
	if err != nil {
		return nil, err
	}

	completed, err := d.roundRepo.GetByID(ctx, req.RoundID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get round after completion: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)
	d.invalidateSnapshot(ctx)

	return &model.ConfirmPayoutResponse{
		Round:       convertRound(completed),
		NextRoundID: next.ID,
	}, nil
}

func (d *lotteryDomain) EnsureActiveRound(ctx context.Context) (*entity.Round, error) {
	round, err := d.roundRepo.GetActive(ctx)
	if err == nil {
		return round, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get active round: %v", err)
		return nil, errorx.Unknown
	}

	current := true
	now := time.Now()
	round = &entity.Round{
		Status:    entity.RoundActive,
		Current:   &current,
		StartTime: now,
		EndTime:   now.Add(xcontext.Configs(ctx).Lottery.RoundDuration),
	}

	if err := d.roundRepo.Create(ctx, round); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race; the winner's round is the active one.
			return d.roundRepo.GetActive(ctx)
		}

		xcontext.Logger(ctx).Errorf("Cannot create round: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.audit(ctx, round.ID, entity.AuditRoundCreated, roundCreatedPayload{
		StartTime: round.StartTime,
		EndTime:   round.EndTime,
	}); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot write audit log: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Round %d opened until %s", round.ID, round.EndTime)
	return round, nil
}

func (d *lotteryDomain) audit(
	ctx context.Context, roundID int64, event entity.AuditEvent, payload any,
) error {
	entry := &entity.AuditLog{
		Base:    entity.Base{ID: uuid.NewString()},
		RoundID: roundID,
		Event:   event,
		Payload: entity.Map{},
	}

	if payload != nil {
		entry.Payload = structs.Map(payload)
	}

	return d.auditLogRepo.Create(ctx, entry)
}

func (d *lotteryDomain) invalidateSnapshot(ctx context.Context) {
	if d.redisClient == nil {
		return
	}

	if err := d.redisClient.Del(ctx, currentRoundCacheKey); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate round snapshot: %v", err)
	}
}

func (d *lotteryDomain) notify(ctx context.Context, text string) {
	if d.tele == nil {
		return
	}

	chatID := xcontext.Configs(ctx).Telegram.AdminChatID
	if chatID == "" {
		return
	}

	if err := d.tele.SendMessage(ctx, chatID, text); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot notify admin: %v", err)
	}
}

func ticketTxHashes(tickets []entity.Ticket) []string {
	hashes := make([]string, len(tickets))
	for i, t := range tickets {
		hashes[i] = t.TxHash
	}

	return hashes
}
