package domain

import (
	"context"
	"errors"

	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/pkg/errorx"
	"github.com/tonlotto/backend/pkg/xcontext"
	"github.com/tonlotto/backend/pkg/xredis"
	"gorm.io/gorm"
)

const addressHistoryLimit = 5

func (d *lotteryDomain) GetCurrentRound(
	ctx context.Context, req *model.GetCurrentRoundRequest,
) (*model.GetCurrentRoundResponse, error) {
	if d.redisClient != nil {
		var cached model.GetCurrentRoundResponse
		err := d.redisClient.GetObj(ctx, currentRoundCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}

		if !errors.Is(err, xredis.ErrNil) {
			xcontext.Logger(ctx).Warnf("Cannot read round snapshot: %v", err)
		}
	}

	round, err := d.roundRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NoActiveRound, "No active round")
		}

		xcontext.Logger(ctx).Errorf("Cannot get active round: %v", err)
		return nil, errorx.Unknown
	}

	pool, err := d.ticketRepo.SumAmountByRound(ctx, round.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sum round pool: %v", err)
		return nil, errorx.Unknown
	}

	players, err := d.ticketRepo.CountSendersByRound(ctx, round.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count round players: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetCurrentRoundResponse{
		Round:   convertPublicRound(round),
		Pool:    pool,
		Players: players,
	}

	if d.redisClient != nil {
		ttl := xcontext.Configs(ctx).Lottery.SnapshotTTL
		if err := d.redisClient.SetObj(ctx, currentRoundCacheKey, resp, ttl); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot cache round snapshot: %v", err)
		}
	}

	return resp, nil
}

func (d *lotteryDomain) GetRoundHistory(
	ctx context.Context, req *model.GetRoundHistoryRequest,
) (*model.GetRoundHistoryResponse, error) {
	limit := req.Limit
	maxLimit := xcontext.Configs(ctx).Lottery.HistoryLimit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	rounds, err := d.roundRepo.GetHistory(ctx, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get round history: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetRoundHistoryResponse{Rounds: []model.Round{}}
	for i := range rounds {
		resp.Rounds = append(resp.Rounds, convertPublicRound(&rounds[i]))
	}

	return resp, nil
}

func (d *lotteryDomain) GetAddressSummary(
	ctx context.Context, req *model.GetAddressSummaryRequest,
) (*model.GetAddressSummaryResponse, error) {
	if req.Address == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an address")
	}

	total, err := d.ticketRepo.SumAmountBySender(ctx, req.Address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sum sender deposits: %v", err)
		return nil, errorx.Unknown
	}

	tickets, err := d.ticketRepo.GetBySender(ctx, req.Address, addressHistoryLimit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get sender tickets: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetAddressSummaryResponse{
		Address:       req.Address,
		TotalInvested: total,
		History:       []model.Ticket{},
	}

	for i := range tickets {
		resp.History = append(resp.History, convertTicket(&tickets[i]))
	}

	round, err := d.roundRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get active round: %v", err)
		return nil, errorx.Unknown
	}

	count, err := d.ticketRepo.CountByRoundAndSender(ctx, round.ID, req.Address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count sender tickets: %v", err)
		return nil, errorx.Unknown
	}

	resp.TicketCount = count
	if round.TicketCount > 0 {
		resp.Chance = float64(count) / float64(round.TicketCount)
	}

	return resp, nil
}

func (d *lotteryDomain) GetAuditLog(
	ctx context.Context, req *model.GetAuditLogRequest,
) (*model.GetAuditLogResponse, error) {
	entries, err := d.auditLogRepo.GetByRoundID(ctx, req.RoundID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get audit log: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetAuditLogResponse{Entries: []model.AuditLogEntry{}}
	for i := range entries {
		resp.Entries = append(resp.Entries, convertAuditLog(&entries[i]))
	}

	return resp, nil
}
