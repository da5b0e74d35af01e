package cron

import (
	"context"
	"errors"
	"time"

	"github.com/tonlotto/backend/internal/domain"
	"github.com/tonlotto/backend/internal/repository"
	"github.com/tonlotto/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// RoundDeadlineCronJob is the deadline clock of the lottery. Every tick it
// makes sure an active round exists and closes it once its end time passes.
// Restarts are harmless: the next tick picks up whatever state the database
// holds.
type RoundDeadlineCronJob struct {
	lotteryDomain domain.LotteryDomain
	roundRepo     repository.RoundRepository
}

func NewRoundDeadlineCronJob(
	lotteryDomain domain.LotteryDomain,
	roundRepo repository.RoundRepository,
) *RoundDeadlineCronJob {
	return &RoundDeadlineCronJob{
		lotteryDomain: lotteryDomain,
		roundRepo:     roundRepo,
	}
}

func (job *RoundDeadlineCronJob) Do(ctx context.Context) {
	round, err := job.roundRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No active round means the previous one is parked somewhere in
			// the payout pipeline, or this is a fresh deployment. Either
			// way, deposits need a place to land.
			if _, err := job.lotteryDomain.EnsureActiveRound(ctx); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot ensure active round: %v", err)
			}

			return
		}

		xcontext.Logger(ctx).Errorf("Cannot get active round: %v", err)
		return
	}

	if time.Now().Before(round.EndTime) {
		return
	}

	if err := job.lotteryDomain.CloseRound(ctx, round.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot close round %d: %v", round.ID, err)
	}
}

func (job *RoundDeadlineCronJob) RunNow() bool {
	return true
}

func (job *RoundDeadlineCronJob) Next() time.Time {
	return time.Now().Add(10 * time.Second)
}
