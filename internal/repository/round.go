package repository

import (
	"context"
	"time"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type RoundRepository interface {
	// Create inserts a new active round. It returns gorm.ErrDuplicatedKey
	// when another active round already exists.
	Create(ctx context.Context, round *entity.Round) error

	GetActive(ctx context.Context) (*entity.Round, error)
	GetByID(ctx context.Context, roundID int64) (*entity.Round, error)

	// Transition is a compare-and-set status update. It succeeds only if the
	// round is still in the from status, otherwise it returns
	// gorm.ErrRecordNotFound. Every status change in the system goes through
	// this method.
	Transition(ctx context.Context, roundID int64, from, to entity.RoundStatus, fields map[string]any) error

	// FinishEmpty moves an active round with no tickets to finished_empty.
	// The guard covers the ticket counter too, so a deposit committed between
	// the caller's read and this update makes it return
	// gorm.ErrRecordNotFound instead of stranding the ticket in a terminal
	// round.
	FinishEmpty(ctx context.Context, roundID int64, closedAt time.Time) error

	// CheckAndIncreaseTicketCount increments the denormalized ticket counter
	// of an active round. It returns gorm.ErrRecordNotFound if the round is
	// no longer active.
	CheckAndIncreaseTicketCount(ctx context.Context, roundID int64) error

	// SetCommitHash writes the commit hash of a stopped round. The hash is
	// write-once; a second call returns gorm.ErrRecordNotFound.
	SetCommitHash(ctx context.Context, roundID int64, commitHash string) error

	GetHistory(ctx context.Context, offset, limit int) ([]entity.Round, error)
}

type roundRepository struct{}

func NewRoundRepository() *roundRepository {
	return &roundRepository{}
}

func (r *roundRepository) Create(ctx context.Context, round *entity.Round) error {
	if err := xcontext.DB(ctx).Create(round).Error; err != nil {
		if isDuplicateKeyError(err) {
			return gorm.ErrDuplicatedKey
		}

		return err
	}

	return nil
}

func (r *roundRepository) GetActive(ctx context.Context) (*entity.Round, error) {
	var result entity.Round
	err := xcontext.DB(ctx).Take(&result, "status=?", entity.RoundActive).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *roundRepository) GetByID(ctx context.Context, roundID int64) (*entity.Round, error) {
	var result entity.Round
	if err := xcontext.DB(ctx).Take(&result, "id=?", roundID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *roundRepository) Transition(
	ctx context.Context, roundID int64, from, to entity.RoundStatus, fields map[string]any,
) error {
	updates := map[string]any{"status": to}
	if to != entity.RoundActive {
		// Release the single-active-round marker when leaving active.
		updates["current"] = nil
	}

	for k, v := range fields {
		updates[k] = v
	}

	tx := xcontext.DB(ctx).Model(&entity.Round{}).
		Where("id=? AND status=?", roundID, from).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *roundRepository) FinishEmpty(ctx context.Context, roundID int64, closedAt time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Round{}).
		Where("id=? AND status=? AND ticket_count=?", roundID, entity.RoundActive, 0).
		Updates(map[string]any{
			"status":    entity.RoundFinishedEmpty,
			"current":   nil,
			"closed_at": closedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *roundRepository) CheckAndIncreaseTicketCount(ctx context.Context, roundID int64) error {
	tx := xcontext.DB(ctx).Model(&entity.Round{}).
		Where("id=? AND status=?", roundID, entity.RoundActive).
		Update("ticket_count", gorm.Expr("ticket_count+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *roundRepository) SetCommitHash(ctx context.Context, roundID int64, commitHash string) error {
	tx := xcontext.DB(ctx).Model(&entity.Round{}).
		Where("id=? AND status=? AND commit_hash=?", roundID, entity.RoundStopped, "").
		Update("commit_hash", commitHash)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *roundRepository) GetHistory(ctx context.Context, offset, limit int) ([]entity.Round, error) {
	var result []entity.Round
	err := xcontext.DB(ctx).
		Where("status IN (?)", []entity.RoundStatus{
			entity.RoundStopped,
			entity.RoundWinnerSelected,
			entity.RoundWithdrawPrepared,
			entity.RoundCompleted,
			entity.RoundFinishedEmpty,
		}).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
