package repository

import (
	"context"
	"strings"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type TicketRepository interface {
	// Create inserts a ticket. A replayed deposit (same tx hash) returns
	// gorm.ErrDuplicatedKey; this is the idempotency boundary of ingestion.
	Create(ctx context.Context, ticket *entity.Ticket) error

	// GetByRoundID returns the round's tickets ordered by tx hash ascending.
	// This is the committed order of the fair draw, reproducible by anyone
	// holding the public ticket list.
	GetByRoundID(ctx context.Context, roundID int64) ([]entity.Ticket, error)

	GetBySender(ctx context.Context, sender string, limit int) ([]entity.Ticket, error)
	CountByRoundAndSender(ctx context.Context, roundID int64, sender string) (int64, error)
	CountSendersByRound(ctx context.Context, roundID int64) (int64, error)
	SumAmountByRound(ctx context.Context, roundID int64) (float64, error)
	SumAmountBySender(ctx context.Context, sender string) (float64, error)
}

type ticketRepository struct{}

func NewTicketRepository() *ticketRepository {
	return &ticketRepository{}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	if err := xcontext.DB(ctx).Create(ticket).Error; err != nil {
		if isDuplicateKeyError(err) {
			return gorm.ErrDuplicatedKey
		}

		return err
	}

	return nil
}

func (r *ticketRepository) GetByRoundID(ctx context.Context, roundID int64) ([]entity.Ticket, error) {
	var result []entity.Ticket
	err := xcontext.DB(ctx).
		Where("round_id=?", roundID).
		Order("tx_hash ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ticketRepository) GetBySender(
	ctx context.Context, sender string, limit int,
) ([]entity.Ticket, error) {
	var result []entity.Ticket
	err := xcontext.DB(ctx).
		Where("sender=?", sender).
		Order("id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ticketRepository) CountByRoundAndSender(
	ctx context.Context, roundID int64, sender string,
) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("round_id=? AND sender=?", roundID, sender).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *ticketRepository) CountSendersByRound(ctx context.Context, roundID int64) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Where("round_id=?", roundID).
		Distinct("sender").
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *ticketRepository) SumAmountByRound(ctx context.Context, roundID int64) (float64, error) {
	var result float64
	err := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("round_id=?", roundID).
		Take(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *ticketRepository) SumAmountBySender(ctx context.Context, sender string) (float64, error) {
	var result float64
	err := xcontext.DB(ctx).Model(&entity.Ticket{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("sender=?", sender).
		Take(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

// isDuplicateKeyError detects a violated unique constraint across the mysql
// and sqlite drivers.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if err == gorm.ErrDuplicatedKey {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
