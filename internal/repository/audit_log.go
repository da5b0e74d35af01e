package repository

import (
	"context"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	GetByRoundID(ctx context.Context, roundID int64) ([]entity.AuditLog, error)
}

type auditLogRepository struct{}

func NewAuditLogRepository() *auditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return xcontext.DB(ctx).Create(log).Error
}

func (r *auditLogRepository) GetByRoundID(ctx context.Context, roundID int64) ([]entity.AuditLog, error) {
	var result []entity.AuditLog
	err := xcontext.DB(ctx).
		Where("round_id=?", roundID).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
