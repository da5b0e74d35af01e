package migration

import (
	"context"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
)

// migrate0000 creates the database with the latest version.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Round{},
		&entity.Ticket{},
		&entity.AuditLog{},
		&entity.AnalyticsEvent{},
		&entity.Migration{},
	)
}
