package migration

import (
	"context"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
)

// When this migrator is called, no need to call other migrators.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Round{},
		&entity.Ticket{},
		&entity.AuditLog{},
		&entity.AnalyticsEvent{},
		&entity.Migration{},
	)
}
