package migration

import (
	"context"
	"errors"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// Migrators maps a version to its migrator. Versions are applied manually
// through the migrate command; Migrate applies every version not yet
// recorded, in order.
var Migrators = map[string]func(context.Context) error{
	"0000": migrate0000,
}

var versionOrder = []string{"0000"}

func Migrate(ctx context.Context) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	for _, version := range versionOrder {
		var record entity.Migration
		err := xcontext.DB(ctx).Take(&record, "version=?", version).Error
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		xcontext.Logger(ctx).Infof("Applying migration %s", version)
		if err := Migrators[version](ctx); err != nil {
			return err
		}

		err = xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
