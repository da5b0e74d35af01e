package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/tonlotto/backend/config"
	"github.com/tonlotto/backend/migration"
	"github.com/tonlotto/backend/pkg/logger"
	"github.com/tonlotto/backend/pkg/xcontext"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MockContext() context.Context {
	// A named shared-cache database so every pooled connection, including
	// the ones transactions run on, sees the same schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Env: "testing",
		Lottery: config.LotteryConfigs{
			MinDeposit:         5,
			RoundDuration:      time.Hour,
			MaxTicketsPerRound: 100,
			PrizeReserve:       1,
			HistoryLimit:       10,
			SnapshotTTL:        time.Second,
		},
		Ton: config.TonConfigs{
			ContractAddress:  "EQtestcontract",
			PollInterval:     time.Second,
			TxScanLimit:      50,
			BalanceStaleness: time.Minute,
		},
		Auth: config.AuthConfigs{
			TokenSecret:     "secret",
			TokenExpiration: time.Minute,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithSnowflakeNode(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}
