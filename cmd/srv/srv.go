package main

import (
	"context"
	"net/http"

	"github.com/tonlotto/backend/config"
	"github.com/tonlotto/backend/internal/domain"
	"github.com/tonlotto/backend/internal/domain/cron"
	"github.com/tonlotto/backend/internal/domain/ton"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/internal/repository"
	"github.com/tonlotto/backend/pkg/api/telegram"
	"github.com/tonlotto/backend/pkg/jwt"
	"github.com/tonlotto/backend/pkg/router"
	"github.com/tonlotto/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
)

type srv struct {
	ctx context.Context
	app *cli.App

	configs *config.Configs

	roundRepo          repository.RoundRepository
	ticketRepo         repository.TicketRepository
	auditLogRepo       repository.AuditLogRepository
	analyticsEventRepo repository.AnalyticsEventRepository

	lotteryDomain   domain.LotteryDomain
	analyticsDomain domain.AnalyticsDomain

	tonClient      ton.Client
	balanceFetcher *ton.CachedBalanceFetcher
	watcher        *ton.Watcher
	cronManager    *cron.CronJobManager

	redisClient    xredis.Client
	telegramClient telegram.IEndpoint
	tokenEngine    *jwt.Engine[model.AccessToken]

	router *router.Router
	server *http.Server
}
