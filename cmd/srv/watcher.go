package main

import (
	"github.com/tonlotto/backend/internal/domain/cron"
	"github.com/tonlotto/backend/internal/domain/ton"
	"github.com/urfave/cli/v2"
)

func (s *srv) startWatcher(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.loadRedis()
	s.loadEndpoint()
	s.loadRepos()
	s.loadDomains()

	s.cronManager = cron.NewCronJobManager()
	s.cronManager.Register(cron.NewRoundDeadlineCronJob(s.lotteryDomain, s.roundRepo))
	go s.cronManager.Start(s.ctx)

	s.watcher = ton.NewWatcher(s.tonClient, s.lotteryDomain)
	s.watcher.Start(s.ctx)

	return nil
}
