package main

import (
	"errors"
	"net/http"

	"github.com/rs/cors"
	"github.com/tonlotto/backend/internal/middleware"
	"github.com/tonlotto/backend/pkg/router"
	"github.com/tonlotto/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.loadRedis()
	s.loadEndpoint()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(s.router.Handler())

	s.server = &http.Server{
		Addr:    s.configs.ApiServer.Address(),
		Handler: handler,
	}

	xcontext.Logger(s.ctx).Infof("Starting api server on %s", s.configs.ApiServer.Address())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.After(middleware.Logger())
	s.router.Before(middleware.Authenticate(s.tokenEngine))

	// Public API.
	router.GET(s.router, "/getCurrentRound", s.lotteryDomain.GetCurrentRound)
	router.GET(s.router, "/getRoundHistory", s.lotteryDomain.GetRoundHistory)
	router.GET(s.router, "/getAddressSummary", s.lotteryDomain.GetAddressSummary)
	router.GET(s.router, "/getAuditLog", s.lotteryDomain.GetAuditLog)
	router.POST(s.router, "/createAnalyticsEvent", s.analyticsDomain.CreateEvent)

	// Admin API.
	adminRouter := s.router.Branch()
	adminRouter.Before(middleware.OnlyAdmin())
	{
		router.POST(adminRouter, "/closeRound", s.lotteryDomain.ForceCloseRound)
		router.POST(adminRouter, "/selectWinner", s.lotteryDomain.SelectWinner)
		router.POST(adminRouter, "/prepareWithdraw", s.lotteryDomain.PrepareWithdraw)
		router.POST(adminRouter, "/confirmPayout", s.lotteryDomain.ConfirmPayout)
		router.GET(adminRouter, "/getAnalyticsFunnel", s.analyticsDomain.GetFunnel)
	}
}
