package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bwmarrin/snowflake"
	"github.com/tonlotto/backend/config"
	"github.com/tonlotto/backend/internal/domain"
	"github.com/tonlotto/backend/internal/domain/ton"
	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/internal/repository"
	"github.com/tonlotto/backend/pkg/api/telegram"
	"github.com/tonlotto/backend/pkg/jwt"
	"github.com/tonlotto/backend/pkg/logger"
	"github.com/tonlotto/backend/pkg/xcontext"
	"github.com/tonlotto/backend/pkg/xredis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func (s *srv) loadConfig() {
	s.ctx = context.Background()
	s.configs = &config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "tonlotto"),
			User:     getEnv("MYSQL_USER", "tonlotto"),
			Password: getEnv("MYSQL_PASSWORD", "secret"),
			LogLevel: getEnv("DATABASE_LOG_LEVEL", "error"),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("HOST", ""),
			Port: getEnv("PORT", "8080"),
		},
		Auth: config.AuthConfigs{
			TokenSecret:     getEnv("TOKEN_SECRET", "token-secret"),
			TokenExpiration: getDuration("TOKEN_EXPIRATION", 24*time.Hour),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Lottery: config.LotteryConfigs{
			MinDeposit:         getFloat("LOTTERY_MIN_DEPOSIT", 5),
			RoundDuration:      getDuration("LOTTERY_ROUND_DURATION", 24*time.Hour),
			MaxTicketsPerRound: getInt("LOTTERY_MAX_TICKETS", 1000),
			PrizeReserve:       getFloat("LOTTERY_PRIZE_RESERVE", 1),
			HistoryLimit:       getInt("LOTTERY_HISTORY_LIMIT", 20),
			SnapshotTTL:        getDuration("LOTTERY_SNAPSHOT_TTL", 5*time.Second),
		},
		Ton: config.TonConfigs{
			APIURL:           getEnv("TON_API_URL", "https://toncenter.com/api/v2"),
			APIKey:           getEnv("TON_API_KEY", ""),
			ContractAddress:  getEnv("TON_CONTRACT_ADDRESS", ""),
			PollInterval:     getDuration("TON_POLL_INTERVAL", 15*time.Second),
			TxScanLimit:      getInt("TON_TX_SCAN_LIMIT", 50),
			BalanceStaleness: getDuration("TON_BALANCE_STALENESS", time.Minute),
		},
		Telegram: config.TelegramConfigs{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			AdminChatID: getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, s.configs); err != nil {
			panic(err)
		}
	}

	s.ctx = xcontext.WithConfigs(s.ctx, *s.configs)
}

func (s *srv) loadLogger() {
	level := logger.INFO
	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		level = logger.DEBUG
	case "warning":
		level = logger.WARNING
	case "error":
		level = logger.ERROR
	case "silence":
		level = logger.SILENCE
	}

	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
	s.ctx = xcontext.WithHTTPClient(s.ctx, &http.Client{Timeout: 30 * time.Second})

	node, err := snowflake.NewNode(int64(getInt("NODE_ID", 1)))
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithSnowflakeNode(s.ctx, node)
}

func (s *srv) loadDatabase() {
	logLevel := gormlogger.Error
	switch s.configs.Database.LogLevel {
	case "silent":
		logLevel = gormlogger.Silent
	case "warn":
		logLevel = gormlogger.Warn
	case "info":
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(s.configs.Database.ConnectionString()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
}

func (s *srv) loadRedis() {
	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadEndpoint() {
	s.tokenEngine = jwt.NewEngine[model.AccessToken](
		s.configs.Auth.TokenSecret, s.configs.Auth.TokenExpiration)

	if s.configs.Telegram.BotToken != "" {
		s.telegramClient = telegram.New(s.configs.Telegram)
	}

	s.tonClient = ton.NewClient(s.configs.Ton.APIURL, s.configs.Ton.APIKey)
	s.balanceFetcher = ton.NewCachedBalanceFetcher(s.tonClient)
}

func (s *srv) loadRepos() {
	s.roundRepo = repository.NewRoundRepository()
	s.ticketRepo = repository.NewTicketRepository()
	s.auditLogRepo = repository.NewAuditLogRepository()
	s.analyticsEventRepo = repository.NewAnalyticsEventRepository()
}

func (s *srv) loadDomains() {
	s.lotteryDomain = domain.NewLotteryDomain(
		s.roundRepo, s.ticketRepo, s.auditLogRepo,
		s.balanceFetcher, s.redisClient, s.telegramClient)
	s.analyticsDomain = domain.NewAnalyticsDomain(s.analyticsEventRepo)
}

func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return def
}

func getInt(key string, def int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}

	return value
}

func getFloat(key string, def float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}

	return value
}

func getDuration(key string, def time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}

	return value
}
