package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Auth      AuthConfigs
	Redis     RedisConfigs
	Lottery   LotteryConfigs `toml:"lottery"`
	Ton       TonConfigs     `toml:"ton"`
	Telegram  TelegramConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string

	// LogLevel is the gorm logger level (silent, error, warn, info).
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
}

func (s *ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type AuthConfigs struct {
	TokenSecret     string
	TokenExpiration time.Duration
}

type RedisConfigs struct {
	Addr string
}

type LotteryConfigs struct {
	// MinDeposit is the smallest deposit (in TON) accepted as a ticket.
	MinDeposit float64 `toml:"min_deposit"`

	// RoundDuration is the fixed epoch length of a round.
	RoundDuration time.Duration `toml:"-"`

	// MaxTicketsPerRound closes the round early once reached.
	MaxTicketsPerRound int `toml:"max_tickets_per_round"`

	// PrizeReserve (in TON) is held back from the contract balance when the
	// expected prize is recorded.
	PrizeReserve float64 `toml:"prize_reserve"`

	// HistoryLimit caps the completed-round history page size.
	HistoryLimit int `toml:"history_limit"`

	// SnapshotTTL is how long the public current-round snapshot may be
	// served from cache.
	SnapshotTTL time.Duration `toml:"-"`
}

type TonConfigs struct {
	// APIURL is the toncenter-compatible HTTP API base, e.g.
	// https://toncenter.com/api/v2.
	APIURL string `toml:"api_url"`

	APIKey          string `toml:"api_key"`
	ContractAddress string `toml:"contract_address"`

	PollInterval time.Duration `toml:"-"`

	// TxScanLimit is the number of recent transactions requested per poll.
	TxScanLimit int `toml:"tx_scan_limit"`

	// BalanceStaleness is the staleness window of the cached balance
	// reading.
	BalanceStaleness time.Duration `toml:"-"`
}

type TelegramConfigs struct {
	BotToken    string
	AdminChatID string
}
