package entity

import (
	"database/sql"
	"time"

	"github.com/tonlotto/backend/pkg/enum"
)

type RoundStatus string

var (
	RoundActive           = enum.New(RoundStatus("active"))
	RoundFinishedEmpty    = enum.New(RoundStatus("finished_empty"))
	RoundStopped          = enum.New(RoundStatus("stopped"))
	RoundWinnerSelected   = enum.New(RoundStatus("winner_selected"))
	RoundWithdrawPrepared = enum.New(RoundStatus("withdraw_prepared"))
	RoundCompleted        = enum.New(RoundStatus("completed"))
)

// Round is one lottery epoch. Its ID is a small monotonically increasing
// number assigned by the database, published as-is to players.
type Round struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Status RoundStatus `gorm:"index"`

	// Current is non-NULL exactly while the round is active. The unique
	// index makes the database reject a second active round.
	Current *bool `gorm:"uniqueIndex:idx_rounds_current"`

	StartTime time.Time
	EndTime   time.Time

	TicketCount int

	// CommitHash binds the winner selection to the ordered ticket set. It is
	// written once when the round is stopped and never changed.
	CommitHash string

	WinnerWallet       string
	WinnerTicketTxHash string

	ExpectedPrize float64
	PayoutTxHash  string

	ClosedAt    sql.NullTime
	CompletedAt sql.NullTime
}
