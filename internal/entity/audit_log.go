package entity

import "github.com/tonlotto/backend/pkg/enum"

type AuditEvent string

var (
	AuditRoundCreated     = enum.New(AuditEvent("round_created"))
	AuditRoundStopped     = enum.New(AuditEvent("round_stopped"))
	AuditRoundEmpty       = enum.New(AuditEvent("round_finished_empty"))
	AuditWinnerSelected   = enum.New(AuditEvent("winner_selected"))
	AuditWithdrawPrepared = enum.New(AuditEvent("withdraw_prepared"))
	AuditPayoutCompleted  = enum.New(AuditEvent("payout_completed"))
)

// AuditLog is append-only. Rows are never updated or deleted; every
// state-changing decision of the lottery is recorded here with its inputs.
type AuditLog struct {
	Base

	RoundID int64      `gorm:"index"`
	Event   AuditEvent `gorm:"index"`
	Payload Map
}
