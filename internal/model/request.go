package model

type SubmitDepositRequest struct {
	TxHash string  `json:"tx_hash"`
	Sender string  `json:"sender"`
	Amount float64 `json:"amount"`
}

type SubmitDepositResponse struct {
	Accepted     bool  `json:"accepted"`
	Duplicate    bool  `json:"duplicate"`
	BelowMinimum bool  `json:"below_minimum"`
	RoundID      int64 `json:"round_id,omitempty"`
	TicketID     int64 `json:"ticket_id,omitempty"`
}

type GetCurrentRoundRequest struct{}

type GetCurrentRoundResponse struct {
	Round   Round   `json:"round"`
	Pool    float64 `json:"pool"`
	Players int64   `json:"players"`
}

type GetRoundHistoryRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetRoundHistoryResponse struct {
	Rounds []Round `json:"rounds"`
}

type GetAddressSummaryRequest struct {
	Address string `json:"address"`
}

type GetAddressSummaryResponse struct {
	Address       string   `json:"address"`
	TotalInvested float64  `json:"total_invested"`
	TicketCount   int64    `json:"ticket_count"`
	Chance        float64  `json:"chance"`
	History       []Ticket `json:"history"`
}

type GetAuditLogRequest struct {
	RoundID int64 `json:"round_id"`
}

type GetAuditLogResponse struct {
	Entries []AuditLogEntry `json:"entries"`
}

type CloseRoundRequest struct {
	RoundID int64 `json:"round_id"`
}

type CloseRoundResponse struct {
	Round Round `json:"round"`
}

type SelectWinnerRequest struct {
	RoundID int64 `json:"round_id"`
}

type SelectWinnerResponse struct {
	Round Round `json:"round"`
}

type PrepareWithdrawRequest struct {
	RoundID int64 `json:"round_id"`
}

type PrepareWithdrawResponse struct {
	Round Round `json:"round"`
}

type ConfirmPayoutRequest struct {
	RoundID      int64  `json:"round_id"`
	PayoutTxHash string `json:"payout_tx_hash"`
}

type ConfirmPayoutResponse struct {
	Round       Round `json:"round"`
	NextRoundID int64 `json:"next_round_id"`
}

type CreateAnalyticsEventRequest struct {
	Event  string         `json:"event"`
	UserID int64          `json:"user_id"`
	Wallet string         `json:"wallet"`
	Extra  map[string]any `json:"extra"`
}

type CreateAnalyticsEventResponse struct{}

type GetAnalyticsFunnelRequest struct{}

type EventFunnel struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

type GetAnalyticsFunnelResponse struct {
	ByEvent []EventFunnel `json:"by_event"`
}
