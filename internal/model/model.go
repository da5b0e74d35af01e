package model

import "time"

const RoleAdmin = "admin"

type AccessToken struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type Round struct {
	ID          int64      `json:"id"`
	Status      string     `json:"status"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	TicketCount int        `json:"ticket_count"`
	CommitHash  string     `json:"commit_hash,omitempty"`
	Winner      string     `json:"winner,omitempty"`
	WinnerTx    string     `json:"winner_tx,omitempty"`
	Prize       float64    `json:"prize,omitempty"`
	PayoutTx    string     `json:"payout_tx,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Ticket struct {
	ID        int64     `json:"id"`
	RoundID   int64     `json:"round_id"`
	Amount    float64   `json:"amount"`
	TxHash    string    `json:"tx_hash"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLogEntry struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
