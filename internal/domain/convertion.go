package domain

import (
	"time"

	"github.com/tonlotto/backend/internal/entity"
	"github.com/tonlotto/backend/internal/model"
)

type roundCreatedPayload struct {
	StartTime time.Time `structs:"start_time"`
	EndTime   time.Time `structs:"end_time"`
}

type roundStoppedPayload struct {
	TicketCount int    `structs:"ticket_count"`
	CommitHash  string `structs:"commit_hash"`
}

type winnerSelectedPayload struct {
	Entropy      string `structs:"entropy"`
	WinnerIndex  int    `structs:"winner_index"`
	WinnerWallet string `structs:"winner_wallet"`
	WinnerTxHash string `structs:"winner_tx_hash"`
}

type withdrawPreparedPayload struct {
	Balance       float64 `structs:"balance"`
	Reserve       float64 `structs:"reserve"`
	ExpectedPrize float64 `structs:"expected_prize"`
}

type payoutCompletedPayload struct {
	PayoutTxHash string `structs:"payout_tx_hash"`
}

func convertRound(round *entity.Round) model.Round {
	resp := model.Round{
		ID:          round.ID,
		Status:      string(round.Status),
		StartTime:   round.StartTime,
		EndTime:     round.EndTime,
		TicketCount: round.TicketCount,
		CommitHash:  round.CommitHash,
		Winner:      round.WinnerWallet,
		WinnerTx:    round.WinnerTicketTxHash,
		Prize:       round.ExpectedPrize,
		PayoutTx:    round.PayoutTxHash,
	}

	if round.ClosedAt.Valid {
		t := round.ClosedAt.Time
		resp.ClosedAt = &t
	}

	if round.CompletedAt.Valid {
		t := round.CompletedAt.Time
		resp.CompletedAt = &t
	}

	return resp
}

// convertPublicRound redacts the winner identifiers down to short prefixes
// for unauthenticated surfaces.
func convertPublicRound(round *entity.Round) model.Round {
	resp := convertRound(round)
	resp.Winner = shortenHash(resp.Winner)
	resp.WinnerTx = shortenHash(resp.WinnerTx)
	resp.PayoutTx = shortenHash(resp.PayoutTx)
	return resp
}

func convertTicket(ticket *entity.Ticket) model.Ticket {
	return model.Ticket{
		ID:        ticket.ID,
		RoundID:   ticket.RoundID,
		Amount:    ticket.Amount,
		TxHash:    ticket.TxHash,
		CreatedAt: ticket.CreatedAt,
	}
}

func convertAuditLog(entry *entity.AuditLog) model.AuditLogEntry {
	return model.AuditLogEntry{
		Event:     string(entry.Event),
		Payload:   entry.Payload,
		CreatedAt: entry.CreatedAt,
	}
}

func shortenHash(s string) string {
	if len(s) <= 12 {
		return s
	}

	return s[:8] + "..." + s[len(s)-4:]
}
