package entity

// Ticket is one accepted deposit. Its snowflake ID preserves insertion
// order; TxHash is the idempotency key of the whole ledger.
type Ticket struct {
	SnowFlakeBase

	RoundID int64 `gorm:"index"`
	Round   Round `gorm:"foreignKey:RoundID"`

	Sender string `gorm:"index"`
	Amount float64

	TxHash string `gorm:"uniqueIndex"`
}
