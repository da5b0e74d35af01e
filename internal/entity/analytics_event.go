package entity

// AnalyticsEvent is one allow-listed webapp funnel event.
type AnalyticsEvent struct {
	SnowFlakeBase

	Event  string `gorm:"index"`
	UserID int64
	Wallet string
	Extra  Map

	IP        string
	UserAgent string
}
