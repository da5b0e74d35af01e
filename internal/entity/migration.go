package entity

import "time"

// Migration records the schema versions already applied to this database.
type Migration struct {
	Version   string `gorm:"primaryKey"`
	CreatedAt time.Time
}
