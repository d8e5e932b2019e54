package notifications

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records every outbound email attempt for support and
// abuse investigations. Persisted via AutoMigrate.
type EmailLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Recipient string    `gorm:"size:255;index"`
	Template  string    `gorm:"size:64"`
	Subject   string    `gorm:"size:255"`
	Success   bool
	Error     string `gorm:"size:1024"`
	SentAt    time.Time
}

func (EmailLog) TableName() string {
	return "email_logs"
}
