package claims

import (
	"time"

	"github.com/google/uuid"
)

// VerificationToken authorizes one emailed follow-up action without a
// login session. Tokens are single-use for claim verification but stay
// valid for protected-image access until they expire.
type VerificationToken struct {
	ID           int64      `db:"id"`
	Token        uuid.UUID  `db:"token"`
	ReportType   string     `db:"report_type"`
	ReportID     int64      `db:"report_id"`
	ContactEmail string     `db:"contact_email"`
	ContactPhone *string    `db:"contact_phone"`
	CreatedAt    time.Time  `db:"created_at"`
	ExpiresAt    time.Time  `db:"expires_at"`
	UsedAt       *time.Time `db:"used_at"`
}

// Valid reports whether the token can still authorize actions.
func (t *VerificationToken) Valid(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}
