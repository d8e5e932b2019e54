package removal

import (
	"time"

	"github.com/google/uuid"
)

// Reason is why a reporter wants their listing taken down.
type Reason string

const (
	ReasonFound          Reason = "FOUND"
	ReasonNoLongerNeeded Reason = "NO_LONGER_NEEDED"
	ReasonDuplicate      Reason = "DUPLICATE"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonFound, ReasonNoLongerNeeded, ReasonDuplicate:
		return true
	}
	return false
}

// Token is a single-use removal confirmation handle, delivered by
// email so only the reporter can complete the takedown.
type Token struct {
	ID         int64      `db:"id"`
	Token      uuid.UUID  `db:"token"`
	ReportType string     `db:"report_type"`
	ReportID   int64      `db:"report_id"`
	Reason     Reason     `db:"reason"`
	CreatedAt  time.Time  `db:"created_at"`
	ExpiresAt  time.Time  `db:"expires_at"`
	UsedAt     *time.Time `db:"used_at"`
}

func (t *Token) Valid(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
