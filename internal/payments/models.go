package payments

import (
	"time"

	"github.com/google/uuid"

	"docufind/backend/internal/payments/momo"
)

// Payment purposes.
const (
	PurposeContact = "contact" // unlock a report's contact details
	PurposePremium = "premium" // promote a lost report
)

// Payment is one mobile-money charge. The row id doubles as the MoMo
// X-Reference-Id, so the provider and the database agree on identity.
type Payment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Purpose     string    `db:"purpose" json:"purpose"`
	ReportType  string    `db:"report_type" json:"report_type"`
	ReportID    int64     `db:"report_id" json:"report_id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	UserEmail   *string   `db:"user_email" json:"user_email,omitempty"`
	Amount      int       `db:"amount" json:"amount"`
	Currency    string    `db:"currency" json:"currency"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Paid reports whether the charge completed.
func (p *Payment) Paid() bool {
	return p.Status == momo.StatusSuccessful
}

// ContactAccess records a granted contact unlock. Rows are written when
// the backing payment reaches SUCCESSFUL and are never revoked.
type ContactAccess struct {
	ID         int64     `db:"id"`
	PaymentID  uuid.UUID `db:"payment_id"`
	ReportType string    `db:"report_type"`
	ReportID   int64     `db:"report_id"`
	UserEmail  string    `db:"user_email"`
	GrantedAt  time.Time `db:"granted_at"`
}
