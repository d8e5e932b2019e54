package reports

import (
	"time"

	"github.com/google/uuid"
)

// ReportType tags the two roles a document report can have. Every
// record is exactly one of the two.
type ReportType string

const (
	TypeLost  ReportType = "lost"
	TypeFound ReportType = "found"
)

func (t ReportType) Valid() bool {
	return t == TypeLost || t == TypeFound
}

// DocumentType is the document taxonomy (ID card, passport, ...).
// Managed by administrators; read-only through the API.
type DocumentType struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ContactInfo is the reporter's contact block. It is never included
// in masked serializations and is payment-gated on claim pages.
type ContactInfo struct {
	ID       int64   `json:"-" db:"id"`
	FullName string  `json:"full_name" db:"full_name"`
	Phone    string  `json:"phone" db:"phone"`
	Email    *string `json:"email,omitempty" db:"email"`
}

// LostDocument is a report by an owner who lost a document.
type LostDocument struct {
	ID               int64      `db:"id"`
	OwnerName        string     `db:"owner_name"`
	DocumentTypeID   int64      `db:"document_type_id"`
	DocumentNumber   *string    `db:"document_number"`
	IssueDate        *time.Time `db:"issue_date"`
	WhereLost        *string    `db:"where_lost"`
	WhenLost         *time.Time `db:"when_lost"`
	Description      *string    `db:"description"`
	ImageKey         *string    `db:"image_key"`
	ImageBlurredKey  *string    `db:"image_blurred_key"`
	ContactID        int64      `db:"contact_id"`
	CreatedAt        time.Time  `db:"created_at"`
	IsPremium        bool       `db:"is_premium"`
	PremiumExpiresAt *time.Time `db:"premium_expires_at"`
	PremiumPaymentID *uuid.UUID `db:"premium_payment_id"`
	DeactivatedAt    *time.Time `db:"deactivated_at"`
}

// PremiumActive reports whether the listing currently holds paid
// priority placement.
func (d *LostDocument) PremiumActive(now time.Time) bool {
	return d.IsPremium && d.PremiumExpiresAt != nil && d.PremiumExpiresAt.After(now)
}

// FoundDocument is a report by a finder. The original image is only
// reachable through verification; listings reference the blurred copy.
type FoundDocument struct {
	ID              int64      `db:"id"`
	FoundName       *string    `db:"found_name"`
	DocumentTypeID  int64      `db:"document_type_id"`
	DocumentNumber  *string    `db:"document_number"`
	WhereFound      *string    `db:"where_found"`
	WhenFound       *time.Time `db:"when_found"`
	Description     *string    `db:"description"`
	ImageKey        string     `db:"image_key"`
	ImageBlurredKey *string    `db:"image_blurred_key"`
	ContactID       int64      `db:"contact_id"`
	CreatedAt       time.Time  `db:"created_at"`
	DeactivatedAt   *time.Time `db:"deactivated_at"`
}

// MatchNotification records that a lost-report owner was emailed
// about an exactly matching found report, so they are not mailed twice.
type MatchNotification struct {
	ID         int64     `db:"id"`
	LostID     int64     `db:"lost_id"`
	FoundID    int64     `db:"found_id"`
	NotifiedAt time.Time `db:"notified_at"`
}

// PublicReport is the masked serialization served by list/search and
// detail endpoints. Name and number are masked, the image reference
// always points at the blurred rendition and the contact block is
// absent entirely.
type PublicReport struct {
	ID               int64        `json:"id"`
	Type             ReportType   `json:"type"`
	DocumentType     DocumentType `json:"document_type"`
	OwnerName        *string      `json:"owner_name,omitempty"`
	FinderName       *string      `json:"finder_name,omitempty"`
	DocumentNumber   *string      `json:"document_number"`
	WhereLost        *string      `json:"where_lost,omitempty"`
	WhenLost         *string      `json:"when_lost,omitempty"`
	WhereFound       *string      `json:"where_found,omitempty"`
	WhenFound        *string      `json:"when_found,omitempty"`
	Description      *string      `json:"description"`
	Image            *string      `json:"image"`
	CreatedAt        time.Time    `json:"created_at"`
	IsPremium        bool         `json:"is_premium,omitempty"`
	PremiumExpiresAt *time.Time   `json:"premium_expires_at,omitempty"`
}

// FullReport is the unmasked serialization returned after a
// successful ownership check or claim-token verification. Contact is
// nil until the payment-gated unlock succeeds for the same context.
type FullReport struct {
	ID             int64        `json:"id"`
	Type           ReportType   `json:"type"`
	DocumentType   DocumentType `json:"document_type"`
	OwnerName      *string      `json:"owner_name,omitempty"`
	FinderName     *string      `json:"finder_name,omitempty"`
	DocumentNumber *string      `json:"document_number"`
	IssueDate      *string      `json:"issue_date,omitempty"`
	WhereLost      *string      `json:"where_lost,omitempty"`
	WhenLost       *string      `json:"when_lost,omitempty"`
	WhereFound     *string      `json:"where_found,omitempty"`
	WhenFound      *string      `json:"when_found,omitempty"`
	Description    *string      `json:"description"`
	Image          *string      `json:"image"`
	CreatedAt      time.Time    `json:"created_at"`
	Contact        *ContactInfo `json:"contact"`
	ContactLocked  bool         `json:"contact_locked"`
}

// SearchFilter narrows the public listing queries.
type SearchFilter struct {
	DocumentTypeID *int64
	Search         string // substring match on name / document number
	Limit          int
	Offset         int
}
