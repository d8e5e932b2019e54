package client

import (
	"encoding/json"
	"time"
)

// DocumentTypeInfo is one entry of the document taxonomy.
type DocumentTypeInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TypeName tolerates both serializations the API has used for
// document_type: a bare string or an {id, name} object.
type TypeName struct {
	ID   int64
	Name string
}

func (t *TypeName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = s
		return nil
	}
	var obj DocumentTypeInfo
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.ID = obj.ID
	t.Name = obj.Name
	return nil
}

func (t TypeName) MarshalJSON() ([]byte, error) {
	return json.Marshal(DocumentTypeInfo{ID: t.ID, Name: t.Name})
}

// ContactDetails is the payment-gated contact block.
type ContactDetails struct {
	FullName string  `json:"full_name"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email,omitempty"`
}

// DocumentReport is the normalized report shape the SDK exposes for
// both lost and found records, masked or revealed depending on which
// endpoint produced it.
type DocumentReport struct {
	ID             int64           `json:"id"`
	Type           string          `json:"type"` // "lost" or "found"
	DocumentType   TypeName        `json:"document_type"`
	OwnerName      *string         `json:"owner_name,omitempty"`
	FinderName     *string         `json:"finder_name,omitempty"`
	DocumentNumber *string         `json:"document_number"`
	IssueDate      *string         `json:"issue_date,omitempty"`
	WhereLost      *string         `json:"where_lost,omitempty"`
	WhenLost       *string         `json:"when_lost,omitempty"`
	WhereFound     *string         `json:"where_found,omitempty"`
	WhenFound      *string         `json:"when_found,omitempty"`
	Description    *string         `json:"description"`
	Image          *string         `json:"image"`
	CreatedAt      time.Time       `json:"created_at"`
	IsPremium      bool            `json:"is_premium,omitempty"`
	Contact        *ContactDetails `json:"contact,omitempty"`
	ContactLocked  bool            `json:"contact_locked,omitempty"`
}

// Name returns whichever of owner/finder name the record carries.
func (r *DocumentReport) Name() *string {
	if r.OwnerName != nil {
		return r.OwnerName
	}
	return r.FinderName
}

// VerifyResult is the outcome of an ownership check.
type VerifyResult struct {
	Verified bool            `json:"verified"`
	Document *DocumentReport `json:"document,omitempty"`
}

// PaymentStatus is one poll of a mobile-money charge.
type PaymentStatus struct {
	Paid    bool            `json:"paid"`
	Status  string          `json:"status"`
	Contact *ContactDetails `json:"contact,omitempty"`
}

// SearchQuery narrows a listing request.
type SearchQuery struct {
	DocumentTypeID int64
	Search         string
	Limit          int
	Offset         int
}

// StartClaimInput begins an email-verified claim.
type StartClaimInput struct {
	ReportType     string `json:"report_type"`
	ReportID       int64  `json:"report_id"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
}
