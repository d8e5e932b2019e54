package client

// Listing fallback strings. "Not provided" is reserved for fields the
// reporter chose to leave out; "Not specified" covers everything else.
const (
	FallbackNotSpecified = "Not specified"
	FallbackNotProvided  = "Not provided"
)

// ListingView is the display-ready projection of a report: every
// optional field resolved to text, never empty.
type ListingView struct {
	ID             int64
	Type           string
	DocumentType   string
	Name           string
	DocumentNumber string
	Location       string
	Date           string
	Description    string
	ImageURL       string
	IsPremium      bool
}

// PresentListing flattens a report for display. It works on masked
// and revealed records alike; masking is the server's business.
func PresentListing(r *DocumentReport) ListingView {
	view := ListingView{
		ID:             r.ID,
		Type:           r.Type,
		DocumentType:   orFallback(&r.DocumentType.Name, FallbackNotSpecified),
		Name:           orFallback(r.Name(), FallbackNotSpecified),
		DocumentNumber: orFallback(r.DocumentNumber, FallbackNotProvided),
		Description:    orFallback(r.Description, FallbackNotProvided),
		ImageURL:       orFallback(r.Image, ""),
		IsPremium:      r.IsPremium,
	}

	switch r.Type {
	case "found":
		view.Location = orFallback(r.WhereFound, FallbackNotSpecified)
		view.Date = orFallback(r.WhenFound, FallbackNotSpecified)
	default:
		view.Location = orFallback(r.WhereLost, FallbackNotSpecified)
		view.Date = orFallback(r.WhenLost, FallbackNotSpecified)
	}
	return view
}

func orFallback(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
