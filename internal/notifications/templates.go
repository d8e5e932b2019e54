package notifications

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	TemplateClaimVerification = "claim_verification"
	TemplateMatchNotification = "match_notification"
	TemplateRemovalConfirm    = "removal_confirmation"
)

var templates = template.Must(template.New("emails").Parse(`
{{define "claim_verification"}}
<p>Hello,</p>
<p>You asked to verify a claim on {{.ReportType}} report #{{.ReportID}}.</p>
<p><a href="{{.VerifyURL}}">Verify your claim</a></p>
<p>This link expires in {{.ExpiresHours}} hours. If you did not request it,
you can ignore this email.</p>
{{end}}

{{define "match_notification"}}
<p>Good news, {{.OwnerName}}!</p>
<p>A {{.DocumentType}} matching your lost report
{{if .DocumentNumber}}(number {{.DocumentNumber}}){{end}} has been handed in.</p>
<p><a href="{{.VerificationLink}}">View the found document</a></p>
<p>You will be asked to verify your ownership before any details are revealed.</p>
{{end}}

{{define "removal_confirmation"}}
<p>Hello,</p>
<p>We received a request to remove the listing "{{.DocumentName}}".</p>
<p><a href="{{.ConfirmURL}}">Confirm the removal</a></p>
<p>The listing stays online until you confirm. This link expires in
{{.ExpiresHours}} hours.</p>
{{end}}
`))

// renderTemplate produces the HTML body for a named email template.
func renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ClaimVerificationData feeds the claim_verification template.
type ClaimVerificationData struct {
	ReportType   string
	ReportID     int64
	VerifyURL    string
	ExpiresHours int
}

// MatchNotificationData feeds the match_notification template.
type MatchNotificationData struct {
	OwnerName        string
	DocumentType     string
	DocumentNumber   string
	VerificationLink string
}

// RemovalConfirmData feeds the removal_confirmation template.
type RemovalConfirmData struct {
	DocumentName string
	ConfirmURL   string
	ExpiresHours int
}
