package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docufind/backend/internal/notifications"
	"docufind/backend/internal/reports"
)

var (
	ErrInvalidReportType = errors.New("invalid report type")
	ErrReportNotFound    = errors.New("report not found")
	ErrNumberMismatch    = errors.New("document number does not match our records")
	ErrTokenNotFound     = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

// ContactUnlocker answers whether a successful contact payment exists
// for a report/claimant pair. Implemented by the payments service.
type ContactUnlocker interface {
	Unlocked(ctx context.Context, reportType string, reportID int64, email string) (*reports.ContactInfo, error)
}

type StartClaimRequest struct {
	ReportType     string
	ReportID       int64
	ContactEmail   string
	ContactPhone   string
	DocumentNumber string // optional hint, must match when both sides have one
}

type Service interface {
	StartClaim(ctx context.Context, req StartClaimRequest) error
	VerifyClaim(ctx context.Context, token string) (*reports.FullReport, error)

	// CreateToken mints a token without emailing; the matching
	// notifier composes its own message around it.
	CreateToken(ctx context.Context, reportType string, reportID int64, email string) (*VerificationToken, error)

	// AuthorizeImage validates a token for protected-image access.
	AuthorizeImage(ctx context.Context, token, reportType string, reportID int64) error

	PurgeExpired(ctx context.Context) (int64, error)
}

type claimService struct {
	repo        Repository
	reports     reports.Service
	mailer      *notifications.Service
	unlocker    ContactUnlocker
	frontendURL string
	tokenTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	repo Repository,
	reportsSvc reports.Service,
	mailer *notifications.Service,
	unlocker ContactUnlocker,
	frontendURL string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) Service {
	return &claimService{
		repo:        repo,
		reports:     reportsSvc,
		mailer:      mailer,
		unlocker:    unlocker,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		tokenTTL:    tokenTTL,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *claimService) StartClaim(ctx context.Context, req StartClaimRequest) error {
	reportType := reports.ReportType(req.ReportType)
	if !reportType.Valid() {
		return ErrInvalidReportType
	}

	rec, err := s.reports.Get(ctx, reportType, req.ReportID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrReportNotFound
	}

	// An optional document-number hint must agree with the record when
	// both sides have one. Failure is deliberately vague downstream.
	provided := strings.TrimSpace(req.DocumentNumber)
	if provided != "" && rec.DocumentNumber != nil && *rec.DocumentNumber != "" {
		if !strings.EqualFold(provided, strings.TrimSpace(*rec.DocumentNumber)) {
			return ErrNumberMismatch
		}
	}

	vt, err := s.createToken(ctx, req.ReportType, req.ReportID, req.ContactEmail, req.ContactPhone)
	if err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/verify?token=%s", s.frontendURL, vt.Token)

	// Email delivery is out of band; claim start acknowledges as soon
	// as the token exists.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendClaimVerification(sendCtx, vt.ContactEmail, notifications.ClaimVerificationData{
			ReportType:   vt.ReportType,
			ReportID:     vt.ReportID,
			VerifyURL:    verifyURL,
			ExpiresHours: int(s.tokenTTL.Hours()),
		}); err != nil {
			s.logger.Error("Claim verification email failed", zap.Error(err))
		}
	}()

	s.logger.Info("Claim started",
		zap.String("report_type", vt.ReportType),
		zap.Int64("report_id", vt.ReportID))
	return nil
}

func (s *claimService) VerifyClaim(ctx context.Context, token string) (*reports.FullReport, error) {
	vt, err := s.lookupToken(ctx, token)
	if err != nil {
		return nil, err
	}
	// Single use for the detail reveal. The used token stays on file so
	// protected-image access keeps working until expiry.
	if vt.UsedAt != nil {
		return nil, ErrTokenNotFound
	}

	full, err := s.reports.Full(ctx, reports.ReportType(vt.ReportType), vt.ReportID)
	if err != nil {
		return nil, err
	}
	if full == nil {
		return nil, ErrReportNotFound
	}

	// Contact details stay locked until the payment unlock succeeds
	// for this same claim context.
	contact, err := s.unlocker.Unlocked(ctx, vt.ReportType, vt.ReportID, vt.ContactEmail)
	if err != nil {
		return nil, err
	}
	if contact != nil {
		full.Contact = contact
		full.ContactLocked = false
	}

	if err := s.repo.MarkUsed(ctx, vt.ID); err != nil {
		s.logger.Warn("Failed to mark token used", zap.Error(err))
	}
	return full, nil
}

func (s *claimService) CreateToken(ctx context.Context, reportType string, reportID int64, email string) (*VerificationToken, error) {
	return s.createToken(ctx, reportType, reportID, email, "")
}

func (s *claimService) AuthorizeImage(ctx context.Context, token, reportType string, reportID int64) error {
	vt, err := s.lookupToken(ctx, token)
	if err != nil {
		return err
	}
	if vt.ReportType != reportType || vt.ReportID != reportID {
		return ErrTokenNotFound
	}
	return nil
}

func (s *claimService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx)
}

func (s *claimService) createToken(ctx context.Context, reportType string, reportID int64, email, phone string) (*VerificationToken, error) {
	vt := &VerificationToken{
		Token:        uuid.New(),
		ReportType:   reportType,
		ReportID:     reportID,
		ContactEmail: strings.TrimSpace(email),
		ExpiresAt:    s.now().Add(s.tokenTTL),
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		vt.ContactPhone = &phone
	}
	if err := s.repo.CreateToken(ctx, vt); err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}
	return vt, nil
}

func (s *claimService) lookupToken(ctx context.Context, token string) (*VerificationToken, error) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrTokenNotFound
	}
	vt, err := s.repo.GetToken(ctx, id)
	if err != nil {
		return nil, err
	}
	if vt == nil {
		return nil, ErrTokenNotFound
	}
	if !vt.Valid(s.now()) {
		return nil, ErrTokenExpired
	}
	return vt, nil
}
