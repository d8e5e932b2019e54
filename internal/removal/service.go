package removal

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
	ErrInvalidReportType  = errors.New("invalid report type")
	ErrInvalidReason      = errors.New("invalid removal reason")
	ErrReportNotFound     = errors.New("report not found")
	ErrVerificationFailed = errors.New("ownership verification failed")
	ErrNoContactEmail     = errors.New("report has no contact email")
	ErrTokenNotFound      = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Verifier is the same ownership check the verify endpoint uses.
type Verifier interface {
	Matches(rec *reports.Record, input string) bool
}

// ReportSource is the slice of the reports service removal touches.
type ReportSource interface {
	Get(ctx context.Context, reportType reports.ReportType, id int64) (*reports.Record, error)
	Contact(ctx context.Context, reportType reports.ReportType, id int64) (*reports.ContactInfo, error)
	Deactivate(ctx context.Context, reportType reports.ReportType, id int64) error
}

type RemovalRequest struct {
	ReportType        string
	ReportID          int64
	VerificationInput string
	Reason            Reason
}

type Service interface {
	// Request verifies ownership and emails a confirmation link to the
	// contact address on file. The listing stays up until confirmed.
	Request(ctx context.Context, req RemovalRequest) error

	// Confirm consumes the emailed token and deactivates the listing.
	// Returns the display name of the removed document.
	Confirm(ctx context.Context, token string) (string, error)

	PurgeExpired(ctx context.Context) (int64, error)
}

type removalService struct {
	repo        Repository
	reports     ReportSource
	verifier    Verifier
	mailer      *notifications.Service
	frontendURL string
	tokenTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	repo Repository,
	reportSvc ReportSource,
	verifier Verifier,
	mailer *notifications.Service,
	frontendURL string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) Service {
	return &removalService{
		repo:        repo,
		reports:     reportSvc,
		verifier:    verifier,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		tokenTTL:    tokenTTL,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *removalService) Request(ctx context.Context, req RemovalRequest) error {
	reportType := reports.ReportType(req.ReportType)
	if !reportType.Valid() {
		return ErrInvalidReportType
	}
	if !req.Reason.Valid() {
		return ErrInvalidReason
	}

	rec, err := s.reports.Get(ctx, reportType, req.ReportID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrReportNotFound
	}
	if !s.verifier.Matches(rec, req.VerificationInput) {
		s.logger.Info("Removal refused",
			zap.String("report_type", req.ReportType),
			zap.Int64("report_id", req.ReportID))
		return ErrVerificationFailed
	}

	contact, err := s.reports.Contact(ctx, reportType, req.ReportID)
	if err != nil {
		return err
	}
	if contact == nil || contact.Email == nil || *contact.Email == "" {
		return ErrNoContactEmail
	}

	t := &Token{
		Token:      uuid.New(),
		ReportType: req.ReportType,
		ReportID:   req.ReportID,
		Reason:     req.Reason,
		ExpiresAt:  s.now().Add(s.tokenTTL),
	}
	if err := s.repo.CreateToken(ctx, t); err != nil {
		return fmt.Errorf("failed to create removal token: %w", err)
	}

	confirmURL := fmt.Sprintf("%s/confirm-removal?token=%s", s.frontendURL, t.Token)
	email := *contact.Email
	name := rec.DisplayName()

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendRemovalConfirmation(sendCtx, email, notifications.RemovalConfirmData{
			DocumentName: name,
			ConfirmURL:   confirmURL,
			ExpiresHours: int(s.tokenTTL.Hours()),
		}); err != nil {
			s.logger.Error("Removal confirmation email failed", zap.Error(err))
		}
	}()

	s.logger.Info("Removal requested",
		zap.String("report_type", req.ReportType),
		zap.Int64("report_id", req.ReportID),
		zap.String("reason", string(req.Reason)))
	return nil
}

func (s *removalService) Confirm(ctx context.Context, token string) (string, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return "", ErrTokenNotFound
	}

	t, err := s.repo.GetToken(ctx, parsed)
	if err != nil {
		return "", err
	}
	if t == nil || t.UsedAt != nil {
		return "", ErrTokenNotFound
	}
	if !s.now().Before(t.ExpiresAt) {
		return "", ErrTokenExpired
	}

	rec, err := s.reports.Get(ctx, reports.ReportType(t.ReportType), t.ReportID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrReportNotFound
	}

	consumed, err := s.repo.Consume(ctx, t.ID)
	if err != nil {
		return "", err
	}
	if !consumed {
		// a concurrent confirm got here first
		return "", ErrTokenNotFound
	}

	if err := s.reports.Deactivate(ctx, reports.ReportType(t.ReportType), t.ReportID); err != nil {
		return "", err
	}

	s.logger.Info("Report removed",
		zap.String("report_type", t.ReportType),
		zap.Int64("report_id", t.ReportID),
		zap.String("reason", string(t.Reason)))
	return rec.DisplayName(), nil
}

func (s *removalService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx)
}
