package premium

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docufind/backend/internal/payments"
	"docufind/backend/internal/reports"
)

var (
	ErrNotFound           = errors.New("lost report not found")
	ErrVerificationFailed = errors.New("ownership verification failed")
)

// Verifier is the ownership check premium upgrades reuse. The input
// must match the report's owner name or document number.
type Verifier interface {
	Matches(rec *reports.Record, input string) bool
}

// ReportSource is the slice of the reports service upgrades touch.
type ReportSource interface {
	Get(ctx context.Context, reportType reports.ReportType, id int64) (*reports.Record, error)
	ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error
}

// PaymentProcessor charges and polls the premium fee.
type PaymentProcessor interface {
	RequestPremiumPayment(ctx context.Context, lostID int64, phone string) (*payments.Payment, error)
	CheckStatus(ctx context.Context, id uuid.UUID) (*payments.Payment, error)
}

type Service interface {
	// Upgrade verifies ownership and starts the premium charge.
	Upgrade(ctx context.Context, lostID int64, verificationInput, phone string) (*payments.Payment, error)

	// Status refreshes the payment and applies the upgrade on the
	// first successful poll.
	Status(ctx context.Context, paymentID uuid.UUID) (*payments.Payment, error)
}

type premiumService struct {
	reports  ReportSource
	verifier Verifier
	payments PaymentProcessor
	duration time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(reportSvc ReportSource, verifier Verifier, paymentSvc PaymentProcessor, duration time.Duration, logger *zap.Logger) Service {
	return &premiumService{
		reports:  reportSvc,
		verifier: verifier,
		payments: paymentSvc,
		duration: duration,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *premiumService) Upgrade(ctx context.Context, lostID int64, verificationInput, phone string) (*payments.Payment, error) {
	rec, err := s.reports.Get(ctx, reports.TypeLost, lostID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if !s.verifier.Matches(rec, verificationInput) {
		s.logger.Info("Premium upgrade refused", zap.Int64("lost_id", lostID))
		return nil, ErrVerificationFailed
	}
	return s.payments.RequestPremiumPayment(ctx, lostID, phone)
}

func (s *premiumService) Status(ctx context.Context, paymentID uuid.UUID) (*payments.Payment, error) {
	p, err := s.payments.CheckStatus(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Paid() && p.Purpose == payments.PurposePremium {
		// replays are absorbed by the per-payment guard in the store
		expiresAt := s.now().Add(s.duration)
		if err := s.reports.ActivatePremium(ctx, p.ReportID, p.ID, expiresAt); err != nil {
			s.logger.Error("Failed to apply premium upgrade",
				zap.String("payment_id", p.ID.String()),
				zap.Error(err))
			return nil, err
		}
	}
	return p, nil
}
