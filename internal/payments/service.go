package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docufind/backend/internal/payments/momo"
	"docufind/backend/internal/reports"
	"docufind/backend/pkg/workflows"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrReportNotFound  = errors.New("report not found")
)

// Gateway is the slice of the MoMo client the service needs.
type Gateway interface {
	RequestToPay(ctx context.Context, in momo.RequestToPayInput) error
	Status(ctx context.Context, referenceID string) (*momo.StatusResult, error)
}

// ContactPaymentRequest asks to unlock one report's contact details.
type ContactPaymentRequest struct {
	ReportType  reports.ReportType
	ReportID    int64
	PhoneNumber string
	UserEmail   string
}

type Service interface {
	RequestContactPayment(ctx context.Context, req ContactPaymentRequest) (*Payment, error)
	RequestPremiumPayment(ctx context.Context, lostID int64, phone string) (*Payment, error)

	// CheckStatus refreshes a pending payment from the provider and
	// persists the outcome. Terminal payments are returned as stored.
	CheckStatus(ctx context.Context, id uuid.UUID) (*Payment, error)

	// Contact resolves the unlocked contact for a paid contact payment.
	Contact(ctx context.Context, p *Payment) (*reports.ContactInfo, error)

	// Unlocked returns the contact when the caller already paid for
	// this report, nil otherwise. Claim verification relies on it.
	Unlocked(ctx context.Context, reportType string, reportID int64, email string) (*reports.ContactInfo, error)
}

type paymentService struct {
	repo       Repository
	gateway    Gateway
	reports    reports.Service
	sm         *workflows.StateMachine
	contactFee int
	premiumFee int
	logger     *zap.Logger
}

func NewService(repo Repository, gateway Gateway, reportSvc reports.Service, contactFee, premiumFee int, logger *zap.Logger) Service {
	return &paymentService{
		repo:       repo,
		gateway:    gateway,
		reports:    reportSvc,
		sm:         workflows.NewPaymentStateMachine(),
		contactFee: contactFee,
		premiumFee: premiumFee,
		logger:     logger,
	}
}

func (s *paymentService) RequestContactPayment(ctx context.Context, req ContactPaymentRequest) (*Payment, error) {
	if !req.ReportType.Valid() {
		return nil, reports.ErrInvalidReportType
	}
	rec, err := s.reports.Get(ctx, req.ReportType, req.ReportID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrReportNotFound
	}

	email := req.UserEmail
	p := &Payment{
		ID:          uuid.New(),
		Purpose:     PurposeContact,
		ReportType:  string(req.ReportType),
		ReportID:    req.ReportID,
		PhoneNumber: req.PhoneNumber,
		Amount:      s.contactFee,
		Currency:    "RWF",
		Status:      momo.StatusPending,
	}
	if email != "" {
		p.UserEmail = &email
	}
	return s.charge(ctx, p, "Contact details unlock")
}

func (s *paymentService) RequestPremiumPayment(ctx context.Context, lostID int64, phone string) (*Payment, error) {
	rec, err := s.reports.Get(ctx, reports.TypeLost, lostID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrReportNotFound
	}

	p := &Payment{
		ID:          uuid.New(),
		Purpose:     PurposePremium,
		ReportType:  string(reports.TypeLost),
		ReportID:    lostID,
		PhoneNumber: phone,
		Amount:      s.premiumFee,
		Currency:    "RWF",
		Status:      momo.StatusPending,
	}
	return s.charge(ctx, p, "Premium listing upgrade")
}

// charge persists the payment and pushes the approval prompt. A gateway
// rejection fails the payment row immediately so status polls stop.
func (s *paymentService) charge(ctx context.Context, p *Payment, note string) (*Payment, error) {
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	err := s.gateway.RequestToPay(ctx, momo.RequestToPayInput{
		ReferenceID:  p.ID.String(),
		PhoneNumber:  p.PhoneNumber,
		Amount:       strconv.Itoa(p.Amount),
		PayerMessage: note,
		PayeeNote:    note,
	})
	if err != nil {
		s.logger.Error("Payment request failed",
			zap.String("payment_id", p.ID.String()),
			zap.Error(err))
		if _, markErr := s.repo.UpdateStatus(ctx, p.ID, momo.StatusPending, momo.StatusFailed); markErr != nil {
			s.logger.Error("Failed to mark payment failed", zap.Error(markErr))
		}
		return nil, err
	}

	s.logger.Info("Payment initiated",
		zap.String("payment_id", p.ID.String()),
		zap.String("purpose", p.Purpose),
		zap.Int("amount", p.Amount))
	return p, nil
}

func (s *paymentService) CheckStatus(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if s.sm.IsTerminal(p.Status) {
		return p, nil
	}

	result, err := s.gateway.Status(ctx, p.ID.String())
	if err != nil {
		// leave the row pending; the next poll may reach the provider
		s.logger.Warn("Status check unavailable",
			zap.String("payment_id", p.ID.String()),
			zap.Error(err))
		return p, nil
	}

	if result.Status == p.Status || !s.sm.CanTransition(p.Status, result.Status) {
		return p, nil
	}

	applied, err := s.repo.UpdateStatus(ctx, p.ID, p.Status, result.Status)
	if err != nil {
		return nil, err
	}
	if !applied {
		// another poll won the race; re-read the stored outcome
		return s.repo.GetPayment(ctx, id)
	}

	p.Status = result.Status
	p.UpdatedAt = time.Now()
	s.logger.Info("Payment status updated",
		zap.String("payment_id", p.ID.String()),
		zap.String("status", p.Status))

	if p.Status == momo.StatusSuccessful && p.Purpose == PurposeContact && p.UserEmail != nil {
		if err := s.repo.GrantContactAccess(ctx, &ContactAccess{
			PaymentID:  p.ID,
			ReportType: p.ReportType,
			ReportID:   p.ReportID,
			UserEmail:  *p.UserEmail,
		}); err != nil {
			s.logger.Error("Failed to record contact access", zap.Error(err))
		}
	}
	return p, nil
}

func (s *paymentService) Contact(ctx context.Context, p *Payment) (*reports.ContactInfo, error) {
	if !p.Paid() || p.Purpose != PurposeContact {
		return nil, nil
	}
	return s.reports.Contact(ctx, reports.ReportType(p.ReportType), p.ReportID)
}

func (s *paymentService) Unlocked(ctx context.Context, reportType string, reportID int64, email string) (*reports.ContactInfo, error) {
	if email == "" {
		return nil, nil
	}
	ok, err := s.repo.HasContactAccess(ctx, reportType, reportID, email)
	if err != nil || !ok {
		return nil, err
	}
	return s.reports.Contact(ctx, reports.ReportType(reportType), reportID)
}
