package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docufind/backend/internal/config"
)

// Service sends the transactional emails DocuFind produces: claim
// verification links, match notifications and removal confirmations.
type Service struct {
	db      *gorm.DB
	channel Channel
	logger  *zap.Logger
}

// NewService wires the configured channel and migrates the delivery log.
func NewService(ctx context.Context, db *gorm.DB, cfg config.EmailConfig, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&EmailLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate email log: %w", err)
	}

	var channel Channel
	switch cfg.Provider {
	case "ses":
		ses, err := NewSESChannel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		channel = ses
	default:
		channel = NewSMTPChannel(cfg)
	}

	return &Service{db: db, channel: channel, logger: logger}, nil
}

// NewServiceWithChannel is used by tests and custom wiring.
func NewServiceWithChannel(db *gorm.DB, channel Channel, logger *zap.Logger) *Service {
	return &Service{db: db, channel: channel, logger: logger}
}

// SendClaimVerification emails the token link that lets a claimant
// reveal the full record.
func (s *Service) SendClaimVerification(ctx context.Context, to string, data ClaimVerificationData) error {
	html, err := renderTemplate(TemplateClaimVerification, data)
	if err != nil {
		return err
	}
	return s.deliver(ctx, &Email{
		To:       to,
		Subject:  "Verify your claim for Lost & Found Report",
		Body:     "Please verify your claim: " + data.VerifyURL,
		HTMLBody: html,
		Template: TemplateClaimVerification,
	})
}

// SendMatchNotification tells a lost-report owner their document was
// handed in.
func (s *Service) SendMatchNotification(ctx context.Context, to string, data MatchNotificationData) error {
	html, err := renderTemplate(TemplateMatchNotification, data)
	if err != nil {
		return err
	}
	return s.deliver(ctx, &Email{
		To:       to,
		Subject:  fmt.Sprintf("Good News: Your %s has been found!", data.DocumentType),
		Body:     "A matching document has been found: " + data.VerificationLink,
		HTMLBody: html,
		Template: TemplateMatchNotification,
	})
}

// SendRemovalConfirmation emails the link that finalizes a listing
// removal.
func (s *Service) SendRemovalConfirmation(ctx context.Context, to string, data RemovalConfirmData) error {
	html, err := renderTemplate(TemplateRemovalConfirm, data)
	if err != nil {
		return err
	}
	return s.deliver(ctx, &Email{
		To:       to,
		Subject:  "Confirm removal of your DocuFind listing",
		Body:     "Confirm the removal: " + data.ConfirmURL,
		HTMLBody: html,
		Template: TemplateRemovalConfirm,
	})
}

func (s *Service) deliver(ctx context.Context, email *Email) error {
	err := s.channel.Send(ctx, email)

	entry := &EmailLog{
		ID:        uuid.New(),
		Recipient: email.To,
		Template:  email.Template,
		Subject:   email.Subject,
		Success:   err == nil,
		SentAt:    time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
		s.logger.Error("Failed to send email",
			zap.String("template", email.Template),
			zap.String("to", email.To),
			zap.Error(err))
	} else {
		s.logger.Info("Email sent",
			zap.String("template", email.Template),
			zap.String("to", email.To))
	}

	if s.db != nil {
		if dbErr := s.db.WithContext(ctx).Create(entry).Error; dbErr != nil {
			s.logger.Warn("Failed to record email log", zap.Error(dbErr))
		}
	}
	return err
}
