package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"docufind/backend/internal/claims"
	"docufind/backend/internal/notifications"
	"docufind/backend/internal/reports"
)

// TokenMinter issues claim tokens for match notification links so the
// owner lands straight on the verified claim page.
type TokenMinter interface {
	CreateToken(ctx context.Context, reportType string, reportID int64, email string) (*claims.VerificationToken, error)
}

// Service watches new reports for exact counterparts: same document
// type, same name, same number (case-insensitive). Owners of matched
// lost reports are emailed once per lost/found pair.
type Service struct {
	repo        reports.Repository
	minter      TokenMinter
	mailer      *notifications.Service
	frontendURL string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewService(repo reports.Repository, minter TokenMinter, mailer *notifications.Service, frontendURL string, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		minter:      minter,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		timeout:     30 * time.Second,
		logger:      logger,
	}
}

// ReportCreated is wired as the reports match hook; it runs off the
// request path, so failures are logged and never surfaced.
func (s *Service) ReportCreated(reportType reports.ReportType, id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var err error
	switch reportType {
	case reports.TypeLost:
		err = s.lostCreated(ctx, id)
	case reports.TypeFound:
		err = s.foundCreated(ctx, id)
	}
	if err != nil {
		s.logger.Error("Match scan failed",
			zap.String("report_type", string(reportType)),
			zap.Int64("report_id", id),
			zap.Error(err))
	}
}

func (s *Service) lostCreated(ctx context.Context, lostID int64) error {
	lost, err := s.repo.GetLost(ctx, lostID)
	if err != nil || lost == nil {
		return err
	}
	founds, err := s.repo.FindMatchingFound(ctx, lost)
	if err != nil {
		return err
	}
	for i := range founds {
		if err := s.notify(ctx, lost, &founds[i]); err != nil {
			s.logger.Error("Match notification failed",
				zap.Int64("lost_id", lost.ID),
				zap.Int64("found_id", founds[i].ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) foundCreated(ctx context.Context, foundID int64) error {
	found, err := s.repo.GetFound(ctx, foundID)
	if err != nil || found == nil {
		return err
	}
	losts, err := s.repo.FindMatchingLost(ctx, found)
	if err != nil {
		return err
	}
	for i := range losts {
		if err := s.notify(ctx, &losts[i], found); err != nil {
			s.logger.Error("Match notification failed",
				zap.Int64("lost_id", losts[i].ID),
				zap.Int64("found_id", found.ID),
				zap.Error(err))
		}
	}
	return nil
}

// notify emails the lost-report owner a claim link for the found
// report. Each lost/found pair is notified at most once.
func (s *Service) notify(ctx context.Context, lost *reports.LostDocument, found *reports.FoundDocument) error {
	done, err := s.repo.MatchNotified(ctx, lost.ID, found.ID)
	if err != nil || done {
		return err
	}

	contact, err := s.repo.GetContact(ctx, lost.ContactID)
	if err != nil {
		return err
	}
	if contact == nil || contact.Email == nil || *contact.Email == "" {
		s.logger.Info("Match found but owner has no email",
			zap.Int64("lost_id", lost.ID),
			zap.Int64("found_id", found.ID))
		return nil
	}

	dt, err := s.repo.GetDocumentType(ctx, lost.DocumentTypeID)
	if err != nil || dt == nil {
		return err
	}

	vt, err := s.minter.CreateToken(ctx, string(reports.TypeFound), found.ID, *contact.Email)
	if err != nil {
		return err
	}

	number := ""
	if lost.DocumentNumber != nil {
		number = *lost.DocumentNumber
	}
	err = s.mailer.SendMatchNotification(ctx, *contact.Email, notifications.MatchNotificationData{
		OwnerName:        lost.OwnerName,
		DocumentType:     dt.Name,
		DocumentNumber:   number,
		VerificationLink: fmt.Sprintf("%s/verify?token=%s", s.frontendURL, vt.Token),
	})
	if err != nil {
		return err
	}

	if err := s.repo.RecordMatchNotification(ctx, lost.ID, found.ID); err != nil {
		return err
	}
	s.logger.Info("Match notified",
		zap.Int64("lost_id", lost.ID),
		zap.Int64("found_id", found.ID))
	return nil
}
