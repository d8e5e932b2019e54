package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PremiumExpirer clears lapsed premium listings.
type PremiumExpirer interface {
	ExpirePremium(ctx context.Context) (int64, error)
}

// TokenPurger deletes expired single-use tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance sweeps: premium expiry and
// token purges. One instance runs inside the workers binary.
type Scheduler struct {
	cron     *cron.Cron
	reports  PremiumExpirer
	claims   TokenPurger
	removals TokenPurger
	logger   *zap.Logger
}

func NewScheduler(reports PremiumExpirer, claims, removals TokenPurger, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		reports:  reports,
		claims:   claims,
		removals: removals,
		logger:   logger,
	}
}

// Start registers the sweeps and starts the cron loop. Each sweep also
// runs once immediately so a restart never leaves stale rows behind.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 10m", s.expirePremium); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.purgeTokens); err != nil {
		return err
	}

	s.expirePremium()
	s.purgeTokens()

	s.cron.Start()
	s.logger.Info("Maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running sweeps.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler stopped")
}

func (s *Scheduler) expirePremium() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.reports.ExpirePremium(ctx)
	if err != nil {
		s.logger.Error("Premium expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Premium listings expired", zap.Int64("count", n))
	}
}

func (s *Scheduler) purgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	claims, err := s.claims.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("Claim token purge failed", zap.Error(err))
	}
	removals, err := s.removals.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("Removal token purge failed", zap.Error(err))
	}
	if claims > 0 || removals > 0 {
		s.logger.Info("Expired tokens purged",
			zap.Int64("claim_tokens", claims),
			zap.Int64("removal_tokens", removals))
	}
}
