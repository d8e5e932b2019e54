package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docufind/backend/internal/reports"
)

var ErrRateLimited = errors.New("too many verification attempts")

// Result of an ownership check. Document is only populated when the
// guess matched; it is the client's job to stop rendering it after the
// reveal window.
type Result struct {
	Verified bool
	Document *reports.FullReport
}

type Service interface {
	// Verify compares a free-text guess against the authoritative
	// record. Empty guesses are legal and always fail.
	Verify(ctx context.Context, reportType reports.ReportType, id int64, input, clientIP string) (*Result, error)

	// Matches runs the shared-secret comparison alone, without rate
	// limiting; the premium and removal flows reuse it.
	Matches(rec *reports.Record, input string) bool
}

type verifyService struct {
	reports  reports.Service
	rdb      *redis.Client
	attempts int
	window   time.Duration
	logger   *zap.Logger
}

func NewService(reportsSvc reports.Service, rdb *redis.Client, attempts int, window time.Duration, logger *zap.Logger) Service {
	return &verifyService{
		reports:  reportsSvc,
		rdb:      rdb,
		attempts: attempts,
		window:   window,
		logger:   logger,
	}
}

func (s *verifyService) Verify(ctx context.Context, reportType reports.ReportType, id int64, input, clientIP string) (*Result, error) {
	if err := s.allow(ctx, reportType, id, clientIP); err != nil {
		return nil, err
	}

	rec, err := s.reports.Get(ctx, reportType, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		// absent records fail the same way wrong guesses do
		return &Result{Verified: false}, nil
	}

	if !s.Matches(rec, input) {
		s.logger.Info("Verification attempt failed",
			zap.String("report_type", string(reportType)),
			zap.Int64("report_id", id))
		return &Result{Verified: false}, nil
	}

	full, err := s.reports.Full(ctx, reportType, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Verification succeeded",
		zap.String("report_type", string(reportType)),
		zap.Int64("report_id", id))
	return &Result{Verified: true, Document: full}, nil
}

// Matches accepts either the name on the record or its document
// number, compared case-insensitively after trimming.
func (s *verifyService) Matches(rec *reports.Record, input string) bool {
	guess := strings.TrimSpace(input)
	if guess == "" {
		return false
	}
	if rec.Name != "" && strings.EqualFold(guess, strings.TrimSpace(rec.Name)) {
		return true
	}
	if rec.DocumentNumber != nil && *rec.DocumentNumber != "" &&
		strings.EqualFold(guess, strings.TrimSpace(*rec.DocumentNumber)) {
		return true
	}
	return false
}

// allow enforces the per-report, per-IP attempt budget. Redis being
// down must not take verification with it; the limiter fails open.
func (s *verifyService) allow(ctx context.Context, reportType reports.ReportType, id int64, clientIP string) error {
	if s.rdb == nil {
		return nil
	}
	key := fmt.Sprintf("verify:%s:%d:%s", reportType, id, clientIP)

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("Rate limiter unavailable", zap.Error(err))
		return nil
	}
	if count == 1 {
		s.rdb.Expire(ctx, key, s.window)
	}
	if count > int64(s.attempts) {
		return ErrRateLimited
	}
	return nil
}
