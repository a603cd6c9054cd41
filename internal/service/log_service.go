package service

import (
	"context"
	"time"

	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
)

const (
	DefaultLogLimit         = 100
	DefaultLogRetentionDays = 30
)

type LogService struct {
	LogRepo repository.EmailLogRepositoryInterface
	Logger  *logger.Logger
	now     func() time.Time
}

func NewLogService(logs repository.EmailLogRepositoryInterface, log *logger.Logger) *LogService {
	if log == nil {
		log = logger.Nop()
	}
	return &LogService{LogRepo: logs, Logger: log.WithComponent("email_logs"), now: time.Now}
}

// GetEmailLogs returns the newest entries first, optionally only those with status.
func (s *LogService) GetEmailLogs(ctx context.Context, limit int, status string) ([]*model.EmailLogEntry, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return s.LogRepo.List(ctx, limit, status)
}

// CleanupOldLogs deletes entries older than days and reports how many were removed.
func (s *LogService) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultLogRetentionDays
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	n, err := s.LogRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.Logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("cleaned up old email logs")
	return n, nil
}
