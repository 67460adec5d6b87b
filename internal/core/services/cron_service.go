package services

import (
	"context"
	"log"

	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/config"
	"libtrack/internal/core/domain"
	"libtrack/internal/pkg/clock"

	"github.com/robfig/cron/v3"
)

// OverdueSummary is the result of one overdue scan
type OverdueSummary struct {
	Count      int
	TotalFines int
}

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	lending          *LendingService
	clock            clock.Clock
	schedules        config.CronConfig
}

// NewCronService creates a new cron service
func NewCronService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	lending *LendingService,
	clk clock.Clock,
	schedules config.CronConfig,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		lending:          lending,
		clock:            clk,
		schedules:        schedules,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedules.TokenCleanupSchedule, func() {
		s.PurgeExpiredTokens(context.Background())
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.schedules.OverdueReportSchedule, func() {
		s.ReportOverdue(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("🚀 CronService started [tokens: %s, overdue: %s]",
		s.schedules.TokenCleanupSchedule,
		s.schedules.OverdueReportSchedule,
	)
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) PurgeExpiredTokens(ctx context.Context) int64 {
	n, err := s.refreshTokenRepo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		log.Printf("❌ Refresh token cleanup error: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("🗑️ Deleted %d expired refresh tokens", n)
	}
	return n
}

// ReportOverdue logs every overdue book with the fine it would incur now
func (s *CronService) ReportOverdue(ctx context.Context) OverdueSummary {
	books, err := s.lending.ListBooks(ctx)
	if err != nil {
		log.Printf("❌ Overdue scan error: %v", err)
		return OverdueSummary{}
	}

	now := s.clock.Now()
	var summary OverdueSummary
	for _, book := range books {
		if !domain.IsOverdue(book, now) {
			continue
		}
		fine := s.lending.CurrentFine(book, now)
		summary.Count++
		summary.TotalFines += fine
		log.Printf("⏰ Overdue: %s held by %s (fine %d)", book.ID, book.BorrowedBy(), fine)
	}

	if summary.Count > 0 {
		log.Printf("⏰ %d overdue books, %d in fines", summary.Count, summary.TotalFines)
	}
	return summary
}
