package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/config"
	"libtrack/internal/core/services"
)

func Test_ReportOverdue_SumsCurrentFines(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	ctx := context.Background()
	_, err := f.lending.RegisterStudent(ctx, "S1", "Diya Patel")
	require.NoError(t, err)
	_, err = f.lending.AddBook(ctx, "Clean Code", "Robert C. Martin")
	require.NoError(t, err)
	_, err = f.lending.AddBook(ctx, "Refactoring", "Martin Fowler")
	require.NoError(t, err)

	_, err = f.lending.Borrow(ctx, "b_1", "S1", jan1)
	require.NoError(t, err)
	_, err = f.lending.Borrow(ctx, "b_2", "S1", jan1.AddDate(0, 0, 2))
	require.NoError(t, err)

	// b_1 due Jan 8, b_2 due Jan 10
	f.clock.Set(time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC))
	cron := services.NewCronService(f.tokens, f.lending, f.clock, config.CronConfig{})

	// act
	summary := cron.ReportOverdue(ctx)

	// assert
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 5, summary.TotalFines)
}

func Test_PurgeExpiredTokens(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, studentInput())
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(ctx, &models.RefreshToken{
		UserID:    "u_1",
		TokenHash: "stale",
		ExpiresAt: f.clock.Now().Add(-time.Hour),
	}))
	cron := services.NewCronService(f.tokens, f.lending, f.clock, config.CronConfig{})

	// act
	deleted := cron.PurgeExpiredTokens(ctx)

	// assert
	assert.Equal(t, int64(1), deleted)
}

func Test_CronService_StartRejectsBadSchedule(t *testing.T) {
	f := givenAccounts(t)
	cron := services.NewCronService(f.tokens, f.lending, f.clock, config.CronConfig{
		TokenCleanupSchedule:  "not a schedule",
		OverdueReportSchedule: "@daily",
	})

	assert.Error(t, cron.Start())
}
