package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"
)

func Test_UserRepository_LookupsAndExists(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo := repositories.NewUserRepository(givenDB(t))
	rollNo := "STU-001"
	require.NoError(t, repo.Create(ctx, &models.User{
		ID:        "u_1",
		FirstName: "Aarav",
		LastName:  "Kumar",
		Email:     "aarav@example.com",
		Username:  "aarav",
		Password:  "hash",
		Role:      "student",
		RollNo:    &rollNo,
	}))

	// act + assert
	byEmail, err := repo.GetByIdentifier(ctx, "aarav@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u_1", byEmail.ID)

	byUsername, err := repo.GetByIdentifier(ctx, "aarav")
	require.NoError(t, err)
	assert.Equal(t, "STU-001", byUsername.StudentID())

	exists, err := repo.ExistsByRollNo(ctx, "stu-001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.CountByRole(ctx, "student")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_RefreshTokenRepository_RevokeAndPurge(t *testing.T) {
	// arrange
	ctx := context.Background()
	db := givenDB(t)
	require.NoError(t, repositories.NewUserRepository(db).Create(ctx, &models.User{
		ID: "u_1", FirstName: "A", LastName: "B", Email: "a@example.com", Username: "ab", Password: "hash", Role: "admin",
	}))
	repo := repositories.NewRefreshTokenRepository(db)
	now := time.Now()
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{UserID: "u_1", TokenHash: "live", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{UserID: "u_1", TokenHash: "stale", ExpiresAt: now.Add(-time.Hour)}))

	// act
	require.NoError(t, repo.RevokeByTokenHash(ctx, "live"))
	deleted, err := repo.DeleteExpired(ctx, now)

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByTokenHash(ctx, "live")
	assert.Error(t, err)
}
