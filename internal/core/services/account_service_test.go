package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"libtrack/internal/adapters/persistence/memory"
	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/config"
	"libtrack/internal/core/domain"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/clock"
	"libtrack/internal/pkg/idgen"
	"libtrack/internal/pkg/password"
)

type accountFixture struct {
	store    *memory.CatalogStore
	tokens   repositories.RefreshTokenRepository
	clock    *clock.Fixed
	lending  *services.LendingService
	accounts *services.AccountService
}

func givenAccounts(t *testing.T) *accountFixture {
	t.Helper()
	password.Cost = bcrypt.MinCost

	db, err := config.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:           "test_secret",
		RefreshSecret:    "test_refresh_secret",
		AccessTokenMins:  15,
		RefreshTokenDays: 7,
	}}

	store := memory.NewCatalogStore()
	ids := idgen.NewSequence()
	clk := clock.NewFixed(time.Now())
	lending := services.NewLendingService(store, memory.NewLoanLedger(), domain.ServerEnforcedPolicy{}, ids)
	tokens := repositories.NewRefreshTokenRepository(db)

	return &accountFixture{
		store:    store,
		tokens:   tokens,
		clock:    clk,
		lending:  lending,
		accounts: services.NewAccountService(repositories.NewUserRepository(db), tokens, lending, ids, clk, cfg),
	}
}

func studentInput() *services.RegisterInput {
	return &services.RegisterInput{
		FirstName: "Aarav",
		LastName:  "Kumar",
		Email:     "Aarav@Example.com",
		Username:  "Aarav",
		Password:  "student123",
		Role:      "student",
		RollNo:    "STU-010",
	}
}

func Test_Register_Student_CreatesStudentRecord(t *testing.T) {
	// arrange
	f := givenAccounts(t)

	// act
	resp, err := f.accounts.Register(context.Background(), studentInput())

	// assert
	require.NoError(t, err)
	assert.Equal(t, "u_1", resp.User.ID)
	assert.Equal(t, "aarav@example.com", resp.User.Email)
	assert.Equal(t, "aarav", resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	student, err := f.store.GetStudent(context.Background(), "STU-010")
	require.NoError(t, err)
	assert.Equal(t, "Aarav Kumar", student.Name)

	claims, err := f.accounts.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "STU-010", claims.StudentID)
	assert.Equal(t, "student", claims.Role)
}

func Test_Register_RollNoDifferingOnlyInCase_LinksExistingStudent(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateStudent(ctx, &domain.Student{ID: "STU-010", Name: "Aarav Kumar"}))
	in := studentInput()
	in.RollNo = "stu-010"

	// act
	resp, err := f.accounts.Register(ctx, in)

	// assert
	require.NoError(t, err)
	claims, err := f.accounts.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "STU-010", claims.StudentID)

	_, err = f.accounts.Login(ctx, &services.LoginInput{Identifier: "aarav", Password: "student123"})
	require.NoError(t, err)

	students, err := f.store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func Test_Register_Admin_RequiresVerifiedAdmin(t *testing.T) {
	adminInput := func(by domain.Actor) *services.RegisterInput {
		return &services.RegisterInput{
			FirstName:    "Meera",
			LastName:     "Iyer",
			Email:        "meera@example.com",
			Username:     "meera",
			Password:     "librarian1",
			Role:         "admin",
			RegisteredBy: by,
		}
	}

	tests := []struct {
		name string
		by   domain.Actor
		want error
	}{
		{"anonymous", domain.Anonymous(), domain.ErrUnauthorized},
		{"verified student", domain.Actor{UserID: "u_9", StudentID: "STU-009", Role: domain.RoleStudent, Verified: true}, domain.ErrUnauthorized},
		{"unverified admin", domain.Actor{UserID: "adm_9", Role: domain.RoleAdmin}, domain.ErrUnauthorized},
		{"verified admin", domain.Actor{UserID: "adm_9", Role: domain.RoleAdmin, Verified: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := givenAccounts(t)

			resp, err := f.accounts.Register(context.Background(), adminInput(tt.by))

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", resp.User.Role)
		})
	}
}

func Test_Register_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *services.RegisterInput)
		want   error
	}{
		{"student without roll number", func(in *services.RegisterInput) { in.RollNo = "" }, domain.ErrInvalidInput},
		{"short password", func(in *services.RegisterInput) { in.Password = "short" }, domain.ErrInvalidInput},
		{"unknown role", func(in *services.RegisterInput) { in.Role = "librarian" }, domain.ErrInvalidInput},
		{"duplicate email", func(in *services.RegisterInput) { in.Username = "other"; in.RollNo = "STU-011" }, domain.ErrDuplicateID},
		{"duplicate username", func(in *services.RegisterInput) { in.Email = "other@example.com"; in.RollNo = "STU-011" }, domain.ErrDuplicateID},
		{"duplicate roll number ignoring case", func(in *services.RegisterInput) {
			in.Email = "other@example.com"
			in.Username = "other"
			in.RollNo = "stu-010"
		}, domain.ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// arrange
			f := givenAccounts(t)
			_, err := f.accounts.Register(context.Background(), studentInput())
			require.NoError(t, err)

			in := studentInput()
			tt.mutate(in)

			// act
			_, err = f.accounts.Register(context.Background(), in)

			// assert
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func Test_Login_ByEmailOrUsername(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	_, err := f.accounts.Register(context.Background(), studentInput())
	require.NoError(t, err)

	for _, identifier := range []string{"aarav@example.com", "AARAV"} {
		// act
		resp, err := f.accounts.Login(context.Background(), &services.LoginInput{
			Identifier: identifier,
			Password:   "student123",
			Role:       "student",
		})

		// assert
		require.NoError(t, err, identifier)
		assert.Equal(t, "aarav", resp.User.Username)
	}
}

func Test_Login_InvalidCredentials(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	_, err := f.accounts.Register(context.Background(), studentInput())
	require.NoError(t, err)

	inputs := []*services.LoginInput{
		{Identifier: "aarav", Password: "wrong-password"},
		{Identifier: "nobody", Password: "student123"},
		{Identifier: "aarav", Password: "student123", Role: "admin"},
	}

	for _, in := range inputs {
		// act
		_, err := f.accounts.Login(context.Background(), in)

		// assert
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
}

func Test_RefreshToken_RotatesAndRevokesOld(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	registered, err := f.accounts.Register(context.Background(), studentInput())
	require.NoError(t, err)

	// act
	refreshed, err := f.accounts.RefreshToken(context.Background(), registered.RefreshToken)

	// assert
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	_, err = f.accounts.RefreshToken(context.Background(), registered.RefreshToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func Test_Logout_RevokesRefreshToken(t *testing.T) {
	// arrange
	f := givenAccounts(t)
	resp, err := f.accounts.Register(context.Background(), studentInput())
	require.NoError(t, err)

	// act
	require.NoError(t, f.accounts.Logout(context.Background(), resp.RefreshToken))

	// assert
	_, err = f.accounts.RefreshToken(context.Background(), resp.RefreshToken)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func Test_GetUserByID_Unknown(t *testing.T) {
	f := givenAccounts(t)

	_, err := f.accounts.GetUserByID(context.Background(), "u_404")

	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
