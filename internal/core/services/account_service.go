package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"
	"libtrack/internal/config"
	"libtrack/internal/core/domain"
	"libtrack/internal/pkg/clock"
	"libtrack/internal/pkg/idgen"
	"libtrack/internal/pkg/jwt"
	"libtrack/internal/pkg/pagination"
	"libtrack/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	ErrOldPasswordWrong = errors.New("old password is incorrect")
)

// AccountService handles registration, login and token rotation
type AccountService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	lending          *LendingService
	ids              idgen.Generator
	clock            clock.Clock
	cfg              *config.Config
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	lending *LendingService,
	ids idgen.Generator,
	clk clock.Clock,
	cfg *config.Config,
) *AccountService {
	return &AccountService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		lending:          lending,
		ids:              ids,
		clock:            clk,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	RollNo    string `json:"roll_no"`

	// RegisteredBy is the caller. Admin accounts need a verified admin.
	RegisteredBy domain.Actor `json:"-"`
}

// LoginInput represents login input. Identifier is an email or a username.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a student or admin account
func (s *AccountService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	// 1. Normalize and validate
	in := normalizeRegister(input)
	if err := validateRegister(in); err != nil {
		return nil, err
	}
	if in.Role == string(domain.RoleAdmin) && !(in.RegisteredBy.Verified && in.RegisteredBy.IsAdmin()) {
		return nil, fmt.Errorf("%w: only an admin can create admin accounts", domain.ErrUnauthorized)
	}

	// 2. Duplicate checks
	if err := s.checkDuplicates(ctx, in); err != nil {
		return nil, err
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	// 4. Student accounts link to a student record, created first so a
	// failure leaves no account behind. The stored id keeps its casing.
	if in.Role == string(domain.RoleStudent) {
		student, err := s.lending.EnsureStudent(ctx, in.RollNo, in.FirstName+" "+in.LastName)
		if err != nil {
			return nil, err
		}
		in.RollNo = student.ID
	}

	// 5. Create user
	prefix := "u"
	if in.Role == string(domain.RoleAdmin) {
		prefix = "adm"
	}
	user := &models.User{
		ID:        s.ids.NewID(prefix),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Username:  in.Username,
		Password:  hashedPassword,
		Role:      in.Role,
	}
	if in.RollNo != "" {
		rollNo := in.RollNo
		user.RollNo = &rollNo
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User registered: %s (%s)", user.Username, user.Role)

	return s.issue(ctx, user)
}

// Login authenticates a user by email or username and role
func (s *AccountService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Identifier))
	if identifier == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// 1. Find user
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Selected role must match the account
	if role := strings.ToLower(strings.TrimSpace(input.Role)); role != "" && role != user.Role {
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Derive the student record if it is missing
	if err := s.ensureStudent(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Username)

	return s.issue(ctx, user)
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Find token in DB by hash
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired(s.clock.Now()) {
		return nil, ErrTokenExpired
	}

	// 3. Get user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 4. Revoke old refresh token (Token Rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Username)

	return s.issue(ctx, user)
}

// Logout revokes the refresh token
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AccountService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user: %s", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AccountService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AccountService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsersOutput represents one page of accounts
type ListUsersOutput struct {
	Users []*models.UserResponse
	Total int64
}

// ListUsers lists accounts with pagination (Admin only)
func (s *AccountService) ListUsers(ctx context.Context, params *pagination.Params, search string) (*ListUsersOutput, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	out := &ListUsersOutput{Users: make([]*models.UserResponse, len(users)), Total: total}
	for i, u := range users {
		out.Users[i] = u.ToResponse()
	}
	return out, nil
}

// ChangePassword verifies the old password, stores the new one and revokes
// every refresh token of the user
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(oldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(newPassword) {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, password.MinLength)
	}

	hashedPassword, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	log.Printf("🔑 Password changed for user: %s", user.Username)
	return s.LogoutAll(ctx, user.ID)
}

func (s *AccountService) ensureStudent(ctx context.Context, user *models.User) error {
	if user.Role != string(domain.RoleStudent) || user.StudentID() == "" {
		return nil
	}
	_, err := s.lending.EnsureStudent(ctx, user.StudentID(), user.FullName())
	return err
}

func (s *AccountService) checkDuplicates(ctx context.Context, in *RegisterInput) error {
	exists, err := s.userRepo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("email %s: %w", in.Email, domain.ErrDuplicateID)
	}

	exists, err = s.userRepo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("username %s: %w", in.Username, domain.ErrDuplicateID)
	}

	if in.RollNo == "" {
		return nil
	}
	exists, err = s.userRepo.ExistsByRollNo(ctx, in.RollNo)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("roll number %s: %w", in.RollNo, domain.ErrDuplicateID)
	}
	return nil
}

// issue generates a token pair and stores the refresh token hash
func (s *AccountService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.StudentID(),
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: s.clock.Now().AddDate(0, 0, s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func normalizeRegister(input *RegisterInput) *RegisterInput {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = string(domain.RoleStudent)
	}
	return &RegisterInput{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Username:  strings.ToLower(strings.TrimSpace(input.Username)),
		Password:  input.Password,
		Role:      role,
		RollNo:    strings.TrimSpace(input.RollNo),

		RegisteredBy: input.RegisteredBy,
	}
}

func validateRegister(in *RegisterInput) error {
	switch {
	case in.FirstName == "" || in.LastName == "":
		return fmt.Errorf("%w: first and last name are required", domain.ErrInvalidInput)
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: a valid email is required", domain.ErrInvalidInput)
	case len(in.Username) < 3:
		return fmt.Errorf("%w: username must be at least 3 characters", domain.ErrInvalidInput)
	case !password.ValidatePassword(in.Password):
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, password.MinLength)
	}

	switch domain.Role(in.Role) {
	case domain.RoleStudent:
		if in.RollNo == "" {
			return fmt.Errorf("%w: roll number is required for students", domain.ErrInvalidInput)
		}
	case domain.RoleAdmin:
		in.RollNo = ""
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}
	return nil
}
