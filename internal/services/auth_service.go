package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/taskboard/taskboard-api/internal/apperrors"
	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials deliberately does not reveal whether the
	// username or the password was wrong.
	ErrInvalidCredentials = apperrors.New(apperrors.KindAuthentication, "Invalid username or password")
	ErrAccountInactive    = apperrors.New(apperrors.KindAuthentication, "Account is inactive")
	ErrUserNotFound       = apperrors.New(apperrors.KindNotFound, "User not found")
)

// usernames are stored lowercase; letters, digits and underscore only
var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// AuthService handles registration, credential verification, and token
// issuance. Every domain failure is audited before it propagates.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenService
	audit    *AuditService
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, audit *AuditService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		audit:    audit,
		logger:   logger,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult bundles the authenticated user with its token pair.
type LoginResult struct {
	User   *models.User
	Tokens *TokenPair
}

// Register validates and creates a new user. The user row and its
// registration audit entry commit in one transaction; persistence failures
// are audited with no user before propagating.
func (s *AuthService) Register(input RegisterInput, ip string) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	fields := map[string]string{}

	if input.Password != input.PasswordConfirm {
		fields["password"] = "Password fields didn't match."
	} else if len(input.Password) < constants.MinPasswordLength {
		fields["password"] = fmt.Sprintf("Password must be at least %d characters long.", constants.MinPasswordLength)
	}

	if username == "" || len(username) > constants.MaxUsernameLength || !usernamePattern.MatchString(username) {
		fields["username"] = "Username can only contain letters, numbers and underscores."
	} else if taken, err := s.usernameTaken(username); err != nil {
		return nil, err
	} else if taken {
		fields["username"] = "Username already exists."
	}

	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "Enter a valid email address."
	} else if taken, err := s.emailTaken(email); err != nil {
		return nil, err
	} else if taken {
		fields["email"] = "Email already exists."
	}

	if len(fields) > 0 {
		return nil, apperrors.NewValidation("Validation failed", fields)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewStorage("failed to hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	entry := s.audit.Entry(RecordInput{
		User:        user,
		Action:      models.AuditActionCreate,
		Feature:     "user",
		Description: fmt.Sprintf("User registered: %s", username),
		IPAddress:   ip,
		Status:      models.AuditStatusSuccess,
	})

	if err := s.userRepo.CreateWithAudit(user, entry); err != nil {
		s.logger.Error("registration failed", zap.String("username", username), zap.Error(err))

		if _, auditErr := s.audit.Record(RecordInput{
			User:        nil,
			Action:      models.AuditActionError,
			Feature:     "user",
			Description: fmt.Sprintf("Registration failed: %v", err),
			IPAddress:   ip,
			Status:      models.AuditStatusFailed,
		}); auditErr != nil {
			return nil, auditErr
		}

		return nil, apperrors.NewStorage("failed to create user", err)
	}

	s.audit.Emit(entry)

	tokens, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, apperrors.NewStorage("failed to issue tokens", err)
	}

	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Login verifies credentials and issues a token pair. Every failure path is
// audited as ERROR/authentication before returning.
func (s *AuthService) Login(input LoginInput, ip string) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.failLogin(nil, fmt.Sprintf("Login failed - invalid credentials: %s", username), ip, ErrInvalidCredentials)
		}
		return nil, apperrors.NewStorage("failed to find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, s.failLogin(user, fmt.Sprintf("Login failed - invalid credentials: %s", username), ip, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, s.failLogin(user, "Login failed - inactive account", ip, ErrAccountInactive)
	}

	tokens, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, apperrors.NewStorage("failed to issue tokens", err)
	}

	if _, err := s.audit.Record(RecordInput{
		User:        user,
		Action:      models.AuditActionCreate,
		Feature:     "authentication",
		Description: "User logged in successfully",
		IPAddress:   ip,
		Status:      models.AuditStatusSuccess,
	}); err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Tokens: tokens}, nil
}

// Refresh verifies a refresh token and issues a fresh access token.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}
		return "", apperrors.NewStorage("failed to find user", err)
	}

	if !user.IsActive {
		return "", ErrAccountInactive
	}

	return s.tokens.IssueAccess(user)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.NewStorage("failed to find user", err)
	}

	return user, nil
}

// failLogin audits a failed login attempt, then returns the domain error.
func (s *AuthService) failLogin(user *models.User, description, ip string, cause error) error {
	s.logger.Warn("login failed", zap.String("reason", description), zap.String("ip", ip))

	if _, err := s.audit.Record(RecordInput{
		User:        user,
		Action:      models.AuditActionError,
		Feature:     "authentication",
		Description: description,
		IPAddress:   ip,
		Status:      models.AuditStatusFailed,
	}); err != nil {
		return err
	}

	return cause
}

func (s *AuthService) usernameTaken(username string) (bool, error) {
	if _, err := s.userRepo.FindByUsername(username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.NewStorage("failed to check username", err)
	}
	return true, nil
}

func (s *AuthService) emailTaken(email string) (bool, error) {
	if _, err := s.userRepo.FindByEmail(email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.NewStorage("failed to check email", err)
	}
	return true, nil
}
