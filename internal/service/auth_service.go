package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

const (
	staffIDPrefix    = "STF-"
	staffIDLength    = 6
	staffIDAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	staffIDAttempts  = 5
	resetTokenBytes  = 24
	genericResetInfo = "If that email exists, we sent a link"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// RateLimiter reports whether another hit for key is allowed in the current window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RegisterInput carries registration fields.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	Department domain.Department
	Phone      string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and password reset flows.
type AuthService struct {
	users         repository.UserRepository
	resets        repository.PasswordResetRepository
	tokenMgr      *auth.TokenManager
	mailer        Mailer
	resetLimiter  RateLimiter
	logger        *zap.Logger
	bcryptCost    int
	resetTTL      time.Duration
	publicBaseURL string
	now           func() time.Time
	newStaffID    func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Tokens            *auth.TokenManager
	Mailer            Mailer
	ResetLimiter      RateLimiter
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	resetTTL := cfg.Auth.PasswordResetTTL()
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AuthService{
		users:         deps.UserRepo,
		resets:        deps.PasswordResetRepo,
		tokenMgr:      tokens,
		mailer:        deps.Mailer,
		resetLimiter:  deps.ResetLimiter,
		logger:        logger,
		bcryptCost:    cfg.Auth.BcryptCost,
		resetTTL:      resetTTL,
		publicBaseURL: strings.TrimRight(cfg.App.PublicBaseURL, "/"),
		now:           time.Now,
		newStaffID:    generateStaffID,
	}
}

// Tokens exposes the token manager used to sign sessions.
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an account and signs a session token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Role == "" {
		in.Role = domain.RolePassenger
	}
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if in.Phone != "" {
		phone := in.Phone
		user.Phone = &phone
	}
	if in.Role == domain.RoleStaff {
		department := in.Department
		user.Department = &department
	}

	if err := s.createWithStaffID(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return s.issue(user)
}

// createWithStaffID persists user, drawing a fresh staff id on collision.
func (s *AuthService) createWithStaffID(ctx context.Context, user *domain.User) error {
	if user.Role != domain.RoleStaff {
		return s.mapCreateError(s.users.Create(ctx, user))
	}

	for attempt := 0; attempt < staffIDAttempts; attempt++ {
		staffID, err := s.newStaffID()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if _, err := s.users.GetByStaffID(ctx, staffID); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewInternalError(err)
		}

		user.StaffID = &staffID
		err = s.users.Create(ctx, user)
		if errors.Is(err, repository.ErrStaffIDTaken) {
			s.logger.Warn("staff id collision; retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return s.mapCreateError(err)
	}
	return apperrors.NewInternalError(errors.New("could not allocate a unique staff id"))
}

func (s *AuthService) mapCreateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrEmailTaken):
		return emailTaken()
	default:
		return apperrors.NewInternalError(err)
	}
}

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		// Burn a comparison so response time does not reveal unknown emails.
		_ = auth.ComparePassword(s.placeholderHash(), password)
		return nil, invalidCredentials()
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, invalidCredentials()
	}
	return s.issue(user)
}

// RequestPasswordReset issues and mails a reset link when email belongs to an
// account. It reports success whether or not the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", apperrors.NewValidationError("email is required", nil)
	}

	if s.resetLimiter != nil {
		allowed, err := s.resetLimiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("reset rate limiter unavailable", zap.Error(err))
		}
		if !allowed {
			s.logger.Info("password reset throttled")
			return genericResetInfo, nil
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return genericResetInfo, nil
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	token, err := newResetToken()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if err := s.resets.Issue(ctx, user.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, s.ResetURL(token)); err != nil {
			s.logger.Error("password reset mail failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return genericResetInfo, nil
}

// ResetURL builds the link embedded in reset mails.
func (s *AuthService) ResetURL(token string) string {
	return s.publicBaseURL + "/#reset/" + token
}

// ResetPassword replaces the password for the holder of a valid reset token
// and invalidates the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewInvalidToken("invalid or expired token")
	}
	if problem := auth.PasswordPolicyViolation(newPassword); problem != "" {
		return invalidPassword(problem)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	userID, err := s.resets.Consume(ctx, token, hash, s.now())
	if errors.Is(err, repository.ErrInvalidResetToken) {
		return apperrors.NewInvalidToken("invalid or expired token")
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("password reset", zap.String("user_id", userID))
	return nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if problem := auth.PasswordPolicyViolation(newPassword); problem != "" {
		return invalidPassword(problem)
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthenticated("account no longer exists")
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return invalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.Identity())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("placeholder-password", s.bcryptCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func validateRegistration(in RegisterInput) error {
	details := map[string]any{}
	if in.Name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		details["email"] = "must be a valid email address"
	}
	if problem := auth.PasswordPolicyViolation(in.Password); problem != "" {
		details["password"] = problem
	}
	if !in.Role.Valid() {
		details["role"] = "must be one of passenger, staff"
	}
	switch {
	case in.Role == domain.RoleStaff && !in.Department.Valid():
		details["department"] = "must be one of cabin_crew, sanitation, security, maintenance"
	case in.Role == domain.RolePassenger && in.Department != "":
		details["department"] = "only staff accounts carry a department"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}

// generateStaffID returns STF- followed by six uppercase base36 characters.
func generateStaffID() (string, error) {
	var b strings.Builder
	b.WriteString(staffIDPrefix)
	base := big.NewInt(int64(len(staffIDAlphabet)))
	for i := 0; i < staffIDLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b.WriteByte(staffIDAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func emailTaken() error {
	return apperrors.NewConflict("email already registered", nil)
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid credentials")
}

func invalidPassword(problem string) error {
	return apperrors.NewValidationError("invalid password", map[string]any{"password": problem})
}
