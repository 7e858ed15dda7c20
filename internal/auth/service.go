package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"

	"github.com/uptrace/bun"

	"github.com/filesure/referral-rewards-api/internal/config"
	"github.com/filesure/referral-rewards-api/internal/logging"
	"github.com/filesure/referral-rewards-api/internal/referral"
	"github.com/filesure/referral-rewards-api/internal/user"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrEmailRequired       = errors.New("email is required")
	ErrInvalidEmailFormat  = errors.New("invalid email format")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrUserDeleted         = errors.New("this user is deleted")
	ErrUserBlocked         = errors.New("this user is blocked")
	ErrPasswordMismatch    = errors.New("password does not match")
)

// Racing registrations can collide on the sequential id or the generated
// referral code; both are retryable with fresh values.
const maxRegisterAttempts = 3

// EmailService defines the notification surface the auth workflows use.
// All calls are best-effort and dispatched after commit.
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name, referralCode, referralLink string) error
	SendReferralSignupEmail(ctx context.Context, toEmail, referrerID, newUserName, newUserEmail string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetLink string) error
}

// RegisterInput carries a validated-enough registration request
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
}

// PublicUser is the projection of a user returned from auth endpoints
type PublicUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ReferralCode string `json:"referralCode"`
}

// AuthResult bundles the issued credentials with the public user projection
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         PublicUser
}

// Service handles authentication and the registration workflow
type Service struct {
	db                *bun.DB
	users             *user.Repository
	referrals         *referral.Repository
	passwordResetRepo *PasswordResetRepository
	tokenService      TokenService
	emailService      EmailService
	logger            *logging.Logger
	authCfg           config.AuthConfig
	emailCfg          config.EmailConfig
}

func NewService(
	db *bun.DB,
	users *user.Repository,
	referrals *referral.Repository,
	passwordResetRepo *PasswordResetRepository,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	authCfg config.AuthConfig,
	emailCfg config.EmailConfig,
) *Service {
	return &Service{
		db:                db,
		users:             users,
		referrals:         referrals,
		passwordResetRepo: passwordResetRepo,
		tokenService:      tokenService,
		emailService:      emailService,
		logger:            logger,
		authCfg:           authCfg,
		emailCfg:          emailCfg,
	}
}

// Register creates a new user and, when a referral code was supplied, a
// pending referral record — all inside one transaction. After commit it
// dispatches the welcome and referral-signup notifications and issues the
// access and refresh credentials.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var (
		newUser  *user.User
		referrer *user.User
	)

	for attempt := 1; ; attempt++ {
		newUser, referrer, err = s.registerTx(ctx, input, passwordHash)
		if err == nil {
			break
		}
		if errors.Is(err, user.ErrConflict) && attempt < maxRegisterAttempts {
			// Lost the id/code race to a concurrent registration; the next
			// attempt re-reads the sequence and regenerates the code.
			s.logger.Warn("registration conflict, retrying", "attempt", attempt, "error", err)
			continue
		}
		return nil, err
	}

	referralLink := s.emailCfg.ReferralLink(newUser.ReferralCode)
	s.sendRegistrationEmails(newUser, referrer, referralLink)

	return s.issueCredentials(newUser)
}

// registerTx is the atomic unit of the registration workflow. Any error
// aborts the whole transaction: no partial User or Referral survives.
func (s *Service) registerTx(ctx context.Context, input RegisterInput, passwordHash string) (*user.User, *user.User, error) {
	var (
		newUser  *user.User
		referrer *user.User
	)

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		users := s.users.WithTx(tx)

		_, err := users.GetByEmail(ctx, input.Email)
		if err == nil {
			return user.ErrDuplicateEmail
		}
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		if input.ReferralCode != "" {
			referrer, err = users.GetByReferralCode(ctx, input.ReferralCode)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					return ErrInvalidReferralCode
				}
				return err
			}
		}

		lastID, err := users.LastAssignedID(ctx)
		if err != nil {
			return err
		}
		nextID, err := user.NextUserID(lastID)
		if err != nil {
			return err
		}

		newUser = &user.User{
			ID:           nextID,
			Name:         input.Name,
			Email:        input.Email,
			PasswordHash: passwordHash,
			Role:         user.RoleUser,
			Status:       user.StatusActive,
			ReferralCode: user.GenerateReferralCode(input.Name),
		}
		if input.ReferralCode != "" {
			code := input.ReferralCode
			newUser.ReferredBy = &code
		}

		if err := users.Create(ctx, newUser); err != nil {
			return err
		}

		if referrer != nil {
			if _, err := s.referrals.WithTx(tx).Create(ctx, referrer.ID, newUser.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return newUser, referrer, nil
}

// Login authenticates by email or user id and returns fresh credentials
func (s *Service) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	if identifier == "" || password == "" {
		return nil, ErrPasswordRequired
	}

	existing, err := s.users.GetByEmailOrID(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := checkAccountUsable(existing); err != nil {
		return nil, err
	}

	if !verifyPassword(existing.PasswordHash, password) {
		return nil, ErrPasswordMismatch
	}

	return s.issueCredentials(existing)
}

// RefreshAccessToken verifies a refresh credential, re-checks the account
// state, and issues a new access token. Credentials issued before the most
// recent password change are rejected.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenService.VerifyToken(refreshToken)
	if err != nil {
		return "", err
	}

	existing, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}

	if err := checkAccountUsable(existing); err != nil {
		return "", err
	}

	if existing.TokenIssuedBeforePasswordChange(claims.IssuedAt) {
		return "", ErrInvalidToken
	}

	accessToken, err := s.tokenService.CreateToken(existing.ID, existing.Role, s.authCfg.AccessTokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create access token: %w", err)
	}

	return accessToken, nil
}

// ChangePassword verifies the old password and replaces it. The change is
// stamped so credentials issued before it stop working.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := checkAccountUsable(existing); err != nil {
		return err
	}

	if !verifyPassword(existing.PasswordHash, oldPassword) {
		return ErrPasswordMismatch
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, existing.ID, passwordHash)
}

// ForgetPassword stores a one-hour reset token and emails the reset link
func (s *Service) ForgetPassword(ctx context.Context, identifier string) error {
	existing, err := s.users.GetByEmailOrID(ctx, identifier)
	if err != nil {
		return err
	}

	if err := checkAccountUsable(existing); err != nil {
		return err
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.passwordResetRepo.StorePasswordResetToken(ctx, existing.ID, token); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset-password?id=%s&token=%s", s.emailCfg.FrontendURL, existing.ID, token)

	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetEmail(emailCtx, existing.Email, resetLink); err != nil {
			s.logger.Warn("failed to send password reset email", "email", existing.Email, "error", err)
		}
	}()

	return nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	userID, err := s.passwordResetRepo.GetPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	if err := s.passwordResetRepo.DeletePasswordResetToken(ctx, token); err != nil {
		s.logger.Warn("failed to delete used password reset token", "error", err)
	}

	return nil
}

func (s *Service) issueCredentials(u *user.User) (*AuthResult, error) {
	accessToken, err := s.tokenService.CreateToken(u.ID, u.Role, s.authCfg.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenService.CreateToken(u.ID, u.Role, s.authCfg.RefreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: PublicUser{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			ReferralCode: u.ReferralCode,
		},
	}, nil
}

// sendRegistrationEmails dispatches post-commit notifications. Failures are
// logged and swallowed; they never fail the registration.
func (s *Service) sendRegistrationEmails(newUser *user.User, referrer *user.User, referralLink string) {
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendWelcomeEmail(emailCtx, newUser.Email, newUser.Name, newUser.ReferralCode, referralLink); err != nil {
			s.logger.Warn("failed to send welcome email", "email", newUser.Email, "error", err)
		}
	}()

	if referrer != nil {
		referrerEmail := referrer.Email
		referrerID := referrer.ID
		go func() {
			emailCtx := context.Background()
			if err := s.emailService.SendReferralSignupEmail(emailCtx, referrerEmail, referrerID, newUser.Name, newUser.Email); err != nil {
				s.logger.Warn("failed to send referral signup email", "email", referrerEmail, "error", err)
			}
		}()
	}
}

func validateRegisterInput(input RegisterInput) error {
	if input.Name == "" {
		return ErrNameRequired
	}
	if input.Email == "" {
		return ErrEmailRequired
	}
	if len(input.Email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrInvalidEmailFormat
	}
	if input.Password == "" {
		return ErrPasswordRequired
	}
	if len(input.Password) < 6 {
		return ErrPasswordTooShort
	}
	return nil
}

// checkAccountUsable enforces the deleted and blocked gates shared by
// every authentication path
func checkAccountUsable(u *user.User) error {
	if u.IsDeleted {
		return ErrUserDeleted
	}
	if u.Status == user.StatusBlocked {
		return ErrUserBlocked
	}
	return nil
}
