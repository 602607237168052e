package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stocklist-app/stocklist/internal/auth"
	"github.com/stocklist-app/stocklist/internal/mail"
	"github.com/stocklist-app/stocklist/internal/platform/httpx"
)

// Field limits enforced on every write path, not just registration.
const (
	minPasswordLength = 6
	maxBioLength      = 255
)

// ServiceConfig carries the process-wide settings the lifecycle needs.
type ServiceConfig struct {
	FrontendURL   string
	SenderEmail   string
	ResetTokenTTL time.Duration
}

// Service orchestrates the account lifecycle against the user store.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	mailer   mail.Mailer
	validate *validator.Validate
	cfg      ServiceConfig
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, mailer mail.Mailer, cfg ServiceConfig) *Service {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 10 * time.Minute
	}
	return &Service{
		logger:   logger,
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		validate: validator.New(),
		cfg:      cfg,
	}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and issues a session token.
//
// Precondition order is contractual: field presence, then password
// length, then email grammar, then uniqueness. It decides which error a
// malformed request receives.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, "", httpx.BadRequest("Please fill in all required fields")
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", httpx.BadRequest("Password must be at least 6 characters")
	}
	if err := s.validate.Var(input.Email, "required,email"); err != nil {
		return nil, "", httpx.BadRequest("Please enter a valid email address")
	}
	if _, err := s.repo.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, "", httpx.BadRequest("Email has already been registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	user := &User{
		ID:    uuid.New(),
		Name:  input.Name,
		Email: input.Email,
		Photo: DefaultPhotoURL,
	}
	if err := user.SetPassword(input.Password, s.hasher); err != nil {
		return nil, "", err
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", httpx.BadRequest("Email has already been registered")
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	if email == "" || password == "" {
		return nil, "", httpx.BadRequest("Please add email and password")
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", httpx.BadRequest("User not found! Please register")
		}
		return nil, "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", httpx.BadRequest("Invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetProfile loads the caller's account.
func (s *Service) GetProfile(ctx context.Context, userID string) (*User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httpx.BadRequest("User not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateInput is the profile-update payload. Email is absent on purpose:
// it is immutable through this path even if a client supplies one.
type UpdateInput struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// UpdateProfile overwrites profile fields with provided values, falling
// back to the existing value field-by-field when a field is omitted.
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateInput) (*User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httpx.NotFound("User not found")
		}
		return nil, err
	}

	if len(input.Bio) > maxBioLength {
		return nil, httpx.BadRequest("Bio must not be more than 255 characters")
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Photo != "" {
		user.Photo = input.Photo
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Bio != "" {
		user.Bio = input.Bio
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, httpx.Conflict("Profile was changed by another request, please retry")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the caller's password after verifying the old
// one. Existence is checked before field presence here; the 404s mirror
// the route's established contract.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpx.NotFound("User not found, please register")
		}
		return err
	}
	if oldPassword == "" || newPassword == "" {
		return httpx.NotFound("Please add old and new password")
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return httpx.NotFound("Old password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return httpx.BadRequest("Password must be at least 6 characters")
	}

	if err := user.SetPassword(newPassword, s.hasher); err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return httpx.Conflict("Password was changed by another request, please retry")
		}
		return err
	}
	return nil
}

// ForgotPassword issues a fresh reset token, invalidating any prior one,
// and mails the reset link. A send failure is surfaced as a 500.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpx.NotFound("User does not exist")
		}
		return err
	}

	secret, err := auth.NewResetSecret(user.ID.String())
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	token := ResetToken{
		UserID:    user.ID,
		TokenHash: auth.HashResetSecret(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
	}
	if err := s.repo.ReplaceResetToken(ctx, token); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/resetpassword/%s", s.cfg.FrontendURL, secret)
	msg := mail.Message{
		Subject: "Password Reset Request - Stocklist",
		Body:    resetEmailBody(user.Name, resetURL),
		To:      user.Email,
		From:    s.cfg.SenderEmail,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		if s.logger != nil {
			s.logger.Error("send reset email", slog.Any("error", err))
		}
		return httpx.Internal("Email not sent, please try again")
	}
	return nil
}

// ResetPassword consumes a mailed reset secret and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, secret, newPassword string) error {
	token, err := s.repo.GetResetToken(ctx, auth.HashResetSecret(secret), time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return httpx.NotFound("Invalid or expired token")
		}
		return err
	}

	user, err := s.repo.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpx.NotFound("User not found")
		}
		return err
	}
	if len(newPassword) < minPasswordLength {
		return httpx.BadRequest("Password must be at least 6 characters")
	}
	if err := user.SetPassword(newPassword, s.hasher); err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return httpx.Conflict("Password was changed by another request, please retry")
		}
		return err
	}
	// Token is single use. A delete failure is not fatal; expiry and the
	// purge job will collect it.
	if err := s.repo.DeleteResetToken(ctx, token.UserID); err != nil && s.logger != nil {
		s.logger.Warn("delete consumed reset token", slog.Any("error", err))
	}
	return nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetUserByID(ctx, id)
}

func resetEmailBody(name, resetURL string) string {
	return fmt.Sprintf(`
<h2>Hello %s</h2>
<p>Please use the link below to reset your password</p>
<p>This link is only valid for 10 minutes, so hurry up</p>
<a href=%q clicktracking=off>%s</a>
<p>Regards,</p>
<p>Stocklist Team</p>
`, name, resetURL, resetURL)
}
