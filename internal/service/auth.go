package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexly/go-shop-api/internal/apperror"
	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/mailer"
	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
)

var (
	ErrUserAlreadyExists  = apperror.Validation("user already exists")
	ErrInvalidCredentials = apperror.Validation("invalid credentials")
	ErrNoSuchUser         = apperror.NotFound("there is no user with that email")
	ErrResetTokenInvalid  = apperror.Validation("token is invalid or has expired")
)

const resetTokenTTL = 10 * time.Minute

type AuthService struct {
	users     repository.UserRepository
	mail      mailer.Mailer
	jwtSecret []byte
	jwtExpiry time.Duration
	baseURL   string
	log       *slog.Logger
}

func NewAuthService(users repository.UserRepository, mail mailer.Mailer, jwtSecret string, jwtExpiry time.Duration, baseURL string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		mail:      mail,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
		baseURL:   baseURL,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email: req.Email, Password: string(hashed),
		FirstName: req.FirstName, LastName: req.LastName,
		Role: model.RoleUser, IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Welcome mail is best-effort; registration succeeded either way.
	if err := s.mail.Send(user.Email, "Welcome!", mailer.WelcomeHTML(user.FirstName)); err != nil {
		s.log.Warn("send welcome mail", "email", user.Email, "error", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: dto.ToUserResponse(user)}, nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: dto.ToUserResponse(user)}, nil
}

// ForgotPassword stores a sha256 digest of a random token against the user
// and mails the plain token in a reset link. If the mail cannot be sent the
// token is cleared again so no orphaned reset window remains.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrNoSuchUser
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	user.PasswordResetToken = digest(token)
	user.PasswordResetExpires = time.Now().Add(resetTokenTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.baseURL, token)
	if err := s.mail.Send(user.Email, "Your password reset token (valid for 10 min)", mailer.PasswordResetHTML(user.FirstName, resetURL)); err != nil {
		user.PasswordResetToken = ""
		user.PasswordResetExpires = time.Time{}
		if uerr := s.users.Update(ctx, user); uerr != nil {
			s.log.Error("clear reset token", "email", user.Email, "error", uerr)
		}
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// ResetPassword consumes a token from ForgotPassword, rehashes the
// password, and logs the user in. PasswordChangedAt invalidates JWTs
// issued before the change.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*dto.AuthResponse, error) {
	user, err := s.users.GetByResetToken(ctx, digest(token))
	if err != nil {
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}
	if user == nil || time.Now().After(user.PasswordResetExpires) {
		return nil, ErrResetTokenInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user.Password = string(hashed)
	user.PasswordResetToken = ""
	user.PasswordResetExpires = time.Time{}
	// Backdated one second so the JWT issued below stays valid.
	user.PasswordChangedAt = time.Now().Add(-time.Second)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	jwtToken, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: jwtToken, User: dto.ToUserResponse(user)}, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.Hex(),
		"role": string(user.Role),
		"exp":  now.Add(s.jwtExpiry).Unix(),
		"iat":  now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
