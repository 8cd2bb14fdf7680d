package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/dto"
	"github.com/nexly/go-shop-api/internal/model"
)

type mockUserRepo struct {
	users map[primitive.ObjectID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[primitive.ObjectID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByResetToken(_ context.Context, tokenDigest string) (*model.User, error) {
	for _, u := range m.users {
		if u.PasswordResetToken != "" && u.PasswordResetToken == tokenDigest {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

type sentMail struct {
	to      string
	subject string
	html    string
}

type mockMailer struct {
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html})
	return nil
}

func newAuthTestService(users *mockUserRepo, mail *mockMailer) *AuthService {
	return NewAuthService(users, mail, "test-secret", time.Hour, "http://localhost:8080", testLogger())
}

// resetTokenFromMail pulls the plain token out of the reset link in the mail
// body.
func resetTokenFromMail(t *testing.T, html string) string {
	t.Helper()
	const marker = "reset-password/"
	idx := strings.Index(html, marker)
	require.NotEqual(t, -1, idx, "mail contains no reset link")
	rest := html[idx+len(marker):]
	end := strings.IndexAny(rest, `"<`)
	require.NotEqual(t, -1, end)
	return rest[:end]
}

func TestAuthService_Register(t *testing.T) {
	users := newMockUserRepo()
	mail := &mockMailer{}
	svc := newAuthTestService(users, mail)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ada@example.com", mail.sent[0].to)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(), &mockMailer{})
	req := dto.RegisterRequest{Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Register_MailFailureIsNotFatal(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(), &mockMailer{err: errors.New("smtp down")})
	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_Login(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(), &mockMailer{})
	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(), &mockMailer{})
	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNoSuchUser)
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	users := newMockUserRepo()
	mail := &mockMailer{}
	svc := newAuthTestService(users, mail)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com"))
	require.Len(t, mail.sent, 2)

	token := resetTokenFromMail(t, mail.sent[1].html)

	// Only the digest is stored; the mailed token never is.
	user, err := users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordResetToken)
	assert.NotEqual(t, token, user.PasswordResetToken)

	resp, err := svc.ResetPassword(context.Background(), token, "battery-staple")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	user, err = users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordResetToken)
	assert.False(t, user.PasswordChangedAt.IsZero())

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	assert.NoError(t, err)

	// Tokens are single use.
	_, err = svc.ResetPassword(context.Background(), token, "yet-another")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	users := newMockUserRepo()
	mail := &mockMailer{}
	svc := newAuthTestService(users, mail)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "ada@example.com"))

	user, err := users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	user.PasswordResetExpires = time.Now().Add(-time.Minute)

	token := resetTokenFromMail(t, mail.sent[1].html)
	_, err = svc.ResetPassword(context.Background(), token, "battery-staple")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestAuthService_ForgotPassword_MailFailureClearsToken(t *testing.T) {
	users := newMockUserRepo()
	mail := &mockMailer{}
	svc := newAuthTestService(users, mail)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "ada@example.com", Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	mail.err = errors.New("smtp down")
	err = svc.ForgotPassword(context.Background(), "ada@example.com")
	require.Error(t, err)

	user, err := users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordResetToken)
	assert.True(t, user.PasswordResetExpires.IsZero())
}
