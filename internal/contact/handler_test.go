package contact_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklist-app/stocklist/internal/auth"
	"github.com/stocklist-app/stocklist/internal/contact"
	"github.com/stocklist-app/stocklist/internal/mail"
	"github.com/stocklist-app/stocklist/internal/users"
)

// singleUserRepo serves exactly one account; everything else is unused by
// the contact path.
type singleUserRepo struct {
	user users.User
}

func (r *singleUserRepo) CreateUser(ctx context.Context, user *users.User) error {
	return errors.New("not implemented")
}

func (r *singleUserRepo) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	if r.user.Email == email {
		copied := r.user
		return &copied, nil
	}
	return nil, users.ErrNotFound
}

func (r *singleUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	if r.user.ID == id {
		copied := r.user
		return &copied, nil
	}
	return nil, users.ErrNotFound
}

func (r *singleUserRepo) UpdateProfile(ctx context.Context, user *users.User) error {
	return errors.New("not implemented")
}

func (r *singleUserRepo) UpdatePassword(ctx context.Context, user *users.User) error {
	return errors.New("not implemented")
}

func (r *singleUserRepo) ReplaceResetToken(ctx context.Context, token users.ResetToken) error {
	return errors.New("not implemented")
}

func (r *singleUserRepo) GetResetToken(ctx context.Context, tokenHash string, now time.Time) (*users.ResetToken, error) {
	return nil, users.ErrTokenNotFound
}

func (r *singleUserRepo) DeleteResetToken(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (r *singleUserRepo) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

var _ users.Repository = (*singleUserRepo)(nil)

type stubMailer struct {
	sent []mail.Message
	err  error
}

func (s *stubMailer) Send(ctx context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type testEnv struct {
	router *chi.Mux
	mailer *stubMailer
	tokens *auth.TokenManager
	userID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.Default()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	repo := &singleUserRepo{user: users.User{
		ID:    uuid.New(),
		Name:  "A",
		Email: "a@x.com",
	}}
	usersService := users.NewService(logger, repo, auth.NewPasswordHasher(), tokens, &stubMailer{}, users.ServiceConfig{})
	mailer := &stubMailer{}
	handler := contact.NewHandler(logger, usersService, mailer, "ops@stocklist.local", auth.NewMiddleware(tokens, true), true)

	router := chi.NewRouter()
	router.Route("/api/contactus", handler.MountRoutes)
	return &testEnv{router: router, mailer: mailer, tokens: tokens, userID: repo.user.ID}
}

func (e *testEnv) post(t *testing.T, body map[string]string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/contactus/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := e.tokens.Issue(userID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestContactUsRelaysMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, map[string]string{"subject": "Hi", "message": "Need help"}, env.userID.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Email Sent")

	require.Len(t, env.mailer.sent, 1)
	sent := env.mailer.sent[0]
	assert.Equal(t, "Hi", sent.Subject)
	assert.Equal(t, "Need help", sent.Body)
	assert.Equal(t, "ops@stocklist.local", sent.To)
	assert.Equal(t, "ops@stocklist.local", sent.From)
	assert.Equal(t, "a@x.com", sent.ReplyTo)
}

func TestContactUsRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, map[string]string{"subject": "Hi", "message": "x"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized, please login")
}

func TestContactUsUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, map[string]string{"subject": "Hi", "message": "x"}, uuid.NewString())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found, please sign in")
}

func TestContactUsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, map[string]string{"subject": "Hi"}, env.userID.String())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please fill in the required fields")
	assert.Empty(t, env.mailer.sent)
}

func TestContactUsMailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("smtp down")

	rec := env.post(t, map[string]string{"subject": "Hi", "message": "x"}, env.userID.String())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email not sent, please try again")
}
