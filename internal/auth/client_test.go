package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(
		httpclient.New(httpclient.Config{Timeout: 5 * time.Second}),
		srv.URL,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)

		var in LoginInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ann@example.com", in.Email)

		_, _ = io.WriteString(w, `{"accessToken":"tok","user":{"id":1,"email":"ann@example.com","history":"1001"}}`)
	})

	creds, err := c.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", creds.AccessToken)
	assert.Equal(t, domain.UserID("1"), creds.User.ID)
	assert.Equal(t, domain.HistoryRef("1001"), creds.User.History)
}

func TestLogin_BadRequestMeansWrongCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `"Incorrect password"`)
	})

	_, err := c.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "nope"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.MsgInvalidLogin, appErr.Message)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestLogin_ServerErrorKeepsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"})

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.MsgAuthFailed, appErr.Message)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.True(t, apperrors.IsTransport(err))
}

func TestRegister_SendsUserTypeAndEmptyHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user", body["type"])
		assert.Equal(t, "", body["history"])
		assert.Equal(t, "ann", body["username"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"accessToken":"tok","user":{"id":"u-1","email":"ann@example.com","history":""}}`)
	})

	creds, err := c.Register(context.Background(), RegisterInput{Username: "ann", Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u-1"), creds.User.ID)
	assert.True(t, creds.User.History.Absent())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `"Email already exists"`)
	})

	_, err := c.Register(context.Background(), RegisterInput{Username: "ann", Email: "ann@example.com", Password: "secret"})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestLogout_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"message":"logged out"}`)
	})

	assert.NoError(t, c.Logout(context.Background(), "tok"))
}
