package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const serviceName = "auth-api"

// LoginInput is the credentials body of a login call.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the body of a register call.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// Credentials is what the auth collaborator returns on login and register.
type Credentials struct {
	AccessToken string      `json:"accessToken"`
	User        domain.User `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     string `json:"type"`
	History  string `json:"history"`
}

// Client calls the auth collaborator.
type Client struct {
	httpClient httpclient.Doer
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an auth collaborator client.
func NewClient(doer httpclient.Doer, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: doer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Login exchanges credentials for an access token and the user object.
// A 400 from the collaborator means the credentials were wrong.
func (c *Client) Login(ctx context.Context, in LoginInput) (*Credentials, error) {
	var creds Credentials
	err := c.post(ctx, "/login", "", in, &creds)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil, apperrors.Unauthorized(domain.MsgInvalidLogin)
		}
		c.logger.ErrorContext(ctx, "login failed", slog.String("error", err.Error()))
		return nil, withMessage(err, domain.MsgAuthFailed)
	}
	return &creds, nil
}

// Register creates a regular user with an empty history.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Credentials, error) {
	req := registerRequest{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Type:     "user",
		History:  "",
	}

	var creds Credentials
	if err := c.post(ctx, "/register", "", req, &creds); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			return nil, apperrors.Conflict(domain.MsgRegisterFail)
		}
		return nil, withMessage(err, domain.MsgRegisterFail)
	}
	return &creds, nil
}

// Logout notifies the collaborator that token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "/logout", token, struct{}{}, nil)
}

func (c *Client) post(ctx context.Context, path, token string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return httpclient.TranslateError(err, serviceName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.TransportFailure(serviceName+": malformed response",
			fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

// withMessage replaces the user-facing message of an AppError, keeping its
// status and cause.
func withMessage(err error, message string) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return apperrors.TransportFailure(message, err)
	}
	return &apperrors.AppError{
		Code:    appErr.Code,
		Message: message,
		Status:  appErr.Status,
		Err:     err,
	}
}
