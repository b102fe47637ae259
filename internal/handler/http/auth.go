package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// loginResponse is returned after a successful login.
type loginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        domain.User `json:"user"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Login handles POST /api/v1/auth/login. The returned user is stored in the
// session store, keyed by the issued token.
func (h *StorefrontHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		writeValidation(w, err)
		return
	}

	creds, err := h.deps.Auth.Login(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	s, err := h.deps.Sessions.Open(r.Context(), creds.AccessToken, creds.User)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, loginResponse{
		AccessToken: creds.AccessToken,
		User:        s.User,
		ExpiresAt:   s.ExpiresAt,
	})
}

// Register handles POST /api/v1/auth/register. No session is opened; the
// client logs in afterwards.
func (h *StorefrontHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		writeValidation(w, err)
		return
	}

	creds, err := h.deps.Auth.Register(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered",
		slog.String("user_id", string(creds.User.ID)),
	)
	httputil.WriteData(w, http.StatusCreated, creds.User)
}

type logoutResponse struct {
	Message string `json:"message"`
}

// Logout handles POST /api/v1/auth/logout.
func (h *StorefrontHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	if err := h.deps.Auth.Logout(r.Context(), s.Token); err != nil {
		// The local session is closed regardless.
		h.logger.WarnContext(r.Context(), "auth logout failed",
			slog.String("error", err.Error()),
		)
	}
	if err := h.deps.Sessions.Close(r.Context(), s); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, logoutResponse{Message: "Logged out successfully"})
}

// sessionResponse is the session without its token.
type sessionResponse struct {
	ID        string      `json:"id"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// GetSession handles GET /api/v1/session.
func (h *StorefrontHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, sessionResponse{ID: s.ID, User: s.User, ExpiresAt: s.ExpiresAt})
}
