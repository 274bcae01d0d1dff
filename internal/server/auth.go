package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/auth"
	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/shared"
)

// StateCookie holds the login nonce between /login and /callback.
const StateCookie = "spotify_auth_state"

// Authorizer is the part of [auth.Flow] the HTTP surface drives.
type Authorizer interface {
	BeginLogin() *auth.Attempt
	HandleCallback(ctx context.Context, code, receivedState, storedState string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

// AuthHandler serves the authorization code flow endpoints.
//
// Implements the [Handler] interface for registration with a Router.
type AuthHandler struct {
	flow   Authorizer
	secure bool
	logger *log.Logger
}

// NewAuthHandler creates an [AuthHandler]. secure marks the state cookie Secure for HTTPS deployments.
func NewAuthHandler(flow Authorizer, secure bool, logger *log.Logger) *AuthHandler {
	return &AuthHandler{flow: flow, secure: secure, logger: shared.WithLogger(logger, "component", "auth")}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/login", "/callback", "/refresh_token"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.login(w, r)
	case "/callback":
		h.callback(w, r)
	case "/refresh_token":
		h.refresh(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login stores a fresh nonce in the state cookie and redirects to the authorization endpoint.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	attempt := h.flow.BeginLogin()
	http.SetCookie(w, h.stateCookie(attempt.State(), 0))
	http.Redirect(w, r, attempt.RedirectURL(), http.StatusFound)
}

// callback validates the echoed state against the cookie and redirects to the fragment the front end reads.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stored := ""
	if c, err := r.Cookie(StateCookie); err == nil {
		stored = c.Value
	}

	pair, err := h.flow.HandleCallback(r.Context(), q.Get("code"), q.Get("state"), stored)
	if errors.Is(err, shared.ErrStateMismatch) {
		h.logger.Warn("callback rejected", "id", RequestID(r.Context()), "error", err)
		redirectFragment(w, r, url.Values{"error": {"state_mismatch"}})
		return
	}

	http.SetCookie(w, h.stateCookie("", -1))
	if err != nil {
		h.logger.Warn("code exchange failed", "id", RequestID(r.Context()), "error", err)
		redirectFragment(w, r, url.Values{"error": {"invalid_token"}})
		return
	}

	redirectFragment(w, r, url.Values{
		"access_token":  {pair.AccessToken},
		"refresh_token": {pair.RefreshToken},
	})
}

// refresh returns {"access_token": ...} for a refresh_token query parameter.
func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	rt := r.URL.Query().Get("refresh_token")
	if rt == "" {
		writeError(w, http.StatusBadRequest, shared.ErrMissingArgument)
		return
	}

	pair, err := h.flow.Refresh(r.Context(), rt)
	if err != nil {
		h.logger.Warn("refresh failed", "id", RequestID(r.Context()), "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": pair.AccessToken})
}

func (h *AuthHandler) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func redirectFragment(w http.ResponseWriter, r *http.Request, v url.Values) {
	http.Redirect(w, r, "/#"+v.Encode(), http.StatusFound)
}
