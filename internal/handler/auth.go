// Package handler contains the HTTP layer: request decoding, response
// encoding, and the mapping from domain errors to status codes. No
// business rules live here — handlers delegate to the service layer and
// translate its results.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gallery-api/internal/auth"
	"github.com/sakif/gallery-api/internal/model"
	"github.com/sakif/gallery-api/internal/service"
)

// AuthHandler serves the account endpoints.
//
//	POST /signup         → register, redirect hint to the login page
//	POST /login          → verify credentials, set session cookies
//	POST /logout         → clear session cookies
//	POST /refresh-token  → rotate the token pair off the refresh cookie
//	POST /reset-password → change password (session required)
type AuthHandler struct {
	auth    *service.AuthService
	cookies *auth.CookieWriter
	logger  *slog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, cookies *auth.CookieWriter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    authSvc,
		cookies: cookies,
		logger:  logger,
	}
}

type signupRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// sessionResponse is the login/refresh envelope. Token duplicates the
// access cookie so non-browser clients can authenticate without cookie
// support; RedirectURL tells the frontend where to navigate next.
type sessionResponse struct {
	Message     string              `json:"message"`
	User        model.PublicProfile `json:"user"`
	Token       string              `json:"token,omitempty"`
	RedirectURL string              `json:"redirectUrl,omitempty"`
}

// HandleSignup registers a new account.
//
// HTTP: POST /signup
//
// 201 on success with the public profile and a redirect hint to the
// login page — signup never issues tokens, the client authenticates via
// /login afterwards.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	user, err := h.auth.Signup(r.Context(), service.SignupInput{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Message:     "account created",
		User:        user.Public(),
		RedirectURL: "/login",
	})
}

// HandleLogin authenticates by email or phone plus password.
//
// HTTP: POST /login
//
// On success both session cookies are set and the access token is also
// returned in the body (dual delivery: cookies for browsers, body for
// everything else).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Email, req.Phone, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetPair(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse{
		Message:     "login successful",
		User:        user.Public(),
		Token:       pair.AccessToken,
		RedirectURL: "/dashboard",
	})
}

// HandleLogout clears both session cookies.
//
// HTTP: POST /logout
//
// Stateless sessions mean logout is purely client-side: the tokens stay
// cryptographically valid until expiry, but without the cookies the
// browser can't present them. The route is ungated so a client with an
// already-expired session can still log out cleanly.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleRefresh rotates the session off the refresh cookie.
//
// HTTP: POST /refresh-token
//
// A valid refresh cookie yields a brand-new token pair; both cookies are
// re-set. Any failure is a plain 401 — clients that land here with a bad
// refresh token have nothing left to retry and must log in again.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := ""
	if cookie, err := r.Cookie(auth.RefreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	user, pair, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetPair(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "token refreshed",
		User:    user.Public(),
		Token:   pair.AccessToken,
	})
}

// HandleResetPassword changes the caller's password.
//
// HTTP: POST /reset-password
// Auth: required (RequireSession puts the identity in the context)
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireSession, but don't trust route wiring.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid credentials",
		})
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	if err := h.auth.ResetPassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
