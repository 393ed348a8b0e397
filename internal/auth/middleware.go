package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sakif/gallery-api/internal/model"
)

// contextKey is an unexported type for context keys in this package.
// Using a package-private type means only this package can read or write
// the identity value — no collisions with other packages' keys.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID string
	Email  string
}

// UserFinder is the slice of the user repository the middleware needs.
// Taking the narrow interface keeps this package independent of the
// repository package.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// unauthorizedResponse is the 401 body. ShouldRefresh is a contract with
// the client: true means "call /refresh-token and retry", false means
// "re-authenticate from scratch".
type unauthorizedResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	ShouldRefresh bool   `json:"shouldRefresh"`
}

// RequireSession gates protected routes.
//
// Per-request state machine:
//
//	no access cookie            → 401, shouldRefresh=true
//	token invalid               → 401, shouldRefresh=false
//	token expired               → 401, shouldRefresh=true
//	token valid, user missing   → 401, shouldRefresh=false
//	token valid, user found     → identity into context, proceed
//
// The user row is re-checked on EVERY request rather than trusting the
// claims alone: a deleted account is rejected immediately even while its
// tokens are still cryptographically valid. That costs one lookup per
// request, which is the right trade for correctness here.
func RequireSession(tokens *TokenService, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AccessCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w, true)
				return
			}

			claims, err := tokens.VerifyAccess(cookie.Value)
			if err != nil {
				// Expired is the only failure worth refreshing over; a bad
				// signature or malformed token will stay bad forever.
				writeUnauthorized(w, errors.Is(err, ErrTokenExpired))
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil || user == nil {
				writeUnauthorized(w, false)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, Identity{
				UserID: user.ID,
				Email:  user.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity.
// Returns (zero, false) on an unauthenticated request — which should not
// happen behind RequireSession, but handlers check anyway.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

func writeUnauthorized(w http.ResponseWriter, shouldRefresh bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// The message stays generic regardless of what actually failed.
	_ = json.NewEncoder(w).Encode(unauthorizedResponse{
		Error:         "unauthorized",
		Message:       "invalid credentials",
		ShouldRefresh: shouldRefresh,
	})
}
