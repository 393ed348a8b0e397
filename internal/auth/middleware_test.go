package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sakif/gallery-api/internal/apperror"
	"github.com/sakif/gallery-api/internal/model"
)

// mockUserFinder serves a fixed set of users by ID.
type mockUserFinder struct {
	users map[string]*model.User
}

func (m *mockUserFinder) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

// doRequest runs a request with an optional access cookie through
// RequireSession wrapped around a handler that records the identity.
func doRequest(t *testing.T, ts *TokenService, users UserFinder, cookie string) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()

	var seen *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := IdentityFromContext(r.Context()); ok {
			seen = &id
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/uploads", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: cookie})
	}
	rr := httptest.NewRecorder()

	RequireSession(ts, users)(next).ServeHTTP(rr, req)
	return rr, seen
}

func decodeUnauthorized(t *testing.T, rr *httptest.ResponseRecorder) unauthorizedResponse {
	t.Helper()
	var body unauthorizedResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding 401 body: %v", err)
	}
	return body
}

func TestRequireSession_NoCookie(t *testing.T) {
	ts := newTestTokenService(t)
	users := &mockUserFinder{users: map[string]*model.User{}}

	rr, _ := doRequest(t, ts, users, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if body := decodeUnauthorized(t, rr); !body.ShouldRefresh {
		t.Error("missing cookie should signal shouldRefresh=true")
	}
}

func TestRequireSession_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)
	users := &mockUserFinder{users: map[string]*model.User{}}

	rr, _ := doRequest(t, ts, users, "garbage.token.value")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if body := decodeUnauthorized(t, rr); body.ShouldRefresh {
		t.Error("invalid token should signal shouldRefresh=false")
	}
}

func TestRequireSession_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	users := &mockUserFinder{users: map[string]*model.User{}}

	expired, err := ts.sign("user-1", "a@x.com", ts.accessSecret, -time.Second)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rr, _ := doRequest(t, ts, users, expired)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if body := decodeUnauthorized(t, rr); !body.ShouldRefresh {
		t.Error("expired token should signal shouldRefresh=true")
	}
}

func TestRequireSession_UserGone(t *testing.T) {
	ts := newTestTokenService(t)
	// Valid token, but the account no longer exists in the store.
	users := &mockUserFinder{users: map[string]*model.User{}}

	pair, _ := ts.IssuePair("user-1", "a@x.com")
	rr, _ := doRequest(t, ts, users, pair.AccessToken)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if body := decodeUnauthorized(t, rr); body.ShouldRefresh {
		t.Error("deleted account should signal shouldRefresh=false")
	}
}

func TestRequireSession_ValidTokenAttachesIdentity(t *testing.T) {
	ts := newTestTokenService(t)
	users := &mockUserFinder{users: map[string]*model.User{
		"user-1": {ID: "user-1", Email: "a@x.com", Name: "A"},
	}}

	pair, _ := ts.IssuePair("user-1", "a@x.com")
	rr, seen := doRequest(t, ts, users, pair.AccessToken)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if seen == nil {
		t.Fatal("handler did not receive an identity")
	}
	if seen.UserID != "user-1" || seen.Email != "a@x.com" {
		t.Errorf("identity = %+v, want user-1 / a@x.com", seen)
	}
}

func TestIdentityFromContext_Absent(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("IdentityFromContext on a bare context should return ok=false")
	}
}
