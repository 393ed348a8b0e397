package handler_test

// Handler tests run against the real service and repository layers over
// an in-memory database, with only the media store stubbed out. Routes
// are wired the same way the server does it, including the session
// middleware, so the tests cover the full request path: cookies in,
// middleware, handler, JSON out.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/gallery-api/internal/auth"
	"github.com/sakif/gallery-api/internal/handler"
	"github.com/sakif/gallery-api/internal/media"
	"github.com/sakif/gallery-api/internal/repository/sqlite"
	"github.com/sakif/gallery-api/internal/service"
)

// recordingStore stands in for the object-storage provider: uploads get
// deterministic keys, deletes are recorded for assertions.
type recordingStore struct {
	uploads int
	deleted []string
}

func (s *recordingStore) Upload(_ context.Context, _ media.File) (media.StoredObject, error) {
	s.uploads++
	key := fmt.Sprintf("user_uploads/stub-%d", s.uploads)
	return media.StoredObject{
		URL: "https://cdn.example.com/" + key,
		Key: key,
	}, nil
}

func (s *recordingStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

type testEnv struct {
	router http.Handler
	db     *sqlite.DB
	store  *recordingStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService(
		"test-access-secret-0123456789ab",
		"test-refresh-secret-0123456789a",
	)
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	// Minimum bcrypt cost keeps each request in microseconds.
	passwords := auth.NewPasswordServiceForTest(4)
	cookies := auth.NewCookieWriter(false)
	store := &recordingStore{}

	authSvc := service.NewAuthService(db, passwords, tokens, logger)
	uploadSvc := service.NewUploadService(db, store, logger)

	authHandler := handler.NewAuthHandler(authSvc, cookies, logger)
	uploadHandler := handler.NewUploadHandler(uploadSvc, logger)

	r := chi.NewRouter()
	r.Post("/signup", authHandler.HandleSignup)
	r.Post("/login", authHandler.HandleLogin)
	r.Post("/logout", authHandler.HandleLogout)
	r.Post("/refresh-token", authHandler.HandleRefresh)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(tokens, db))
		r.Post("/reset-password", authHandler.HandleResetPassword)
		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", uploadHandler.HandleBulkUpload)
			r.Get("/", uploadHandler.HandleList)
			r.Put("/{id}", uploadHandler.HandleEdit)
			r.Delete("/{id}", uploadHandler.HandleDelete)
			r.Post("/rearrange", uploadHandler.HandleRearrange)
		})
	})

	return &testEnv{router: r, db: db, store: store}
}

// do performs a request against the wired router.
func (e *testEnv) do(method, path string, body io.Reader, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return e.do(method, path, strings.NewReader(body), "application/json", cookies)
}

// signupAndLogin registers a user and returns the session cookies.
func (e *testEnv) signupAndLogin(t *testing.T, email, phone string) []*http.Cookie {
	t.Helper()

	signup := fmt.Sprintf(
		`{"name":"Test User","phone":%q,"email":%q,"password":"Aa1!aaaa","confirmPassword":"Aa1!aaaa"}`,
		phone, email,
	)
	if rr := e.doJSON(http.MethodPost, "/signup", signup, nil); rr.Code != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", rr.Code, rr.Body.String())
	}

	login := fmt.Sprintf(`{"email":%q,"password":"Aa1!aaaa"}`, email)
	rr := e.doJSON(http.MethodPost, "/login", login, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rr.Code, rr.Body.String())
	}
	return rr.Result().Cookies()
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// filePart describes one file in a multipart test body.
type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartBody builds a multipart form with the given files and plain
// fields, returning the body and its Content-Type header value.
func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		// CreateFormFile hardcodes application/octet-stream, so build the
		// part header by hand to carry the real image content type.
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("creating multipart part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("writing multipart part: %v", err)
		}
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("writing multipart field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func jpegPart(field, name string) filePart {
	return filePart{
		field:       field,
		filename:    name,
		contentType: "image/jpeg",
		data:        []byte("fake image bytes"),
	}
}
