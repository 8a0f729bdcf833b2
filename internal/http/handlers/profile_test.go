package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lmoreau/profilhub/internal/auth"
	"github.com/lmoreau/profilhub/internal/domain/user"
	"github.com/lmoreau/profilhub/internal/http/handlers"
	"github.com/lmoreau/profilhub/internal/http/middlewares"
)

func storedUser() user.User {
	return user.User{
		ID:           "u1",
		LastName:     "Martin",
		FirstName:    "Claire",
		Email:        "claire@example.com",
		PasswordHash: "$2a$10$supersecret",
		Address:      "1 Rue de Rivoli, Paris",
		BirthDate:    time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC),
		PhoneNumber:  "0612345678",
	}
}

// setupProfileRouter mounts the profile routes behind the real auth middleware
// so token handling is part of what gets tested.
func setupProfileRouter(repo *fakeUsersRepo, jwtManager *auth.Manager) *gin.Engine {
	h := handlers.NewProfileHandler(repo, openGate(), discardLogger())

	r := gin.New()
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	r.GET("/user", authMW.RequireAuth(), h.GetProfile)
	r.PUT("/user", authMW.RequireAuth(), h.UpdateProfile)

	return r
}

func doRequest(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request

	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestGetProfile_Success(t *testing.T) {
	stored := storedUser()

	repo := &fakeUsersRepo{
		getByIDFn: func(_ context.Context, id string) (user.User, error) {
			if id == stored.ID {
				return stored, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	token, _ := jwtManager.GenerateToken(stored.ID, stored.Email)

	r := setupProfileRouter(repo, jwtManager)
	w := doRequest(r, http.MethodGet, "/user", token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got user.User

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got.ID != stored.ID || got.Email != stored.Email || got.Address != stored.Address {
		t.Fatalf("record mismatch: %+v", got)
	}

	if strings.Contains(w.Body.String(), "supersecret") {
		t.Fatalf("response leaks the password hash: %s", w.Body.String())
	}
}

func TestProfile_UnauthorizedVariantsAreIdentical(t *testing.T) {
	repo := &fakeUsersRepo{}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	expiredManager := auth.NewManager("test-secret", -time.Minute)

	expired, _ := expiredManager.GenerateToken("u1", "claire@example.com")

	r := setupProfileRouter(repo, jwtManager)

	tokens := map[string]string{
		"no token":        "",
		"malformed token": "garbage.token.here",
		"expired token":   expired,
	}

	var bodies []string
	for name, token := range tokens {
		w := doRequest(r, http.MethodGet, "/user", token, "")

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: got status %d, want 401", name, w.Code)
		}

		bodies = append(bodies, w.Body.String())
	}

	// expired and malformed must be byte-for-byte the same to callers
	for _, b := range bodies {
		if b != bodies[0] {
			t.Fatalf("unauthorized bodies differ: %v", bodies)
		}
	}
}

func TestGetProfile_StaleTokenSubject(t *testing.T) {
	repo := &fakeUsersRepo{} // GetByID defaults to ErrNotFound

	jwtManager := auth.NewManager("test-secret", time.Hour)
	token, _ := jwtManager.GenerateToken("gone-user", "ghost@example.com")

	var logBuf bytes.Buffer
	h := handlers.NewProfileHandler(repo, openGate(), slog.New(slog.NewTextHandler(&logBuf, nil)))

	r := gin.New()
	authMW := middlewares.NewAuthMiddleware(jwtManager)
	r.GET("/user", authMW.RequireAuth(), h.GetProfile)

	w := doRequest(r, http.MethodGet, "/user", token, "")

	// a valid token whose subject vanished is 404, not 401
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	// the anomaly log names the full token identity
	logged := logBuf.String()
	if !strings.Contains(logged, "gone-user") || !strings.Contains(logged, "ghost@example.com") {
		t.Fatalf("expected the stale subject to be logged, got: %s", logged)
	}
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	stored := storedUser()

	var gotParams user.UpdateParams

	repo := &fakeUsersRepo{
		updateFn: func(_ context.Context, id string, params user.UpdateParams) (user.User, error) {
			gotParams = params

			updated := stored
			if params.PhoneNumber != nil {
				updated.PhoneNumber = *params.PhoneNumber
			}
			return updated, nil
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	token, _ := jwtManager.GenerateToken(stored.ID, stored.Email)

	r := setupProfileRouter(repo, jwtManager)
	w := doRequest(r, http.MethodPut, "/user", token, `{"phoneNumber":"0700000000"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if gotParams.PhoneNumber == nil || *gotParams.PhoneNumber != "0700000000" {
		t.Fatalf("phone not passed through: %+v", gotParams)
	}

	// unspecified fields must arrive as nil so the store leaves them alone
	if gotParams.LastName != nil || gotParams.FirstName != nil || gotParams.Address != nil || gotParams.BirthDate != nil {
		t.Fatalf("unexpected fields set: %+v", gotParams)
	}
}

func TestUpdateProfile_EmailFieldIgnored(t *testing.T) {
	stored := storedUser()

	repo := &fakeUsersRepo{
		updateFn: func(_ context.Context, id string, params user.UpdateParams) (user.User, error) {
			return stored, nil
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	token, _ := jwtManager.GenerateToken(stored.ID, stored.Email)

	r := setupProfileRouter(repo, jwtManager)

	// an email (or password) field in the payload has nowhere to land
	body := `{"email":"evil@example.com","password":"pwned","lastName":"Durand"}`
	w := doRequest(r, http.MethodPut, "/user", token, body)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got user.User

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got.Email != stored.Email {
		t.Fatalf("email changed through update: %q", got.Email)
	}
}

func TestUpdateProfile_BadDate(t *testing.T) {
	stored := storedUser()

	jwtManager := auth.NewManager("test-secret", time.Hour)
	token, _ := jwtManager.GenerateToken(stored.ID, stored.Email)

	r := setupProfileRouter(&fakeUsersRepo{}, jwtManager)
	w := doRequest(r, http.MethodPut, "/user", token, `{"birthDate":"December 31st"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "invalid_date") {
		t.Fatalf("missing invalid_date code: %s", w.Body.String())
	}
}

func TestUpdateProfile_UnknownSubject(t *testing.T) {
	jwtManager := auth.NewManager("test-secret", time.Hour)
	token, _ := jwtManager.GenerateToken("gone-user", "ghost@example.com")

	r := setupProfileRouter(&fakeUsersRepo{}, jwtManager) // updateFn defaults to ErrNotFound
	w := doRequest(r, http.MethodPut, "/user", token, `{"lastName":"Durand"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}
