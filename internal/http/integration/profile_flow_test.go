package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lmoreau/profilhub/internal/auth"
	"github.com/lmoreau/profilhub/internal/config"
	"github.com/lmoreau/profilhub/internal/geo"
	"github.com/lmoreau/profilhub/internal/geocode"
	apphttp "github.com/lmoreau/profilhub/internal/http"
	"github.com/lmoreau/profilhub/internal/observability"
	"github.com/lmoreau/profilhub/internal/repo/memory"
)

// mapResolver resolves addresses from a fixed table, standing in for the
// outbound geocoding service.
type mapResolver struct {
	points map[string]geo.Point
}

func (r *mapResolver) Resolve(_ context.Context, address string) (geo.Point, error) {
	p, ok := r.points[address]

	if !ok {
		return geo.Point{}, geocode.ErrNoMatch
	}

	return p, nil
}

const (
	parisAddress = "55 Rue du Faubourg Saint-Honoré, 75008 Paris"
	lyonAddress  = "Place Bellecour, 69002 Lyon"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Env:              "test",
		GeofenceEnforced: true,
		GeofenceLat:      48.8566,
		GeofenceLon:      2.3522,
		GeofenceRadiusM:  50000,
	}

	users := memory.NewUsersRepo()

	resolver := &mapResolver{points: map[string]geo.Point{
		parisAddress: {Lat: 48.8705, Lon: 2.3166},
		lyonAddress:  {Lat: 45.7578, Lon: 4.8320},
	}}

	log := observability.NewLogger("test")

	router := apphttp.NewRouter(log, cfg, apphttp.Deps{
		Users:    users,
		JWT:      auth.NewManager("integration-secret", time.Hour),
		Resolver: resolver,
	})

	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestProfileFlow(t *testing.T) {
	router := newTestRouter(t)

	signupBody := `{
		"lastName": "Moreau",
		"firstName": "Claire",
		"email": "claire@example.com",
		"password": "s3cretpass",
		"address": "` + parisAddress + `",
		"birthDate": "14/03/1992",
		"phoneNumber": "+33612345678"
	}`

	// signup
	w := doJSON(t, router, http.MethodPost, "/signup", "", signupBody)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", w.Code, w.Body.String())
	}

	// duplicate signup is rejected
	w = doJSON(t, router, http.MethodPost, "/signup", "", signupBody)

	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", w.Code)
	}

	// signin
	w = doJSON(t, router, http.MethodPost, "/signin", "", `{"email":"claire@example.com","password":"s3cretpass"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body = %s", w.Code, w.Body.String())
	}

	var signin struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &signin); err != nil {
		t.Fatalf("decoding signin response: %v", err)
	}

	if signin.Token == "" {
		t.Fatal("signin response carries no token")
	}

	// profile requires the token
	w = doJSON(t, router, http.MethodGet, "/user", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated fetch status = %d, want 401", w.Code)
	}

	// fetch with token
	w = doJSON(t, router, http.MethodGet, "/user", signin.Token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, body = %s", w.Code, w.Body.String())
	}

	var fetched struct {
		FirstName   string `json:"firstName"`
		Address     string `json:"address"`
		PhoneNumber string `json:"phoneNumber"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}

	if fetched.FirstName != "Claire" || fetched.Address != parisAddress {
		t.Fatalf("unexpected profile: %+v", fetched)
	}

	if strings.Contains(w.Body.String(), "s3cretpass") || strings.Contains(strings.ToLower(w.Body.String()), "passwordhash") {
		t.Fatalf("profile leaks credentials: %s", w.Body.String())
	}

	// update a single field
	w = doJSON(t, router, http.MethodPut, "/user", signin.Token, `{"phoneNumber":"+33798765432"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	// refetch reflects the update and nothing else
	w = doJSON(t, router, http.MethodGet, "/user", signin.Token, "")

	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decoding refetched profile: %v", err)
	}

	if fetched.PhoneNumber != "+33798765432" {
		t.Fatalf("phone number not updated: %+v", fetched)
	}

	if fetched.FirstName != "Claire" || fetched.Address != parisAddress {
		t.Fatalf("untouched fields changed: %+v", fetched)
	}
}

func TestProfileFlow_AddressMustStayInsideFence(t *testing.T) {
	router := newTestRouter(t)

	signupBody := `{
		"lastName": "Moreau",
		"firstName": "Claire",
		"email": "claire@example.com",
		"password": "s3cretpass",
		"address": "` + lyonAddress + `",
		"birthDate": "14/03/1992",
		"phoneNumber": "+33612345678"
	}`

	w := doJSON(t, router, http.MethodPost, "/signup", "", signupBody)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range signup status = %d, want 400, body = %s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "address_out_of_range") {
		t.Fatalf("unexpected rejection body: %s", w.Body.String())
	}
}

func TestProfileFlow_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	router := newTestRouter(t)

	signupBody := `{
		"lastName": "Moreau",
		"firstName": "Claire",
		"email": "claire@example.com",
		"password": "s3cretpass",
		"address": "` + parisAddress + `",
		"birthDate": "14/03/1992",
		"phoneNumber": "+33612345678"
	}`

	if w := doJSON(t, router, http.MethodPost, "/signup", "", signupBody); w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", w.Code)
	}

	wrongPass := doJSON(t, router, http.MethodPost, "/signin", "", `{"email":"claire@example.com","password":"nope"}`)
	unknown := doJSON(t, router, http.MethodPost, "/signin", "", `{"email":"nobody@example.com","password":"nope"}`)

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d, want 401 / 401", wrongPass.Code, unknown.Code)
	}

	if wrongPass.Body.String() != unknown.Body.String() {
		t.Fatalf("rejection bodies differ:\n%s\n%s", wrongPass.Body.String(), unknown.Body.String())
	}
}

func TestAddressCheckEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/address/check?q="+strings.ReplaceAll(parisAddress, " ", "+"), "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("address check status = %d, body = %s", w.Code, w.Body.String())
	}

	var res struct {
		Valid          bool    `json:"valid"`
		DistanceMeters float64 `json:"distanceMeters"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding address check: %v", err)
	}

	if !res.Valid || res.DistanceMeters <= 0 || res.DistanceMeters > 50000 {
		t.Fatalf("unexpected address check result: %+v", res)
	}
}
