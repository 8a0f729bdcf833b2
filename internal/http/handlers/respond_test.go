package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lmoreau/profilhub/internal/http/handlers"
	"github.com/lmoreau/profilhub/internal/http/middlewares"
)

// The request id middleware must not leak a per-request value into 401
// bodies, otherwise identical rejections become distinguishable.
func TestRespondUnAuthorized_BodyStableAcrossRequests(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.POST("/signin", func(ctx *gin.Context) {
		handlers.RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
	})

	var bodies []string

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}

		if w.Header().Get("X-Request-Id") == "" {
			t.Fatal("request id should still travel in the response header")
		}

		bodies = append(bodies, w.Body.String())
	}

	if bodies[0] != bodies[1] {
		t.Fatalf("401 bodies differ across requests:\n%s\n%s", bodies[0], bodies[1])
	}

	if strings.Contains(bodies[0], "requestId") {
		t.Fatalf("401 body must not carry a request id: %s", bodies[0])
	}
}
