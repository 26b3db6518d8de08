package home_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/mealplanner/internal/app/features/home"
	"go.uber.org/zap"
)

func TestServeRoot(t *testing.T) {
	h := home.NewHandler(zap.NewNop())

	rec := httptest.NewRecorder()
	home.Routes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != home.Banner {
		t.Errorf("body: got %q, want %q", rec.Body.String(), home.Banner)
	}
}
