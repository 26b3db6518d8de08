package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("op", "bad"), http.StatusBadRequest},
		{"duplicate", Duplicate("op", "a@x.com"), http.StatusBadRequest},
		{"not found", New(KindNotFound, "op", "missing"), http.StatusNotFound},
		{"credentials", New(KindInvalidCredentials, "op", "nope"), http.StatusUnauthorized},
		{"upstream", Wrap(KindUpstreamGeneration, "op", errors.New("boom")), http.StatusInternalServerError},
		{"persistence", Wrap(KindPersistence, "op", errors.New("disk")), http.StatusInternalServerError},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", New(KindNotFound, "op", "")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorIsSentinel(t *testing.T) {
	err := fmt.Errorf("ctx: %w", Wrap(KindPersistence, "save", errors.New("disk full")))
	if !errors.Is(err, ErrPersistence) {
		t.Error("expected errors.Is(err, ErrPersistence)")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("persistence error must not match ErrNotFound")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindPersistence, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWriteError_Duplicate(t *testing.T) {
	req := httptest.NewRequest("POST", "/webhook", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, zap.NewNop(), Duplicate("intake", "a@x.com"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Email already registered" {
		t.Errorf("error: got %q", body["error"])
	}
	if body["email"] != "a@x.com" {
		t.Errorf("email: got %q", body["email"])
	}
}

func TestWriteError_HidesInternals(t *testing.T) {
	req := httptest.NewRequest("POST", "/webhook", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, zap.NewNop(), Wrap(KindPersistence, "save", errors.New("/secret/path: permission denied")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := rec.Body.String(); strings.Contains(got, "/secret/path") {
		t.Errorf("response leaked internal detail: %s", got)
	}
}
