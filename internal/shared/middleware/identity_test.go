package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithUserInjectsUserID(t *testing.T) {
	var gotID int64
	var gotOK bool
	handler := WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/", nil)
	req.Header.Set("X-User-ID", "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !gotOK || gotID != 42 {
		t.Errorf("user ID = %d (ok=%v), want 42", gotID, gotOK)
	}
}

func TestWithUserRejectsBadIdentity(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a number", header: "abc"},
		{name: "zero", header: "0"},
		{name: "negative", header: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/accounts/", nil)
			if tt.header != "" {
				req.Header.Set("X-User-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("handler must not run without a valid identity")
			}
		})
	}
}
