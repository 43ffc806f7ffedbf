package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlswn666/johapon-api/internal/auth"
	"github.com/dlswn666/johapon-api/internal/response"
)

type stubVerifier struct {
	result auth.Result
	got    string
}

func (s *stubVerifier) Verify(token string) auth.Result {
	s.got = token
	return s.result
}

func TestAuth(t *testing.T) {
	var seen Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		result auth.Result
		status int
		code   string
	}{
		{"no header", "", auth.Result{}, http.StatusUnauthorized, auth.CodeNoToken},
		{"expired", "Bearer t", auth.Result{Code: auth.CodeExpiredToken, Reason: "token expired"}, http.StatusUnauthorized, auth.CodeExpiredToken},
		{"valid", "Bearer t", auth.Result{Valid: true, TenantID: "u-1", SubjectID: "user-1"}, http.StatusNoContent, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &stubVerifier{result: tc.result}
			req := httptest.NewRequest(http.MethodGet, "/api/alimtalk/queue/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			Auth(v)(next).ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.code == "" {
				if seen.TenantID != "u-1" || seen.UserID != "user-1" || v.got != "t" {
					t.Errorf("principal not propagated: %+v", seen)
				}
				return
			}
			var env response.Envelope
			if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Success || env.Code != tc.code {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}
