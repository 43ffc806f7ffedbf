package middleware

import (
	"context"
	"net/http"

	"github.com/dlswn666/johapon-api/internal/auth"
	"github.com/dlswn666/johapon-api/internal/response"
)

type ctxKey int

const principalKey ctxKey = iota

// Principal is the authenticated caller.
type Principal struct {
	TenantID string
	UserID   string
}

type TokenVerifier interface {
	Verify(token string) auth.Result
}

// Auth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func Auth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				response.Error(w, http.StatusUnauthorized, auth.CodeNoToken, "authorization token is required")
				return
			}

			res := v.Verify(token)
			if !res.Valid {
				response.Error(w, http.StatusUnauthorized, res.Code, res.Reason)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, Principal{TenantID: res.TenantID, UserID: res.SubjectID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
