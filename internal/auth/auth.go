package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CodeNoToken        = "NO_TOKEN"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeExpiredToken   = "EXPIRED_TOKEN"
	CodeMalformedToken = "MALFORMED_TOKEN"
)

// Claims are issued by the homepage backend sharing JWT_SECRET.
type Claims struct {
	UnionID string `json:"unionId"`
	UserID  string `json:"userId"`
	jwt.RegisteredClaims
}

type Result struct {
	Valid     bool
	TenantID  string
	SubjectID string
	Reason    string
	Code      string
}

// Verifier checks HMAC-signed bearer tokens. It only verifies; tokens are
// issued elsewhere.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) Result {
	if tokenString == "" {
		return Result{Reason: "no token provided", Code: CodeNoToken}
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected method: %s", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{Reason: "token expired", Code: CodeExpiredToken}
		}
		return Result{Reason: "invalid token", Code: CodeInvalidToken}
	}

	if claims.UnionID == "" || claims.UserID == "" {
		return Result{Reason: "token is missing required claims", Code: CodeMalformedToken}
	}
	return Result{Valid: true, TenantID: claims.UnionID, SubjectID: claims.UserID}
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header.
func ExtractBearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
