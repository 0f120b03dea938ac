package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing authorization header")
	errInvalidToken = errors.New("invalid token")
)

// Authenticator verifies the login token that lifts a session's gate.
// With no secret configured every request is accepted.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for HS256 tokens.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Enabled reports whether tokens are checked.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Verify checks the request's bearer token and returns its subject.
func (a *Authenticator) Verify(r *http.Request) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errInvalidToken
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Join(errInvalidToken, err)
	}
	if !token.Valid {
		return "", errInvalidToken
	}

	subject, _ := token.Claims.GetSubject()
	return subject, nil
}
