package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/pkg/utils"
)

// ErrMissingToken is returned when a request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

type userKey struct{}

// User is the authenticated caller.
type User struct {
	ID        string
	SessionID string
}

// UserFrom returns the caller stored by Auth, if any.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// Authenticator verifies RS256 session tokens issued by the identity
// provider.
type Authenticator struct {
	key      *rsa.PublicKey
	required bool
	parser   *jwt.Parser
}

// NewAuthenticator parses the configured PEM key. Without a key, requests
// pass through unauthenticated unless auth is required.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	a := &Authenticator{
		required: cfg.Required,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithExpirationRequired()),
	}
	if strings.TrimSpace(cfg.PublicKeyPEM) == "" {
		if cfg.Required {
			return nil, errors.New("auth required but no public key configured")
		}
		return a, nil
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth public key: %w", err)
	}
	a.key = key
	return a, nil
}

// Verify parses a raw token and returns its subject.
func (a *Authenticator) Verify(raw string) (User, error) {
	if a.key == nil {
		return User{}, errors.New("no verification key configured")
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	})
	if err != nil {
		return User{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return User{}, errors.New("token has no subject")
	}
	sid, _ := claims["sid"].(string)
	return User{ID: sub, SessionID: sid}, nil
}

// Middleware attaches the caller to the request context. Invalid tokens are
// rejected; missing tokens are rejected only when auth is required. Without
// a verification key and with auth optional every request passes through.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.key == nil && !a.required {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := bearerToken(r)
		if err != nil {
			if a.required {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.Verify(raw)
		if err != nil {
			log.Printf("[auth] rejected token: %v", err)
			utils.RespondError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// Identify attaches the caller when a valid token is present and never
// rejects the request.
func (a *Authenticator) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err == nil && a.key != nil {
			if user, err := a.Verify(raw); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey{}, user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}
	if cookie, err := r.Cookie("__session"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrMissingToken
}
