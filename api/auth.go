package api

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator verifies bearer tokens on the API surface. A nil
// Authenticator means auth is disabled.
type Authenticator struct {
	key      any
	issuer   string
	audience string
}

// NewAuthenticator parses a PEM-encoded EC or RSA public verification key.
func NewAuthenticator(publicKeyPEM, issuer, audience string) (*Authenticator, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block containing the public key")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	switch key.(type) {
	case *ecdsa.PublicKey, *rsa.PublicKey:
	default:
		return nil, fmt.Errorf("unsupported public key type %T", key)
	}

	return &Authenticator{
		key:      key,
		issuer:   issuer,
		audience: audience,
	}, nil
}

func (a *Authenticator) verify(tokenString string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"ES256", "RS256"}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	_, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return a.key, nil
	}, opts...)
	return err
}

// Middleware rejects requests without a valid bearer token. The health
// endpoint stays open for probes.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if err := a.verify(token); err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
