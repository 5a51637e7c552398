package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// EmailFromIDToken extracts the email claim from an OIDC ID token without
// verifying its signature. The result only selects the per-identity cache
// namespace before any network round-trip; it never grants access, which
// always goes through Authorizer.Authorize.
func EmailFromIDToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", fmt.Errorf("parsing id token: %w", err)
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("id token has no email claim")
	}
	return strings.ToLower(email), nil
}
