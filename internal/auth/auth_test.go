package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/myvaultapp/myvault/internal/common"
)

func newTestAuthorizer(t *testing.T, allowed []string, userinfo, revoke http.HandlerFunc) *Authorizer {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/userinfo", userinfo)
	if revoke != nil {
		mux.HandleFunc("/revoke", revoke)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	a := NewAuthorizer(allowed)
	a.UserinfoURL = srv.URL + "/userinfo"
	a.RevokeURL = srv.URL + "/revoke"
	a.Client = srv.Client()
	return a
}

func TestAuthorize_AllowedUser(t *testing.T) {
	a := newTestAuthorizer(t, []string{"Alice@Example.com"},
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]string{"email": "alice@example.com"})
		}, nil)

	id, err := a.Authorize(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", id.Email)
}

func TestAuthorize_UnlistedUserIsRevokedAndDenied(t *testing.T) {
	revoked := false

	a := newTestAuthorizer(t, []string{"alice@example.com"},
		func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"email": "mallory@example.com"})
		},
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			require.Equal(t, "tok", r.FormValue("token"))
			revoked = true
		})

	_, err := a.Authorize(context.Background(), "tok")
	require.ErrorIs(t, err, common.ErrAccessDenied)
	require.True(t, revoked, "token must be revoked before denying access")
}

func TestAuthorize_UserinfoFailure(t *testing.T) {
	a := newTestAuthorizer(t, []string{"alice@example.com"},
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}, nil)

	_, err := a.Authorize(context.Background(), "tok")
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
}

func TestEmailFromIDToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "Bob@Example.com",
		"sub":   "12345",
	})
	raw, err := token.SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	email, err := EmailFromIDToken(raw)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", email)
}

func TestEmailFromIDToken_NoEmailClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "12345"})
	raw, err := token.SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	_, err = EmailFromIDToken(raw)
	require.Error(t, err)
}

func TestEmailFromIDToken_Garbage(t *testing.T) {
	_, err := EmailFromIDToken("not-a-jwt")
	require.Error(t, err)
}
