// Package auth implements the identity boundary: resolving who a bearer
// token belongs to and gating vault access on the configured allow list.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/myvaultapp/myvault/internal/common"
)

// Identity is a signed-in account. Emails are compared lowercased.
type Identity struct {
	Email string
}

// Authorizer checks tokens against the provider's userinfo endpoint and the
// allow list. Endpoint fields are settable for tests.
type Authorizer struct {
	UserinfoURL string
	RevokeURL   string
	Client      *http.Client

	allowed map[string]struct{}
}

func NewAuthorizer(allowedUsers []string) *Authorizer {
	allowed := make(map[string]struct{}, len(allowedUsers))
	for _, u := range allowedUsers {
		allowed[strings.ToLower(strings.TrimSpace(u))] = struct{}{}
	}
	return &Authorizer{
		UserinfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		RevokeURL:   "https://oauth2.googleapis.com/revoke",
		Client:      &http.Client{Timeout: 15 * time.Second},
		allowed:     allowed,
	}
}

// Authorize resolves the token to an identity and checks the allow list.
// A token for an unlisted account is revoked before ErrAccessDenied is
// returned, so no usable grant is left behind.
func (a *Authorizer) Authorize(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.UserinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", common.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("%w: userinfo status %d: %s",
			common.ErrRemoteUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decoding userinfo: %v", common.ErrRemoteUnavailable, err)
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: userinfo returned no email", common.ErrRemoteUnavailable)
	}

	if _, ok := a.allowed[email]; !ok {
		a.Revoke(ctx, accessToken)
		return nil, fmt.Errorf("%s: %w", email, common.ErrAccessDenied)
	}

	return &Identity{Email: email}, nil
}

// Revoke invalidates the token at the provider. Best effort: revocation
// failing must not block sign-out.
func (a *Authorizer) Revoke(ctx context.Context, accessToken string) {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.RevokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.Client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
