// Package cli implements the interactive vault console.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/myvaultapp/myvault/internal/auth"
	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/config"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
	"github.com/myvaultapp/myvault/internal/vault"
)

type App struct {
	config     *config.Config
	log        logging.Logger
	cache      localcache.Repository
	authorizer *auth.Authorizer

	reader  *bufio.Reader
	session *vault.Session
	token   string
}

func NewApp(cfg *config.Config, log logging.Logger, cache localcache.Repository) *App {
	return &App{
		config:     cfg,
		log:        log,
		cache:      cache,
		authorizer: auth.NewAuthorizer(cfg.AllowedUsers),
		reader:     bufio.NewReader(os.Stdin),
	}
}

// buildStore constructs the remote store adapter the configuration asks for.
func (a *App) buildStore(ctx context.Context, token string) (blobstore.Store, error) {
	switch a.config.StoreBackend {
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Params{
			Endpoint:        a.config.S3.Endpoint,
			Region:          a.config.S3.Region,
			Bucket:          a.config.S3.Bucket,
			AccessKeyID:     a.config.S3.AccessKeyID,
			SecretAccessKey: a.config.S3.SecretAccessKey,
		})
	case "drive":
		return blobstore.NewDriveStore(blobstore.StaticTokenSource(token),
			blobstore.WithDriveEndpoints(a.config.DriveAPIBase, a.config.DriveUploadBase),
		), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.config.StoreBackend)
	}
}

func (a *App) signIn(ctx context.Context) error {
	tokenBytes, err := GetPassword("Access token")
	if err != nil {
		return err
	}
	// the session keeps a string copy; the prompt buffer is wiped
	token := string(tokenBytes)
	common.WipeByteArray(tokenBytes)

	identity, err := a.authorizer.Authorize(ctx, token)
	if err != nil {
		return err
	}

	store, err := a.buildStore(ctx, token)
	if err != nil {
		return err
	}

	session := vault.NewSession(identity, store, a.cache, a.log)
	if err := session.Open(ctx); err != nil {
		return err
	}

	a.session = session
	a.token = token
	fmt.Printf("Signed in as %s, %d item(s)\n", identity.Email, len(session.Items()))
	return nil
}

// signInOffline opens a read-only cached view when the provider cannot be
// reached. The identity comes from the ID token's email claim; no access
// is granted, only this device's own cached metadata is shown.
func (a *App) signInOffline(ctx context.Context) error {
	idToken, err := GetSimpleText(a.reader, "ID token")
	if err != nil {
		return err
	}

	email, err := auth.EmailFromIDToken(idToken)
	if err != nil {
		return err
	}

	store, err := a.buildStore(ctx, "")
	if err != nil {
		return err
	}

	session := vault.NewSession(&auth.Identity{Email: email}, store, a.cache, a.log)
	if err := session.Open(ctx); err != nil {
		return err
	}

	a.session = session
	fmt.Printf("Offline view for %s, %d cached item(s)\n", email, len(session.Items()))
	return nil
}

func (a *App) signOut(ctx context.Context) {
	if a.session == nil {
		return
	}
	if a.token != "" {
		a.authorizer.Revoke(ctx, a.token)
	}
	a.session.SignOut()
	a.session = nil
	a.token = ""
	fmt.Println("Signed out")
}
