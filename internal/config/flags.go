package config

import (
	"flag"
	"os"
	"strings"

	"github.com/myvaultapp/myvault/internal/flagx"
)

// parseFlags overlays command line flags onto config. Only flags the user
// actually passed override earlier layers.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-store", "-cache", "-downloads", "-users",
	})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	store := fs.String("store", "", "remote store backend: drive or s3")
	cache := fs.String("cache", "", "local cache database path")
	downloads := fs.String("downloads", "", "download directory name")
	users := fs.String("users", "", "comma-separated account allow list")

	_ = fs.Parse(args)

	if *store != "" {
		config.StoreBackend = *store
	}
	if *cache != "" {
		config.CacheDSN = *cache
	}
	if *downloads != "" {
		config.DownloadDir = *downloads
	}
	if *users != "" {
		list := strings.Split(*users, ",")
		for i := range list {
			list[i] = strings.TrimSpace(list[i])
		}
		config.AllowedUsers = list
	}
}
