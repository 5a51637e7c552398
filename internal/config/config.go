// Package config assembles the application configuration in three layers:
// compiled-in defaults, an optional JSON file (-c/-config), then command
// line flags. Later layers win.
package config

// S3Config holds the S3-compatible store settings. Endpoint may point at
// MinIO or any other S3 clone.
type S3Config struct {
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

type Config struct {
	// StoreBackend selects the remote store adapter: "drive" or "s3".
	StoreBackend string `json:"store_backend"`

	DriveAPIBase    string `json:"drive_api_base"`
	DriveUploadBase string `json:"drive_upload_base"`

	// AllowedUsers is the account allow list; empty means nobody signs in.
	AllowedUsers []string `json:"allowed_users"`

	// CacheDSN is the SQLite DSN of the local cache database.
	CacheDSN string `json:"cache_dsn"`

	// DownloadDir is created under the working directory for retrieved files.
	DownloadDir string `json:"download_dir"`

	S3 S3Config `json:"s3"`
}

func LoadDefaults() *Config {
	return &Config{
		StoreBackend:    "drive",
		DriveAPIBase:    "https://www.googleapis.com",
		DriveUploadBase: "https://www.googleapis.com",
		CacheDSN:        "myvault_cache.db",
		DownloadDir:     "downloads",
	}
}

// Load builds the effective configuration from all three layers.
func Load() (*Config, error) {
	config := LoadDefaults()

	err := parseJson(config)
	if err != nil {
		return nil, err
	}

	parseFlags(config)

	return config, nil
}
