package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// DefaultEnvFile is the dotenv file read for credentials when present.
const DefaultEnvFile = ".env"

// ErrMissingCredentials is returned before any network call when the Cloudflare
// token or account id cannot be found.
var ErrMissingCredentials = errors.New("CLOUDFLARE_API_TOKEN and CLOUDFLARE_ACCOUNT_ID must be set")

// Credentials authenticate against the Cloudflare API.
type Credentials struct {
	APIToken  string
	AccountID string
}

// LoadCredentials resolves the Cloudflare credentials.
// Priority:
// 1. Process environment
// 2. envFile (dotenv format), if it exists
func LoadCredentials(envFile string) (Credentials, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Credentials{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	creds := Credentials{
		APIToken:  v.GetString("cloudflare_api_token"),
		AccountID: v.GetString("cloudflare_account_id"),
	}
	if creds.APIToken == "" || creds.AccountID == "" {
		return creds, ErrMissingCredentials
	}
	return creds, nil
}
