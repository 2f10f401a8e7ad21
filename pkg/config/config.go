package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/winefeed/catalog-sync/pkg/types"
)

const (
	EnvFTPHost     = "FTP_HOST"
	EnvFTPUsername = "FTP_USERNAME"
	EnvFTPPassword = "FTP_PASSWORD"
	EnvXMLFilename = "XML_FILENAME"
	EnvAPIToken    = "SALSIFY_API_TOKEN"
)

// Required lists the settings that must be non-empty before a run starts, in reporting order.
var Required = []string{EnvFTPHost, EnvFTPUsername, EnvFTPPassword, EnvXMLFilename, EnvAPIToken}

// Config holds the process-wide settings, loaded once at startup.
type Config struct {
	FTPHost     string
	FTPUsername string
	FTPPassword string
	XMLFilename string
	APIToken    string
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile merges variables from a dotenv file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return xerrors.Errorf("unable to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config and fails with *types.ConfigurationError naming
// every required variable that is unset or empty.
func FromLookup(lookup LookupFunc) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	missing := lo.Filter(Required, func(key string, _ int) bool {
		return get(key) == ""
	})
	if len(missing) > 0 {
		return Config{}, &types.ConfigurationError{Missing: missing}
	}

	return Config{
		FTPHost:     get(EnvFTPHost),
		FTPUsername: get(EnvFTPUsername),
		FTPPassword: get(EnvFTPPassword),
		XMLFilename: get(EnvXMLFilename),
		APIToken:    get(EnvAPIToken),
	}, nil
}
