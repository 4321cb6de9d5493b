// Package where resolves the directories and files streamhub keeps on disk.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/streamhub-cli/streamhub/constant"
	"github.com/streamhub-cli/streamhub/filesystem"
)

// EnvConfigPath overrides the configuration directory when set.
const EnvConfigPath = "STREAMHUB_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config returns the configuration directory, creating it if needed.
// STREAMHUB_CONFIG_PATH takes precedence over the platform default.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.StreamHub))
}

// Cache returns the cache directory, creating it if needed.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.StreamHub))
}

// Logs returns the directory that daily log files are written to.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// History returns the watch history file.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Queries returns the file of remembered play queries.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Version returns the file caching the latest released version.
func Version() string {
	return filepath.Join(Cache(), "version.json")
}

// Temp returns a scratch directory for player sockets and similar runtime files.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.StreamHub))
}
