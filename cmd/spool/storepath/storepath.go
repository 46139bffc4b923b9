// Package storepath resolves the on-disk location of a spool record log for
// CLI commands that read an existing store.
package storepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

func ResolveStorePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("SPOOL_SQLITE")); envPath != "" {
		return envPath, nil
	}
	if envPath := strings.TrimSpace(os.Getenv("SPOOL_DB")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range storeCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.New("could not find spool SQLite database; pass --sqlite")
}

func storeCandidates() []string {
	candidates := []string{
		"spool.db",
		"spool.sqlite",
		filepath.Join(".spool", "spool.db"),
		filepath.Join(".spool", "spool.sqlite"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".spool", "spool.db"),
			filepath.Join(home, ".spool", "spool.sqlite"),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "spool", "spool.db"),
			filepath.Join(xdgHome, "spool", "spool.sqlite"),
		}, candidates...)
	}

	return candidates
}
