// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the trimmed
// file contents are the value. Keeping credentials in files rather than the
// config file means the config can be committed while .secrets/ stays out
// of version control.
//
// The pipeline consults GeminiAPIKey and SMTPPassword; other files load
// fine and are simply never read back.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filenames of the secrets the pipeline consults.
const (
	GeminiAPIKey = "gemini-api-key"
	SMTPPassword = "smtp-password"
)

// Secrets holds loaded secret values keyed by filename.
type Secrets map[string]string

// Get returns the named secret, or "" when it was not loaded.
func (s Secrets) Get(name string) string {
	return s[name]
}

// Names returns the loaded key names in sorted order. Values are never
// included, so the result is safe to log.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every regular file in dir into a Secrets map. A missing
// directory is not an error; Load returns an empty map so an unconfigured
// checkout still runs. Dotfiles, subdirectories, and empty files are
// skipped. Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			loaded[name] = value
		}
	}

	return loaded, nil
}
