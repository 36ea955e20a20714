// Package store persists small records (calibrations, the active
// calibration name, display preferences) behind a key-value interface.
//
// Values are opaque byte strings; callers encode them as JSON. Three
// backends exist: a JSON file, a SQLite database and an in-memory map.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Keys used by the measurement tool.
const (
	KeyCalibrations      = "calibrations"
	KeyActiveCalibration = "activeCalibration"
	KeyPreferences       = "preferences"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrNotFound is returned by Get when a key has never been stored.
var ErrNotFound = errors.New("key not found")

// Store is a load/save key-value collaborator.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Open creates the store for the named backend inside dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendJSON, "":
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		return OpenFile(filepath.Join(dataDir, "storage.json"))
	case BackendSQLite:
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		return OpenSQLite(filepath.Join(dataDir, "spore-measure.db"))
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
