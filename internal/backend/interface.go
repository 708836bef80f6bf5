// Package backend builds the storage, alert and export collaborators named
// by the application config.
package backend

import (
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// BackendType names a storage implementation.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a Result.
type CleanupFunc func() error

// Result holds everything a binary needs. Publisher and Exporter are nil
// when the matching feature is not configured.
type Result struct {
	Store     storage.Store
	Publisher services.AlertPublisher
	Exporter  sheets.LedgerExporter
	Cleanup   CleanupFunc
}
