// Package storage keeps copies of generated spreadsheet exports.
//
// Exports are streamed to the user straight from the backend response; when
// archiving is enabled a copy is also written to object storage so that a
// download can be traced later. Two providers exist:
//   - LocalStorage: a directory on disk, for development
//   - R2Storage: Cloudflare R2 through the S3 API, for production
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is an object store addressed by slash-separated keys.
type Storage interface {
	// Put writes data at key. Without opts.Overwrite an existing key fails
	// with ErrKeyExists.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures a write.
type PutOptions struct {
	ContentType string // detected from the key when empty
	MaxSize     int64  // 0 means unlimited
	Overwrite   bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig configures LocalStorage.
type LocalConfig struct {
	// BasePath is the archive root, e.g. "./exports".
	BasePath string
}

// R2Config configures R2Storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Region defaults to "auto".
	Region string
}

const (
	ProviderNone  = "none"
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// New builds the configured provider. ProviderNone (or "") returns nil,
// which callers treat as "archiving disabled".
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderLocal:
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// ExportKey builds the archive key of an export.
// Format: exports/{kind}/{yyyy}/{mm}/{dd}/{uuid}-{filename}
//
// Example: "exports/clients/2024/03/09/5f0c...-clients.xlsx"
func ExportKey(kind, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = kind + ExtensionFor(SpreadsheetType)
	}
	name = strings.ReplaceAll(name, " ", "_")
	at = at.UTC()
	return fmt.Sprintf("exports/%s/%04d/%02d/%02d/%s-%s",
		kind, at.Year(), int(at.Month()), at.Day(), uuid.NewString(), name)
}
