package storage

import (
	"bytes"
	"context"
	"log/slog"
	"time"
)

// MaxArchiveSize bounds one archived export.
const MaxArchiveSize = 50 * 1024 * 1024

// Archiver writes copies of exports. A nil *Archiver, or one without a
// store, archives nothing.
type Archiver struct {
	store  Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewArchiver returns nil when store is nil.
func NewArchiver(store Storage, logger *slog.Logger) *Archiver {
	if store == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, logger: logger, now: time.Now}
}

// Enabled reports whether Save stores anything.
func (a *Archiver) Enabled() bool {
	return a != nil && a.store != nil
}

// Save stores one export and returns its key, or "" when archiving is off.
func (a *Archiver) Save(ctx context.Context, kind, filename, contentType string, body []byte) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	key := ExportKey(kind, filename, a.now())
	err := a.store.Put(ctx, key, bytes.NewReader(body), PutOptions{
		ContentType: DetectContentType(contentType, filename, nil),
		MaxSize:     MaxArchiveSize,
	})
	if err != nil {
		return "", err
	}

	a.logger.Info("export archived", "kind", kind, "key", key, "size", len(body))
	return key, nil
}
