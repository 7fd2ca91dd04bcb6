package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/lexora-app/lexora/core"
	"github.com/lexora-app/lexora/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
// Repositories created from it refuse to operate until EnsureSchema has
// completed once.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger

	schemaMu       sync.Mutex
	appliedVersion int // memoized persisted schema version; 0 = not ensured
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	return &Backend{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction. The function must
// call tx.Commit itself for write transactions; the transaction is discarded
// automatically if fn returns an error. Backend failures are translated to
// storage.ErrUnavailable.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return fmt.Errorf("%w: database closed", storage.ErrUnavailable)
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return mapError(err)
	}
	return nil
}

// requireSchema gates repository operations on schema readiness.
func (b *Backend) requireSchema() error {
	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()
	if b.appliedVersion == 0 {
		return storage.ErrNotInitialized
	}
	return nil
}

// schemaAtLeast reports whether the store schema is at the given version or
// later. Repositories use it to skip indexes that don't exist yet.
func (b *Backend) schemaAtLeast(version int) bool {
	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()
	return b.appliedVersion >= version
}

// passthroughErrors are the errors a transaction body may legitimately
// return: the storage taxonomy, domain validation sentinels and context
// cancellation. Everything else coming out of a transaction is a backend
// failure.
var passthroughErrors = []error{
	storage.ErrNotFound,
	storage.ErrNotInitialized,
	storage.ErrUnavailable,
	storage.ErrSchemaUpgradeFailed,
	storage.ErrTruncatedData,
	storage.ErrMalformedDocument,
	core.ErrInvalidProgressRecord,
	core.ErrInvalidSessionResult,
	core.ErrInvalidMastery,
	core.ErrInvalidSettings,
	context.Canceled,
	context.DeadlineExceeded,
}

// mapError translates transaction failures into the storage error taxonomy.
// Recognized errors pass through unchanged; anything else (a failed commit,
// an I/O error from the value log, a badger sentinel) wraps
// storage.ErrUnavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range passthroughErrors {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
}
