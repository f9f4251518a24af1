package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/log"
	"github.com/folio-blog/folio/pkg/utils"
)

const (
	prefKeyPrefix = "pref:"          // Prefix for preference keys in DB
	prefsDBDir    = "preferences_db" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements PreferenceStore using BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewBadgerStore opens (or creates) the preference database under stateDir.
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(stateDir, prefsDBDir)
	logger.Infof("Opening preference database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(log.NewStoreLogAdapter(logger.WithField("component", "badgerdb"))).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrStore, dbPath, err)
	}

	return &BadgerStore{db: db, log: logger}, nil
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrStore, maxConflictRetries)
}

// Get implements PreferenceStore
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	found := false
	dbKey := []byte(prefKeyPrefix + key)

	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(dbKey)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		found = true
		value, errGet = item.ValueCopy(nil)
		return errGet
	})
	if err != nil {
		s.log.WithField("key", string(dbKey)).Errorf("DB View error in Get: %v", err)
		return nil, false, fmt.Errorf("%w: reading key '%s': %w", utils.ErrStore, string(dbKey), err)
	}
	return value, found, nil
}

// Put implements PreferenceStore
func (s *BadgerStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dbKey := []byte(prefKeyPrefix + key)

	err := s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(dbKey, value))
	})
	if err != nil {
		s.log.WithField("key", string(dbKey)).Errorf("DB Update error in Put: %v", err)
		return fmt.Errorf("%w: writing key '%s': %w", utils.ErrStore, string(dbKey), err)
	}
	s.log.Debugf("Stored preference '%s'", key)
	return nil
}

// RunGC runs BadgerDB's value log garbage collection periodically until ctx is done.
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Debug("DB GC: Database is closed, skipping GC cycle.")
				continue
			}
			var err error
			for {
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break
				}
			}
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection: %v", ctx.Err())
			return
		}
	}
}

// Close implements PreferenceStore
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	s.log.Info("Closing preference DB...")
	if err := s.db.Close(); err != nil {
		s.log.Errorf("Error closing preference DB: %v", err)
		return fmt.Errorf("%w: closing preference DB: %w", utils.ErrStore, err)
	}
	return nil
}
