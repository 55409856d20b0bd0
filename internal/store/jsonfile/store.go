// Package jsonfile keeps the queue document in a JSON file on disk, the
// layout the service has always used for single-box deployments.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/angelmondragon/songqueue-backend/internal/queue"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/gofrs/flock"
)

const (
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 25 * time.Millisecond
)

// Store reads and atomically replaces the document at path. A sibling
// ".lock" file serialises access across processes sharing the file. The
// flock is reentrant within a Store, so mu serialises its goroutines.
type Store struct {
	path        string
	mu          sync.Mutex
	lock        *flock.Flock
	lockTimeout time.Duration
}

// New returns a file store rooted at path. The file is created on first Load.
func New(path string, lockTimeout time.Duration) (*Store, error) {
	if path == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queue file path required")
	}
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: lockTimeout,
	}, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (*queue.Document, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := queue.NewDocument()
		if err := s.write(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read queue file")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return queue.NewDocument(), nil
	}

	var doc queue.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode queue file").
			WithDetails(map[string]any{"path": s.path})
	}
	return &doc, nil
}

func (s *Store) Save(ctx context.Context, doc *queue.Document) error {
	if doc == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "queue document required")
	}
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return s.write(doc)
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()
	release := func() {
		s.lock.Unlock()
		s.mu.Unlock()
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.mu.Unlock()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create queue directory")
		}
	}
	ok, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		s.mu.Unlock()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire queue file lock")
	}
	if !ok {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queue file is locked by another process")
	}
	return release, nil
}

// write replaces the file via a uniquely named temp file and rename so
// readers never see a partial document.
func (s *Store) write(doc *queue.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode queue document")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.tmp")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create queue temp file")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write queue temp file")
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "chmod queue temp file")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close queue temp file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("rename %s: %w", tmpPath, err), "replace queue file")
	}
	committed = true
	return nil
}
