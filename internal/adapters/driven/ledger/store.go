package ledger

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.LedgerStore = (*Store)(nil)

// lockRetry is how often a blocked Merge retries the lock file.
const lockRetry = 25 * time.Millisecond

// Store is a driven.LedgerStore backed by a text file.
//
// Merges are serialised twice: a mutex for goroutines in this process and
// an advisory lock on "<path>.lock" for other processes sharing the file.
// The new contents are written to a temporary file and renamed over the
// ledger, so a crash mid-write leaves the previous version intact.
type Store struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewStore creates a ledger at path. The file is created on first Merge.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the ledger. A missing file is an empty set.
func (s *Store) Load(_ context.Context) (domain.FileSet, error) {
	set, err := s.read()
	if err != nil {
		return nil, domain.Storage("read ledger", err)
	}
	return set, nil
}

// Merge unions names into the ledger and rewrites it.
func (s *Store) Merge(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return domain.Storage("create ledger directory", err)
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return domain.Storage("lock ledger", err)
	}
	if !locked {
		return domain.Storage("lock ledger", errors.New("lock not acquired"))
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logger.Warn("unlock ledger: %v", err)
		}
	}()

	current, err := s.read()
	if err != nil {
		return domain.Storage("read ledger", err)
	}
	merged := current.Union(domain.NewFileSet(names...))
	if len(merged) == len(current) {
		logger.Debug("Ledger unchanged (%d entries)", len(current))
		return nil
	}

	if err := s.write(merged); err != nil {
		return domain.Storage("write ledger", err)
	}
	logger.Debug("Ledger now holds %d entries", len(merged))
	return nil
}

func (s *Store) read() (domain.FileSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewFileSet(), nil
		}
		return nil, err
	}
	return parse(data)
}

func (s *Store) write(set domain.FileSet) error {
	var buf bytes.Buffer
	for _, name := range set.Sorted() {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once renamed.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// parse reads one filename per line. Names are kept byte for byte apart from
// a CRLF terminator, since filenames may legally start or end with spaces.
// Only empty lines are skipped.
func parse(data []byte) (domain.FileSet, error) {
	set := domain.NewFileSet()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if name := strings.TrimSuffix(scanner.Text(), "\r"); name != "" {
			set.Add(name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}
	return set, nil
}
