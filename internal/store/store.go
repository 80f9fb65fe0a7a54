// Package store implements the Subscription Store (spec.md §4.B): an
// on-disk, directory-backed persistence layer for subscription records
// with serialized port allocation and exclusive-create semantics.
//
// Grounded on SubscriptionDatabase in
// _examples/original_source/lae_automation/subscription_manager.py,
// translated from Python's single O_CREAT|O_EXCL write (with a TODO
// about renameat2) into Go's write-to-temp-file-then-os.Link: the link
// puts the complete file at its final name in one step and fails if that
// name already exists, so it never overwrites an existing record.
package store

import (
	"encoding/base32"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-password/password"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

const (
	firstPort = 10000
	lastPort  = 65535
)

var b32 = base32.StdEncoding

// Store is a directory-backed subscription record store. All mutating
// operations serialize on mu: port allocation must observe a consistent
// count of existing records (spec.md §4.B).
type Store struct {
	root string
	log  logr.Logger
	mu   sync.Mutex

	operations *prometheus.CounterVec
}

// New returns a Store rooted at dir. The directory must already exist;
// the store refuses to bootstrap a missing root (spec.md §4.B).
func New(dir string, log logr.Logger, operations *prometheus.CounterVec) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("state directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("state path %q is not a directory", dir)
	}
	return &Store{root: dir, log: log, operations: operations}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, b32.EncodeToString([]byte(id))+".json")
}

func (s *Store) observe(op string, err error) {
	if s.operations == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	s.operations.WithLabelValues(op, result).Inc()
}

// ListIdentifiers returns the ids of every active record. Inactive
// records are hidden from this view (spec.md §4.B).
func (s *Store) ListIdentifiers() (ids []string, err error) {
	defer func() { s.observe("list", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading state directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		r, err := s.readFile(filepath.Join(s.root, entry.Name()))
		if err != nil {
			s.log.Error(err, "skipping unreadable record", "file", entry.Name())
			continue
		}
		if r.Active {
			ids = append(ids, r.ID)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// Get returns any record, active or inactive, failing ErrNotFound if id
// is unknown.
func (s *Store) Get(id string) (r subscription.Record, err error) {
	defer func() { s.observe("get", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readFile(s.path(id))
}

// Create atomically reserves the next port pair and writes a new active
// record. It fails ErrAlreadyExists if id collides with an existing
// record, and ErrExhausted if the port space is full.
func (s *Store) Create(id string, details subscription.PartialDetails) (r subscription.Record, err error) {
	defer func() { s.observe("create", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(id)
	if _, statErr := os.Stat(path); statErr == nil {
		return subscription.Record{}, fmt.Errorf("%w: %s", subscription.ErrAlreadyExists, id)
	}

	count, err := s.countRecords()
	if err != nil {
		return subscription.Record{}, err
	}

	introducer := firstPort + 2*count
	if introducer >= lastPort {
		return subscription.Record{}, fmt.Errorf("%w: no ports remain below %d", subscription.ErrExhausted, lastPort)
	}

	if details.OldSecrets == "" {
		secret, genErr := password.Generate(32, 10, 0, false, false)
		if genErr != nil {
			return subscription.Record{}, fmt.Errorf("generating subscription credentials: %w", genErr)
		}
		details.OldSecrets = secret
	}

	r, err = subscription.New(id, details, introducer, introducer+1)
	if err != nil {
		return subscription.Record{}, err
	}

	if err := s.writeFileExclusive(path, r); err != nil {
		return subscription.Record{}, err
	}

	return r, nil
}

// Deactivate flips a record's active flag to false. It is idempotent:
// deactivating an already-inactive record succeeds without error. It
// fails ErrNotFound for unknown ids.
func (s *Store) Deactivate(id string) (err error) {
	defer func() { s.observe("deactivate", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(id)
	r, err := s.readFile(path)
	if err != nil {
		return err
	}
	if !r.Active {
		return nil
	}

	return s.overwriteFile(path, r.Deactivated())
}

func (s *Store) countRecords() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading state directory: %w", err)
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			n++
		}
	}
	return n, nil
}

func (s *Store) readFile(path string) (subscription.Record, error) {
	buf, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return subscription.Record{}, fmt.Errorf("%w: %s", subscription.ErrNotFound, path)
	}
	if err != nil {
		return subscription.Record{}, fmt.Errorf("reading record: %w", err)
	}

	r, err := subscription.Unmarshal(buf)
	if err != nil {
		return subscription.Record{}, err
	}
	return r, nil
}

// writeFileExclusive creates path for the first time, refusing to
// overwrite an existing file. It writes the complete record to a
// temporary file in the same directory first, then hard-links it into
// place, so a crash mid-write never leaves a torn record visible at
// path (spec.md §4.B's atomicity requirement).
func (s *Store) writeFileExclusive(path string, r subscription.Record) error {
	buf, err := subscription.Marshal(r)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary record file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; the link below keeps the record at path

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temporary record file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary record file: %w", err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", subscription.ErrAlreadyExists, path)
		}
		return fmt.Errorf("linking record file into place: %w", err)
	}
	return nil
}

// overwriteFile rewrites an existing record in place (used only for
// deactivation). Losing this update to a crash is tolerable: a future
// reconciliation tick will observe the store's state and repeat the
// deactivation request (spec.md §4.B).
func (s *Store) overwriteFile(path string, r subscription.Record) error {
	buf, err := subscription.Marshal(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
