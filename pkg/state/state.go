// Package state remembers which skills each conversation has been shown.
// One JSON file per conversation holds the acknowledged set, which only
// grows, and the skills injected on the most recent turn.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/pkg/errors"
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// errCorrupt marks a state file that exists but does not decode.
var errCorrupt = errors.New("corrupt state file")

// State is the persisted record for one conversation.
type State struct {
	Acknowledged []string  `json:"acknowledged"`
	LastInjected []string  `json:"last_injected"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AcknowledgedSet returns Acknowledged as a set.
func (s State) AcknowledgedSet() map[string]bool {
	set := make(map[string]bool, len(s.Acknowledged))
	for _, name := range s.Acknowledged {
		set[name] = true
	}
	return set
}

// IOError reports a state file that could not be read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("session state %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Store keeps state files under a directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// the first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the state file for id. Identifiers that are not plain
// [A-Za-z0-9_-] tokens are hashed so they cannot escape the directory.
func (s *Store) Path(id string) string {
	name := id
	if !safeID.MatchString(id) {
		sum := sha256.Sum256([]byte(id))
		name = "sha256-" + hex.EncodeToString(sum[:])
	}
	return filepath.Join(s.dir, name+".json")
}

// Read returns the state for id. A missing file is an empty state; an
// unreadable or malformed file is an *IOError.
func (s *Store) Read(id string) (State, error) {
	if id == "" {
		return State{}, &IOError{Op: "read", Err: errors.New("empty state id")}
	}
	path := s.Path(id)
	st, err := readFile(path)
	if err != nil {
		return State{}, &IOError{Op: "read", Path: path, Err: err}
	}
	return st, nil
}

// Record unions injected into the acknowledged set for id and stores it as
// the last injected subset. The file is re-read under an exclusive lock so
// concurrent runs never lose acknowledgments. A corrupt file is moved aside
// to <path>.corrupt and replaced, starting from an empty acknowledged set.
func (s *Store) Record(id string, injected []string) (State, error) {
	if id == "" {
		return State{}, &IOError{Op: "write", Err: errors.New("empty state id")}
	}
	path := s.Path(id)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return State{}, &IOError{Op: "write", Path: path, Err: errors.Wrap(err, "failed to create state directory")}
	}

	var out State
	err := withLock(path, func() error {
		current, err := readFile(path)
		if errors.Is(err, errCorrupt) {
			logger.L.WithError(err).WithField("path", path).Warn("replacing corrupt session state")
			if renameErr := os.Rename(path, path+".corrupt"); renameErr != nil {
				return errors.Wrap(renameErr, "failed to move corrupt state file aside")
			}
			current, err = State{}, nil
		}
		if err != nil {
			return err
		}
		out = State{
			Acknowledged: union(current.Acknowledged, injected),
			LastInjected: append([]string{}, injected...),
			UpdatedAt:    s.now().UTC(),
		}
		return writeAtomic(path, out)
	})
	if err != nil {
		return State{}, &IOError{Op: "write", Path: path, Err: err}
	}
	return out, nil
}

// List returns the ids of stored states, sorted. Hashed ids are returned in
// their hashed form.
func (s *Store) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list state files")
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		ids = append(ids, base[:len(base)-len(".json")])
	}
	sort.Strings(ids)
	return ids, nil
}

func readFile(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, errors.Wrap(err, "failed to read state file")
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, errors.Wrapf(errCorrupt, "failed to unmarshal state file: %v", err)
	}
	return st, nil
}

func writeAtomic(path string, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to replace state file")
	}
	return nil
}

func union(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
