package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Kind classifies persistence failures.
type Kind string

const (
	// KindNotFound means no snapshot exists at the given path.
	KindNotFound Kind = "not_found"
	// KindCorrupt means a snapshot exists but cannot be decoded.
	KindCorrupt Kind = "corrupt"
	// KindIOFailure means the filesystem operation itself failed.
	KindIOFailure Kind = "io_failure"
)

// Error is the typed persistence error.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Path is the snapshot location involved.
	Path string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("docstore: %s: %s (%v)", e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// snapshotVersion identifies the on-disk format. Bump on incompatible change.
const snapshotVersion = 1

// snapshot is the self-describing on-disk form of a Store.
type snapshot struct {
	// Version is the snapshot format version.
	Version int `json:"version"`
	// Documents maps Document.ID to the document.
	Documents map[string]Document `json:"documents"`
}

// Persist writes the full store to path atomically: the snapshot is written
// to a staging file in the same directory, fsynced, then renamed into place.
// A crash mid-write leaves either the fully-prior or the fully-new snapshot
// on disk, never a partial one.
func (s *Store) Persist(path string) error {
	s.mu.RLock()
	snap := snapshot{Version: snapshotVersion, Documents: make(map[string]Document, len(s.docs))}
	for id, d := range s.docs {
		snap.Documents[id] = d
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}

	// Staging file lives in the target directory so the rename below is a
	// same-filesystem atomic swap.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return &Error{Kind: KindIOFailure, Path: path, Err: err}
	}
	return nil
}

// Load reads a snapshot from path into a new Store. It fails with a
// not-found Error if no snapshot exists and a corrupt Error if the snapshot
// cannot be decoded.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: KindNotFound, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindIOFailure, Path: path, Err: err}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &Error{Kind: KindCorrupt, Path: path, Err: err}
	}
	if snap.Version != snapshotVersion {
		return nil, &Error{Kind: KindCorrupt, Path: path, Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}

	s := NewStore()
	for id, d := range snap.Documents {
		if d.ID == "" {
			d.ID = id
		}
		s.docs[d.ID] = d
	}
	return s, nil
}
