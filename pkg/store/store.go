package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// UpdateFunc mutates doc in place. Returning an error aborts the update and
// nothing is written; returning ErrUnchanged skips the write but is not a
// failure.
type UpdateFunc func(doc *Document) error

var ErrUnchanged = errors.New("document unchanged")

// Store is a JSON file holding one Document. Every operation waits for a
// single slot, so operations run one at a time in arrival order and each
// sees the result of all the ones before it.
type Store struct {
	path string
	slot *semaphore.Weighted
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		slot: semaphore.NewWeighted(1),
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) withSlot(ctx context.Context, fn func() error) error {
	if err := s.slot.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "waiting for store")
	}
	defer s.slot.Release(1)
	return fn()
}

// Read returns the last committed document.
func (s *Store) Read(ctx context.Context) (*Document, error) {
	var doc *Document
	err := s.withSlot(ctx, func() error {
		var err error
		doc, err = s.read()
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Write replaces the stored document with doc.
func (s *Store) Write(ctx context.Context, doc *Document) error {
	return s.withSlot(ctx, func() error {
		return s.write(doc)
	})
}

// Update reads the document, applies fn and writes the result, all while
// holding the slot. The error returned by fn is passed through unchanged.
func (s *Store) Update(ctx context.Context, fn UpdateFunc) (*Document, error) {
	var doc *Document
	err := s.withSlot(ctx, func() error {
		current, err := s.read()
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			if err == ErrUnchanged {
				doc = current
				return nil
			}
			return err
		}
		if err := s.write(current); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "checking store file %s", s.path)
	}
	glog.V(2).Infof("store: creating %s", s.path)
	return s.write(NewDocument())
}

func (s *Store) read() (*Document, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading store file %s", s.path)
	}
	return decodeDocument(data), nil
}

// write puts the document next to the target under a temporary name and
// renames it into place, so readers only ever see a complete file.
func (s *Store) write(doc *Document) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding store document")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating store directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temporary store file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "writing %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "syncing %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "closing %s", tmpPath)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "replacing %s", s.path)
	}

	glog.V(4).Infof("store: committed %d users, %d exams, %d drafts", len(doc.Users), len(doc.Exams), len(doc.Drafts))
	return nil
}
