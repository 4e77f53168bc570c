package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const filePerm = 0600

// FileStore keeps one file per key under dir. Writes go through a temp file and a
// rename so a reader never observes a half-written blob.
type FileStore struct {
	mu        sync.Mutex
	dir       string
	namespace string
}

func NewFileStore(dir string, namespace string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "creating store dir %s", dir)
	}
	return &FileStore{dir: dir, namespace: namespace}, nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return data, nil
}

func (s *FileStore) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warnf("Error removing temp file %s", tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", key)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "chmod %s", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path(key)), "committing %s", key)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(Namespaced(s.namespace, key))
	return filepath.Join(s.dir, name+".json")
}
