package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("blob is not found")

// BlobStore keeps uploaded objects on the local filesystem, one file per storage key.
type BlobStore struct {
	logger  *slog.Logger
	mx      sync.RWMutex
	basedir string
}

func NewBlobStore(basedir string) *BlobStore {
	_ = os.MkdirAll(basedir, 0o777)

	return &BlobStore{
		logger:  slog.With("logger", "storage"),
		mx:      sync.RWMutex{},
		basedir: basedir,
	}
}

func (m *BlobStore) name(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("no key")
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("bad key %s", key)
	}

	return filepath.Join(m.basedir, clean), nil
}

func (m *BlobStore) Open(key string) (io.ReadSeekCloser, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	fn, err := m.name(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fn)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}

	return f, err
}

func (m *BlobStore) Stat(key string) (os.FileInfo, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	fn, err := m.name(key)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(fn)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}

	return fi, err
}

// Put stores r under key and returns the sha256 of the content and its size.
func (m *BlobStore) Put(key string, r io.Reader) (string, int64, error) {
	fn, err := m.name(key)
	if err != nil {
		return "", 0, err
	}

	m.mx.Lock()
	defer m.mx.Unlock()

	if err := os.MkdirAll(filepath.Dir(fn), 0o777); err != nil {
		return "", 0, err
	}

	f, err := os.CreateTemp(filepath.Dir(fn), ".upload_*")
	if err != nil {
		return "", 0, err
	}

	defer os.Remove(f.Name())
	defer f.Close()

	h := sha256.New()

	n, err := io.Copy(f, io.TeeReader(r, h))
	if err != nil {
		return "", 0, err
	}

	if err := f.Close(); err != nil {
		return "", 0, err
	}

	if err := os.Rename(f.Name(), fn); err != nil {
		return "", 0, err
	}

	hash := hex.EncodeToString(h.Sum(nil))
	m.logger.Debug(fmt.Sprintf("stored %s, %d bytes, sha256 %s", key, n, hash))

	return hash, n, nil
}
