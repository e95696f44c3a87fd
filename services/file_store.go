package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"docshelf/logger"
	"docshelf/metrics"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	filesDir      = "files"
	thumbnailsDir = "thumbnails"
)

// StoredFile is the result of writing an upload to the store.
type StoredFile struct {
	RelPath string
	Size    int64
}

// FileStore keeps document content under relative paths.
type FileStore interface {
	Save(r io.Reader, originalName string) (StoredFile, error)
	Create(relPath string) (afero.File, error)
	Open(relPath string) (afero.File, error)
	Stat(relPath string) (os.FileInfo, error)
	Remove(relPath string) error
	Walk(root string, fn filepath.WalkFunc) error
}

type aferoFileStore struct {
	fs  afero.Fs
	now func() time.Time
}

func NewFileStore(fsys afero.Fs) FileStore {
	return &aferoFileStore{fs: fsys, now: time.Now}
}

// NewOsFileStore roots the store at basePath on the local disk.
func NewOsFileStore(basePath string) (FileStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewFileStore(afero.NewBasePathFs(osFs, basePath)), nil
}

// storageName is unique per upload: timestamp, random suffix, sanitized original name.
func storageName(now time.Time, originalName string) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), suffix, sanitizeFilename(originalName))
}

func (s *aferoFileStore) Save(r io.Reader, originalName string) (StoredFile, error) {
	now := s.now()
	relPath := filepath.Join(filesDir, now.Format("2006"), now.Format("01"), storageName(now, originalName))

	f, err := s.Create(relPath)
	if err != nil {
		return StoredFile{}, err
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = s.fs.Remove(relPath)
		if copyErr != nil {
			return StoredFile{}, fmt.Errorf("write file: %w", copyErr)
		}
		return StoredFile{}, fmt.Errorf("close file: %w", closeErr)
	}

	metrics.AddStoredBytes(n)
	return StoredFile{RelPath: relPath, Size: n}, nil
}

func (s *aferoFileStore) Create(relPath string) (afero.File, error) {
	if err := s.fs.MkdirAll(filepath.Dir(relPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	f, err := s.fs.Create(relPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	return f, nil
}

func (s *aferoFileStore) Open(relPath string) (afero.File, error) {
	return s.fs.Open(relPath)
}

func (s *aferoFileStore) Stat(relPath string) (os.FileInfo, error) {
	return s.fs.Stat(relPath)
}

func (s *aferoFileStore) Remove(relPath string) error {
	return s.fs.Remove(relPath)
}

func (s *aferoFileStore) Walk(root string, fn filepath.WalkFunc) error {
	err := afero.Walk(s.fs, root, fn)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

// removeStoredFile is best-effort: missing files are ignored, other failures logged.
func removeStoredFile(store FileStore, relPath string) {
	if relPath == "" {
		return
	}
	if err := store.Remove(relPath); err != nil {
		if isNotExist(err) {
			logger.Debugf("stored file already gone: %s", relPath)
			return
		}
		logger.L().Warn("failed to remove stored file", zap.String("path", relPath), zap.Error(err))
	}
}
