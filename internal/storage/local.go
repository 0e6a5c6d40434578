package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on the local filesystem. Dev convenience only; the
// served URL points back at this process's /media/ route.
type LocalStore struct {
	basePath string
	baseURL  string
}

var _ BlobStore = (*LocalStore)(nil)

func NewLocalStore(basePath, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create media dir %q: %w", basePath, err)
	}

	return &LocalStore{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

func (l *LocalStore) Upload(ctx context.Context, filenameHint string, body io.Reader) (*UploadResult, error) {
	if strings.TrimSpace(filenameHint) == "" {
		return nil, fmt.Errorf("filename hint cannot be empty")
	}

	name := objectName(filenameHint)

	f, err := os.Create(filepath.Join(l.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("could not create blob file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("could not write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("could not close blob file: %w", err)
	}

	return &UploadResult{
		URL:        l.baseURL + "/media/" + name,
		StoredName: name,
	}, nil
}

func (l *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.OpenInRoot(l.basePath, name)
}

// Exists takes a name and returns true if the blob exists and can be opened
func (l *LocalStore) Exists(ctx context.Context, name string) bool {
	name = filepath.Clean(name)

	f, err := os.OpenInRoot(l.basePath, name)
	if err != nil {
		return false
	}

	defer f.Close() // overkill to consider errors if only checking existence
	return true
}

func (l *LocalStore) Delete(ctx context.Context, name string) error {
	name = filepath.Clean(name)
	if strings.Contains(name, "..") || strings.ContainsRune(name, os.PathSeparator) {
		return fmt.Errorf("invalid blob name %q", name)
	}

	if err := os.Remove(filepath.Join(l.basePath, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
