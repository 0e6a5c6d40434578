package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// UploadResult describes where a blob ended up. StoredName is the name the
// store actually assigned, which differs from the caller's filename hint.
type UploadResult struct {
	URL        string
	StoredName string
}

// BlobStore is the contract the feed service holds against media storage.
// Implementations must treat the filename hint as advisory and guarantee a
// collision-free stored name.
type BlobStore interface {
	Upload(ctx context.Context, filenameHint string, body io.Reader) (*UploadResult, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) bool
	Delete(ctx context.Context, name string) error
}

// objectName builds a collision-free stored name from an uploaded filename.
// A random UUID prefix preserves uniqueness, the sanitised original name
// keeps objects recognisable in the bucket.
func objectName(filenameHint string) string {
	base := filepath.Base(strings.TrimSpace(filenameHint))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	return uuid.Must(uuid.NewV4()).String() + "-" + b.String()
}
