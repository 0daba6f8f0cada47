package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects.
// Keys are namespaced: every key a store returns starts with the hashed
// namespace followed by a slash.
type ObjectStore interface {
	Save(ctx context.Context, namespace, fileName, contentType string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// InNamespace reports whether storageKey was issued for namespaceKey, the
// hashed namespace a store prefixes keys with.
func InNamespace(storageKey, namespaceKey string) bool {
	clean := path.Clean("/" + storageKey)
	return namespaceKey != "" && strings.HasPrefix(clean, "/"+namespaceKey+"/")
}
