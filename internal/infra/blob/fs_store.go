package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps uploaded files on local disk and hands out URLs under
// publicURL. Serve mounts the directory so those URLs resolve.
type FSStore struct {
	base      string
	publicURL string
}

func NewFSStore(base, publicURL string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if publicURL == "" {
		publicURL = "/files"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

// Put writes body under key. contentType is implied by the key's extension
// when the file is served back.
func (s *FSStore) Put(ctx context.Context, key string, body io.Reader, _ string) (string, error) {
	clean := cleanKey(key)
	if clean == "" {
		return "", errors.New("empty key")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.base, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.publicURL + "/" + clean, nil
}

// Delete removes the file stored under key, if any.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	clean := cleanKey(key)
	if clean == "" {
		return errors.New("empty key")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.base, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Serve returns a handler for the stored files, to be mounted at the public URL path.
func (s *FSStore) Serve() http.Handler {
	return http.FileServer(http.Dir(s.base))
}

// cleanKey confines key to the store root.
func cleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
}
