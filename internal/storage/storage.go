package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid object key")

// ObjectStore holds uploaded project files. Keys are slash-separated
// paths such as "projects/{id}/{name}".
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader) (url string, size int64, err error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// LocalStore keeps objects on disk under root and hands out URLs below baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader) (string, int64, error) {
	diskPath, err := s.resolve(key)
	if err != nil {
		return "", 0, err
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(diskPath), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create object: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to write object: %w", err)
	}

	if err := os.Rename(tmp.Name(), diskPath); err != nil {
		return "", 0, fmt.Errorf("failed to store object: %w", err)
	}

	return s.URL(key), size, nil
}

func (s *LocalStore) DeletePrefix(ctx context.Context, prefix string) error {
	diskPath, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.RemoveAll(diskPath); err != nil {
		return fmt.Errorf("failed to delete %s: %w", prefix, err)
	}
	log.Printf("storage: removed objects under %s", prefix)
	return nil
}

// URL returns the public address of key with each segment escaped.
func (s *LocalStore) URL(key string) string {
	segments := strings.Split(strings.Trim(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// ProjectPrefix is the key prefix under which a project's files live.
func ProjectPrefix(projectID string) string {
	return "projects/" + projectID + "/"
}

// ProjectObjectKey names the object for a file uploaded to a project.
func ProjectObjectKey(projectID, fileName string) string {
	return ProjectPrefix(projectID) + fileName
}
