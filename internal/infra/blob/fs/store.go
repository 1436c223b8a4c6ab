// Package fs serves blobs from a local directory tree.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brunocuevas/nsdb/internal/blob/core"
)

// Store implements core.Store over plain files below root. Keys are relative
// slash-separated paths; there is no metadata sidecar, so Info is derived
// from the file itself.
type Store struct {
	root string
}

// New returns a filesystem-backed blob store rooted at path. The directory
// must already exist.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./structures"
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("blob root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("blob root %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// sanitizeKey ensures key doesn't escape root and forbids path traversal and absolute paths.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty key", core.ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q contains '..'", core.ErrInvalidKey, key)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q is absolute", core.ErrInvalidKey, key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return core.Info{}, nil, mapError(key, err)
	}
	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, err
	}
	if st.IsDir() {
		_ = file.Close()
		return core.Info{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return s.info(key, st), file, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return core.Info{}, mapError(key, err)
	}
	if st.IsDir() {
		return core.Info{}, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return s.info(key, st), nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, s.info(key, st))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	// Local development convenience: a pseudo URL without auth.
	if opts.Method != "" && strings.ToUpper(opts.Method) != "GET" {
		return "", core.ErrUnsupported
	}
	return s.localURL(key), nil
}

func (s *Store) info(key string, st fs.FileInfo) core.Info {
	return core.Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  ContentType(key),
		LastModified: st.ModTime().UTC(),
		URL:          s.localURL(key),
	}
}

func (s *Store) localURL(key string) string {
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

// ContentType guesses a MIME type from the key extension.
func ContentType(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ext == ".pdb" {
		return "chemical/x-pdb"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func mapError(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}
