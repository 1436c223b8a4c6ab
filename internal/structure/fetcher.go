// Package structure retrieves predicted structure files from the object store.
package structure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brunocuevas/nsdb/internal/blob"
)

var (
	// ErrNotFound is returned when no structure file exists for an entry.
	// It is never retried.
	ErrNotFound = errors.New("structure not found")
	// ErrNotUTF8 is returned when the stored file is not UTF-8 text.
	ErrNotUTF8 = errors.New("structure file is not valid UTF-8")
	// ErrInvalidID is returned for ids that cannot name a structure object.
	ErrInvalidID = errors.New("invalid structure id")
)

const (
	// DefaultTimeout bounds a single fetch attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the number of extra attempts after a transient failure.
	DefaultRetries = 1
	// Extension is appended to an entry id to form the object key.
	Extension = ".pdb"
)

// Structure is the text of a PDB file.
type Structure struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// Key returns the object key for an entry id.
func Key(id string) string { return id + Extension }

// Fetcher reads `<id>.pdb` objects from a blob store.
type Fetcher struct {
	store   blob.Store
	timeout time.Duration
	retries int
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-attempt timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher constructs a Fetcher over store.
func NewFetcher(store blob.Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:   store,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Driver reports the backing store driver.
func (f *Fetcher) Driver() blob.Driver { return f.store.Driver() }

// Fetch returns the structure text for entry id.
func (f *Fetcher) Fetch(ctx context.Context, id string) (Structure, error) {
	var s Structure
	err := f.retry(ctx, id, func(ctx context.Context) error {
		var err error
		s, err = f.fetchOnce(ctx, id)
		return err
	})
	return s, err
}

// Stat returns the stored object's metadata without downloading it.
func (f *Fetcher) Stat(ctx context.Context, id string) (blob.Info, error) {
	var info blob.Info
	err := f.retry(ctx, id, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		var err error
		info, err = f.store.Head(ctx, Key(id))
		return mapStoreError(Key(id), "head", err)
	})
	return info, err
}

// IDs lists the entry ids that have a structure file, ordered by key.
func (f *Fetcher) IDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	infos, err := f.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list structures: %w", err)
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		if id, ok := strings.CutSuffix(info.Key, Extension); ok && validateID(id) == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// retry runs attempt once plus up to f.retries times while it fails with a
// transient error.
func (f *Fetcher) retry(ctx context.Context, id string, attempt func(context.Context) error) error {
	if err := validateID(id); err != nil {
		return err
	}
	for n := 0; ; n++ {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || ctx.Err() != nil || n >= f.retries {
			return err
		}
		f.logger.Warn("retrying structure fetch", "id", id, "attempt", n+1, "error", err)
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, id string) (Structure, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	key := Key(id)
	_, rc, err := f.store.Get(ctx, key)
	if err != nil {
		return Structure{}, mapStoreError(key, "get", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return Structure{}, fmt.Errorf("read %s: %w", key, err)
	}
	if !utf8.Valid(data) {
		return Structure{}, fmt.Errorf("%w: %s", ErrNotUTF8, key)
	}
	return Structure{ID: id, Filename: key, Text: string(data)}, nil
}

// URL returns a time-limited download link for the structure, or
// blob.ErrUnsupported when the store cannot presign.
func (f *Fetcher) URL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return f.store.PresignURL(ctx, Key(id), blob.SignedURLOptions{Method: "GET", Expiry: expiry})
}

func mapStoreError(key, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, blob.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	default:
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return nil
}

// retryable reports whether err may clear up on another attempt. Missing
// objects, bad content and keys the store rejects never do.
func retryable(err error) bool {
	for _, permanent := range []error{ErrNotFound, ErrNotUTF8, ErrInvalidID, blob.ErrInvalidKey, context.Canceled} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}
