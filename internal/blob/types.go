// Package blob re-exports core blob abstractions and selects a backend.
package blob

import (
	"github.com/brunocuevas/nsdb/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
	// ErrNotFound is wrapped by errors for missing keys.
	ErrNotFound = core.ErrNotFound
	// ErrInvalidKey is wrapped by errors for keys a store rejects.
	ErrInvalidKey = core.ErrInvalidKey
)
