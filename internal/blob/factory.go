package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a blob backend.
type Options struct {
	Driver Driver // fs|s3|memory (default s3)
	FSRoot string // directory root when Driver is fs
	S3     S3Config
}

// Open constructs the Store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverS3
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
