// Package storage persists the pipeline's rendered output container and
// optional diagnostics report once a run completes, generalized from the
// teacher's Local/S3 storage adapters (which persisted encoded image
// bytes) to persisting whole files after the pipeline has already written
// them to local disk via adapters/codec.FileSink.
package storage

import "context"

// Backend uploads/copies a local file to its final destination. Both
// adapters are fire-and-forget post-processing: the pipeline itself always
// writes its output container to local disk first (adapters/codec.FileSink
// needs random local I/O), and a Backend relocates it afterward.
type Backend interface {
	// Put copies the file at localPath to destKey under this backend's
	// destination (a directory for Local, a bucket for S3).
	Put(ctx context.Context, localPath, destKey string) error
}
