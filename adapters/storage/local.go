package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/skryldev/videoproc/videoerr"
)

// Local copies files into a destination directory on the same filesystem.
type Local struct {
	Dir string
}

// NewLocal creates a Local backend rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

// Put copies localPath to Dir/destKey, creating parent directories as
// needed.
func (l *Local) Put(ctx context.Context, localPath, destKey string) error {
	dest := filepath.Join(l.Dir, destKey)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return videoerr.New(videoerr.CategoryIO, "storage.local.put", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return videoerr.New(videoerr.CategoryIO, "storage.local.put", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return videoerr.New(videoerr.CategoryIO, "storage.local.put", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return videoerr.New(videoerr.CategoryIO, "storage.local.put", fmt.Errorf("copy %s: %w", localPath, err))
	}
	return nil
}
