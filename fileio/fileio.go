// Package fileio provides metered access to header and source files on the
// local filesystem: the cpp package itself never touches disk, so a driver
// program uses fileio.FS to read files and hand their bytes to the lexer.
package fileio

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/gocpp-project/gocpp/o11y/clog"
	"github.com/gocpp-project/gocpp/o11y/iometrics"
)

// FS reads files from the local filesystem, counting operations via
// IOMetrics so a long batch run can report how much I/O it did.
type FS struct {
	*iometrics.IOMetrics
}

// New creates an FS that reports its metrics under name.
func New(name string) *FS {
	return &FS{IOMetrics: iometrics.New(name)}
}

func logSlow(ctx context.Context, name string, dur time.Duration, err error) {
	buf := make([]byte, 4*1024)
	n := runtime.Stack(buf, false)
	clog.Warningf(ctx, "slow fileio op %s: %s %v\n%s", name, dur, err, buf[:n])
}

// ReadFile reads the named file, recording it as a read op.
func (fs *FS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	started := time.Now()
	data, err := os.ReadFile(name)
	fs.ReadDone(len(data), err)
	if dur := time.Since(started); dur > 1*time.Minute {
		logSlow(ctx, name, dur, err)
	}
	return data, err
}

// Stat stats the named file, recording it as a non-read/write op.
func (fs *FS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	started := time.Now()
	fi, err := os.Stat(name)
	fs.OpsDone(err)
	if dur := time.Since(started); dur > 1*time.Minute {
		logSlow(ctx, name, dur, err)
	}
	return fi, err
}

// Exists reports whether name can be stat'd successfully, for callers that
// only need to know presence, not contents.
func (fs *FS) Exists(ctx context.Context, name string) bool {
	_, err := fs.Stat(ctx, name)
	return err == nil
}
