package run

import (
	"context"

	"github.com/gocpp-project/gocpp/filecache"
	"github.com/gocpp-project/gocpp/fileio"
	"github.com/gocpp-project/gocpp/o11y/clog"
)

func fsForRun() *fileio.FS {
	return fileio.New("gocpp-run")
}

func loadDiskCache(ctx context.Context, fname string) *filecache.Cache {
	if fname == "" {
		return filecache.New()
	}
	c, err := filecache.Load(ctx, fname)
	if err != nil {
		clog.Warningf(ctx, "load cache %s: %v", fname, err)
		return filecache.New()
	}
	return c
}
