// Package hcache bridges the on-disk world (fileio, filecache) to the
// in-memory cpp.FileCache contract: cpp itself never touches disk, so a
// driver needs something that lexes a header on first request and reuses
// the result (in this run, and across runs via a persistent filecache.Cache)
// on every subsequent #include of the same resolved path.
package hcache

import (
	"context"
	"sync"

	"github.com/gocpp-project/gocpp/cpp"
	"github.com/gocpp-project/gocpp/filecache"
	"github.com/gocpp-project/gocpp/fileio"
	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/token"
)

// Cache lazily lexes files from disk on Lookup, backed by an optional
// persistent filecache.Cache so unchanged headers are not re-lexed across
// runs of the CLI.
type Cache struct {
	fs    *fileio.FS
	files *cpp.Files
	disk  *filecache.Cache

	mu  sync.Mutex
	mem map[string]*token.List
}

// New returns a Cache that reads through fs and interns file names in
// files. disk may be nil to disable persistent caching.
func New(fs *fileio.FS, files *cpp.Files, disk *filecache.Cache) *Cache {
	if disk == nil {
		disk = filecache.New()
	}
	return &Cache{fs: fs, files: files, disk: disk, mem: make(map[string]*token.List)}
}

// Lookup implements cpp.FileCache: it reads path from disk, consulting and
// then populating both the in-memory and persistent layers, unless path
// does not exist at all.
func (c *Cache) Lookup(path string) (*token.List, bool) {
	c.mu.Lock()
	if list, ok := c.mem[path]; ok {
		c.mu.Unlock()
		return list.Clone(), true
	}
	c.mu.Unlock()

	ctx := context.Background()
	fi, err := c.fs.Stat(ctx, path)
	if err != nil {
		return nil, false
	}
	fp := filecache.FingerprintOf(fi)
	if list, ok := c.disk.Lookup(path, fp); ok {
		c.store(path, list)
		return list.Clone(), true
	}

	data, err := c.fs.ReadFile(ctx, path)
	if err != nil {
		return nil, false
	}
	list, _, err := lexer.Lex(c.files.Intern(path), data)
	if err != nil {
		return nil, false
	}
	c.disk.Store(path, fp, list)
	c.store(path, list)
	return list.Clone(), true
}

func (c *Cache) store(path string, list *token.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[path] = list
}

// Save persists the disk-backed layer to fname.
func (c *Cache) Save(ctx context.Context, fname string) error {
	return filecache.Save(ctx, fname, c.disk)
}
