// Package filecache persists lexed header token lists across runs, keyed
// by resolved path and a cheap mtime+size fingerprint of the underlying
// file. A batch run over a large include graph re-lexes nothing that
// hasn't changed since the cache was written.
package filecache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/gocpp-project/gocpp/o11y/clog"
	"github.com/gocpp-project/gocpp/token"
)

// Fingerprint identifies the on-disk state of a file at the moment its
// tokens were cached, so a later run can tell cheaply whether the cached
// entry is still valid without re-reading the file's contents.
type Fingerprint struct {
	Size    int64
	ModTime int64 // UnixNano
}

// FingerprintOf builds a Fingerprint from a fs.FileInfo.
func FingerprintOf(fi fs.FileInfo) Fingerprint {
	return Fingerprint{Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}
}

// Entry is one cached, already-lexed file.
type Entry struct {
	Path        string
	Fingerprint Fingerprint
	Tokens      []token.GobToken
}

// Cache is an in-memory, optionally disk-backed, table of Entry values
// keyed by resolved path.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Lookup returns the cached list for path if present and its Fingerprint
// matches want.
func (c *Cache) Lookup(path string, want Fingerprint) (*token.List, bool) {
	c.mu.RLock()
	ent, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok || ent.Fingerprint != want {
		return nil, false
	}
	return token.FromGobTokens(ent.Tokens), true
}

// Store records list under path with fingerprint fp, replacing any
// existing entry.
func (c *Cache) Store(path string, fp Fingerprint, list *token.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = Entry{Path: path, Fingerprint: fp, Tokens: token.ToGobTokens(list)}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func loadFile(fname string) ([]byte, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Load reads a Cache previously written by Save. A missing file is not an
// error: it just means an empty Cache to start filling.
func Load(ctx context.Context, fname string) (*Cache, error) {
	b, err := loadFile(fname)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&entries); err != nil {
		return nil, err
	}
	c := New()
	for _, ent := range entries {
		c.entries[ent.Path] = ent
	}
	clog.Infof(ctx, "loaded filecache %s: %d entries", fname, len(entries))
	return c, nil
}

func saveFile(fname string, data []byte) error {
	ofname := fname + ".0"
	if err := os.Remove(ofname); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Rename(fname, ofname); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	w, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := w.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Save persists c to fname, rotating any existing file to fname+".0".
func Save(ctx context.Context, fname string, c *Cache) error {
	c.mu.RLock()
	entries := make([]Entry, 0, len(c.entries))
	for _, ent := range c.entries {
		entries = append(entries, ent)
	}
	c.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return err
	}
	started := time.Now()
	if err := saveFile(fname, buf.Bytes()); err != nil {
		return err
	}
	clog.Infof(ctx, "saved filecache %s: %d entries in %s", fname, len(entries), time.Since(started))
	return nil
}
