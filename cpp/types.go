package cpp

import (
	"sync"

	"github.com/gocpp-project/gocpp/token"
)

// Files interns filenames to small integer ids shared by every Location in
// a driver invocation, mirroring how the lexer/driver never carry a
// filename string directly on a token.
type Files struct {
	mu    sync.Mutex
	names []string
	index map[string]int
}

// NewFiles returns an empty file table.
func NewFiles() *Files {
	return &Files{index: make(map[string]int)}
}

// Intern returns the id for name, assigning a new one on first sight.
func (f *Files) Intern(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.index[name]; ok {
		return id
	}
	id := len(f.names)
	f.names = append(f.names, name)
	f.index[name] = id
	return id
}

// Name returns the filename for id, or "" if id is out of range.
func (f *Files) Name(id int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 0 || id >= len(f.names) {
		return ""
	}
	return f.names[id]
}

// FileCache supplies the raw (already-lexed) token list for a resolved
// #include target. The driver never performs file I/O itself: a caller
// populates the cache (directly, or via fileio+filecache) before calling
// Preprocess. A cache miss (ok == false, or a nil list) is reported as a
// non-fatal MISSING_HEADER.
type FileCache interface {
	Lookup(path string) (list *token.List, ok bool)
}

// MapFileCache is the trivial in-memory FileCache used by tests and small
// callers; the CLI uses internal/hcache, which wraps a filecache.Cache.
type MapFileCache map[string]*token.List

// Lookup implements FileCache.
func (m MapFileCache) Lookup(path string) (*token.List, bool) {
	list, ok := m[path]
	return list, ok
}

// DUI (Defines/Undefines/Includes) configures one Preprocess call.
type DUI struct {
	Defines         map[string]string
	Undefined       map[string]bool
	IncludePaths    []string
	Includes        []string // force-included files, applied before the main input
	Std             string   // e.g. "c11", "c++17"; empty is treated as C (__STDC_VERSION__ 199409L, no __cplusplus)
	RemoveComments  bool
	SizeofOverrides map[string]int64
	MaxIncludeDepth int // 0 means the default cap of 400
}

// MacroUsage records one macro expansion: the macro's name, where it was
// defined, and where the expansion occurred.
type MacroUsage struct {
	Name           string
	DefineLocation token.Location
	UseLocation    token.Location
}

// IfCond records one evaluated #if/#elif condition.
type IfCond struct {
	Location token.Location
	Expr     string
	Result   bool
}
