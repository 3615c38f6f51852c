package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"loom/internal/ir"
)

// Digest identifies a compiled program by the content that produced it.
type Digest [sha256.Size]byte

// ProgramDigest hashes the normalized module text together with the
// compile options that shape the output. Any change to either yields a
// different key.
func ProgramDigest(m *ir.Module, target string, maxArity int) Digest {
	h := sha256.New()
	ir.DumpModule(h, m)
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxArity)))
	var d Digest
	h.Sum(d[:0])
	return d
}

// Schema version for the cached payload; bump when the format changes.
const cacheSchemaVersion uint16 = 1

// ProgramCache stores compiled programs on disk keyed by digest.
// Thread-safe for concurrent access.
type ProgramCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenProgramCache initializes a cache under the user cache directory
// (honoring XDG_CACHE_HOME).
func OpenProgramCache(app string) (*ProgramCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ProgramCache{dir: dir}, nil
}

// OpenProgramCacheAt initializes a cache rooted at an explicit directory.
func OpenProgramCacheAt(dir string) (*ProgramCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ProgramCache{dir: dir}, nil
}

func (c *ProgramCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "progs", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload, replacing any previous entry
// atomically.
func (c *ProgramCache) Put(key Digest, payload *programPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. The boolean reports whether the entry existed and
// carried the current schema version.
func (c *ProgramCache) Get(key Digest, out *programPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("cache entry %x: %w", key[:4], err)
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the whole cache, useful after format changes.
func (c *ProgramCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
