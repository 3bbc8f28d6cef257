// Package cache stores checking results on disk, keyed by a hash of the
// source text and the configuration it was checked with.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Schema is bumped whenever Payload changes shape; older entries then read
// as misses.
const Schema uint16 = 2

// Key identifies one (source, configuration) pair.
type Key uint64

// KeyFor hashes a file's content together with a configuration fingerprint.
func KeyFor(content []byte, fingerprint string) Key {
	d := xxhash.New()
	_, _ = d.Write(content)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(fingerprint)
	return Key(d.Sum64())
}

func (k Key) String() string { return fmt.Sprintf("%016x", uint64(k)) }

// Warning is the stored form of a diagnostic.
type Warning struct {
	Line, Column, Len int
	Kind              uint8
	Message           string
}

// Payload is everything needed to replay a file's result without
// re-checking it.
type Payload struct {
	Schema      uint16
	Path        string
	ContentHash uint64
	ParseReport string
	TypeReport  string
	Warnings    []Warning
	OK          bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open creates the cache under $XDG_CACHE_HOME/<app>, or ~/.cache/<app>.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating cache directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the directory holding the entries.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "results", key.String()+".mp")
}

// Put writes payload under key. The entry is replaced atomically.
func (c *Cache) Put(key Key, payload *Payload) error {
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
	tmp := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}

	payload.Schema = Schema
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Get reads the entry for key into out. A missing entry or one written with
// another schema is a miss, not an error.
func (c *Cache) Get(key Key, out *Payload) (bool, error) {
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

	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	if p.Schema != Schema {
		return false, nil
	}
	*out = p
	return true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.MkdirAll(c.dir, 0o755)
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
