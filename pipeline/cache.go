package pipeline

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.miragespace.co/typebridge"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the payload layout changes so stale snapshots invalidate
// themselves.
const cacheSchemaVersion uint16 = 1

// Entry is one cached compile output, valid for as long as the source
// content hashes to Sum.
type Entry struct {
	Sum  [sha256.Size]byte
	Data string
	Map  string
}

type cachePayload struct {
	Schema  uint16
	Entries map[string]Entry
}

// Cache is an in-memory content addressed compile cache with optional
// msgpack snapshots on disk. Safe for concurrent use.
type Cache struct {
	entries *xsync.MapOf[string, Entry]
}

func NewCache() *Cache {
	return &Cache{
		entries: xsync.NewMapOf[Entry](),
	}
}

// Lookup returns the cached output for path when the content digest still
// matches.
func (c *Cache) Lookup(path string, sum [sha256.Size]byte) (Entry, bool) {
	entry, ok := c.entries.Load(path)
	if !ok || entry.Sum != sum {
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) Store(path string, sum [sha256.Size]byte, out typebridge.File) {
	c.entries.Store(path, Entry{
		Sum:  sum,
		Data: out.Data,
		Map:  out.Map,
	})
}

// Load merges a snapshot into the cache. A missing file is not an error;
// a snapshot with a different schema version is silently discarded.
func (c *Cache) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var payload cachePayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("error decoding build cache: %w", err)
	}
	if payload.Schema != cacheSchemaVersion {
		return nil
	}

	for k, v := range payload.Entries {
		c.entries.Store(k, v)
	}
	return nil
}

// Save writes the current cache contents as a msgpack snapshot.
func (c *Cache) Save(path string) error {
	payload := cachePayload{
		Schema:  cacheSchemaVersion,
		Entries: make(map[string]Entry),
	}
	c.entries.Range(func(k string, v Entry) bool {
		payload.Entries[k] = v
		return true
	})

	raw, err := msgpack.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("error encoding build cache: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}
