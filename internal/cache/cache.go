package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/patient"
)

// Cache is the local, fast, possibly-stale mirror of patient data used by
// the UI. It holds the denormalized patient record set keyed by identifier:
// an in-memory index for reads, persisted as a single JSON document (the
// cache persistence key) so it survives restarts of this execution context.
//
// The cache is a disposable, rebuildable projection. It must never be
// treated as the source of truth when the store is available; a missing or
// corrupt snapshot resets to an empty collection, never an error.
type Cache struct {
	mu    sync.Mutex
	index *gocache.Cache
	path  string
	log   *zap.Logger
}

// Open loads the cache from the snapshot at path, initializing an empty
// collection on first touch.
func Open(path string, log *zap.Logger) (*Cache, error) {
	c := &Cache{
		index: gocache.New(gocache.NoExpiration, 0),
		path:  path,
		log:   log,
	}

	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadAll returns every cached record, ordered by identifier for
// deterministic iteration. Returns an empty slice, never an error, when the
// cache holds nothing.
func (c *Cache) ReadAll() []patient.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Upsert inserts the record if its identifier is unseen, else overwrites it
// entirely. Last writer wins; there is no merge.
func (c *Cache) Upsert(rec patient.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Set(rec.ID, rec, gocache.NoExpiration)
	return c.persistLocked()
}

// Delete removes the record with the given identifier. Deleting an absent
// identifier is a no-op, not an error.
func (c *Cache) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Delete(id)
	return c.persistLocked()
}

// FindByID returns the cached record for the identifier, if present.
func (c *Cache) FindByID(id string) (patient.Record, bool) {
	v, ok := c.index.Get(id)
	if !ok {
		return patient.Record{}, false
	}
	return v.(patient.Record), true
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return c.index.ItemCount()
}

// load reads the snapshot file into the index. First touch (missing file)
// writes an empty collection; a corrupt snapshot is logged and discarded.
func (c *Cache) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("read cache snapshot: %w", err)
	}

	var records []patient.Record
	if err := json.Unmarshal(data, &records); err != nil {
		c.log.Warn("cache snapshot corrupt, resetting to empty",
			zap.String("path", c.path), zap.Error(err))
		return c.persistLocked()
	}

	for _, rec := range records {
		c.index.Set(rec.ID, rec, gocache.NoExpiration)
	}
	return nil
}

// persistLocked writes the full collection to the snapshot file atomically
// (temp file + rename). Callers hold c.mu.
func (c *Cache) persistLocked() error {
	records := c.snapshotLocked()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".patients-*.json")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache snapshot: %w", err)
	}
	return nil
}

// snapshotLocked flattens the index into an identifier-ordered slice.
// Callers hold c.mu.
func (c *Cache) snapshotLocked() []patient.Record {
	items := c.index.Items()
	records := make([]patient.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.Object.(patient.Record))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}
