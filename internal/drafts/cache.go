// Package drafts holds the LOP values an operator has staged but not yet applied.
//
// The cache is an overlay keyed by employee id. It is persisted on every write so a
// restart right after Set observes the value, and it only ever grows: roster
// refetches add empty entries for newly seen employees and never drop existing ones.
package drafts

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/storage"
)

const Key = "lopValues"

type Cache struct {
	mu     sync.Mutex
	values map[string]string
	store  storage.BlobStore
}

// Load restores the cache from store. Missing or unreadable state yields an empty cache.
func Load(store storage.BlobStore) *Cache {
	c := &Cache{values: make(map[string]string), store: store}

	data, err := store.Get(Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.WithError(err).Warn("Failed to read staged LOP values, starting empty")
		}
		return c
	}

	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		log.WithError(err).Warn("Failed to parse staged LOP values, starting empty")
		return c
	}
	for id, v := range stored {
		c.values[id] = Sanitize(v)
	}
	return c
}

// Get returns the staged value for id, or "" when there is none.
func (c *Cache) Get(employeeID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[employeeID]
}

// Set stores the digits of raw for employeeID and persists the whole map.
// The sanitized value is returned even when persisting fails.
func (c *Cache) Set(employeeID string, raw string) (string, error) {
	value := Sanitize(raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[employeeID] = value
	return value, c.persist()
}

// MergeSeen adds an empty entry for every id not yet in the cache.
func (c *Cache) MergeSeen(employeeIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := false
	for _, id := range employeeIDs {
		if _, ok := c.values[id]; !ok {
			c.values[id] = ""
			added = true
		}
	}
	if !added {
		return nil
	}
	return c.persist()
}

// Clear empties the staged value for employeeID but keeps its key.
func (c *Cache) Clear(employeeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[employeeID] = ""
	return c.persist()
}

// ClearIf empties the staged value for employeeID only while it still equals
// applied. It reports whether the value was cleared.
func (c *Cache) ClearIf(employeeID string, applied string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values[employeeID] != applied {
		return false, nil
	}
	c.values[employeeID] = ""
	return true, c.persist()
}

// Pending returns the staged LOP as a positive integer. Empty, zero and
// out-of-range values are not pending.
func (c *Cache) Pending(employeeID string) (int, bool) {
	return ParsePending(c.Get(employeeID))
}

func (c *Cache) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.values))
	for id, v := range c.values {
		out[id] = v
	}
	return out
}

func (c *Cache) persist() error {
	data, err := json.Marshal(c.values)
	if err != nil {
		return errors.Wrap(err, "encoding staged LOP values")
	}
	if err := c.store.Put(Key, data); err != nil {
		log.WithError(err).Error("Failed to persist staged LOP values")
		return errors.Wrap(err, "persisting staged LOP values")
	}
	return nil
}

// Sanitize strips every non-digit from raw.
func Sanitize(raw string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}

// ParsePending reads a stored value as a positive LOP count.
func ParsePending(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
