package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

var bucketQueries = []byte("queries")

const dbFileName = "queries.db"

// Record is the persistent part of a query cache entry.
// Single-shot queries use Data; paginated queries use Pages and PageParams.
type Record struct {
	Data       json.RawMessage   `json:"data,omitempty"`
	Pages      []json.RawMessage `json:"pages,omitempty"`
	PageParams []int             `json:"page_params,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// QueryStore holds query records in memory, optionally backed by BoltDB.
type QueryStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewMemoryStore returns a store without persistence
func NewMemoryStore() *QueryStore {
	return &QueryStore{cache: make(map[string][]byte)}
}

// NewQueryStore opens a persistent store under baseCacheDir. Records are
// partitioned by API base URL so a different endpoint never reads another
// endpoint's results. An empty baseCacheDir yields a memory-only store.
func NewQueryStore(baseCacheDir, apiURL string) (*QueryStore, error) {
	if baseCacheDir == "" {
		return NewMemoryStore(), nil
	}

	dir := baseCacheDir
	if apiURL != "" {
		dir = filepath.Join(baseCacheDir, hashURL(apiURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketQueries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &QueryStore{db: db, cache: make(map[string][]byte)}, nil
}

// Purge deletes the database files NewQueryStore creates under
// baseCacheDir and the partition directories left empty by that. Anything
// else under baseCacheDir is left alone. It returns the number of
// databases removed.
func Purge(baseCacheDir string) (int, error) {
	if baseCacheDir == "" {
		return 0, nil
	}

	candidates := []string{filepath.Join(baseCacheDir, dbFileName)}
	entries, err := os.ReadDir(baseCacheDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	for _, e := range entries {
		if e.IsDir() && isPartitionName(e.Name()) {
			candidates = append(candidates, filepath.Join(baseCacheDir, e.Name(), dbFileName))
		}
	}

	removed := 0
	for _, path := range candidates {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		removed++
		if dir := filepath.Dir(path); dir != baseCacheDir {
			_ = os.Remove(dir) // fails while other files remain
		}
	}
	return removed, nil
}

// isPartitionName matches the directory names hashURL produces
func isPartitionName(name string) bool {
	if len(name) != 12 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

func hashURL(u string) string {
	normalized := strings.TrimRight(strings.ToLower(u), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Persistent reports whether records survive a restart
func (s *QueryStore) Persistent() bool {
	return s.db != nil
}

func (s *QueryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the record stored under key
func (s *QueryStore) Get(key string) (Record, bool) {
	var rec Record

	s.mu.RLock()
	data, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return rec, json.Unmarshal(data, &rec) == nil
	}

	if s.db == nil {
		return rec, false
	}

	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketQueries)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return rec, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return rec, json.Unmarshal(data, &rec) == nil
}

// Put stores rec under key
func (s *QueryStore) Put(key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQueries).Put([]byte(key), data)
	})
}

// Delete removes the record under key
func (s *QueryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQueries).Delete([]byte(key))
	})
}

// DeletePrefix removes every record whose key starts with prefix.
// It returns the number of keys removed.
func (s *QueryStore) DeletePrefix(prefix string) (int, error) {
	removed := make(map[string]struct{})

	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
			removed[k] = struct{}{}
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return len(removed), nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketQueries)
		c := b.Cursor()
		p := []byte(prefix)
		var keys [][]byte
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed[string(k)] = struct{}{}
		}
		return nil
	})
	return len(removed), err
}

// Clear removes all records
func (s *QueryStore) Clear() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketQueries); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketQueries)
		return err
	})
}

// Keys returns all stored keys in sorted order
func (s *QueryStore) Keys() []string {
	seen := make(map[string]struct{})

	s.mu.RLock()
	for k := range s.cache {
		seen[k] = struct{}{}
	}
	s.mu.RUnlock()

	if s.db != nil {
		s.db.View(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketQueries).ForEach(func(k, _ []byte) error {
				seen[string(k)] = struct{}{}
				return nil
			})
		})
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
