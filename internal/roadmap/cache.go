package roadmap

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"gradplan/internal/config"
)

// Cache is a TTL cache of generated roadmaps keyed by request hash, backed
// by Badger so cached plans survive restarts.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
	log *zap.Logger
}

// OpenCache opens the cache at cfg.Dir, or in memory when cfg.InMemory is
// set (tests). Badger's own logging is disabled; this layer logs hits and
// stores through zap.
func OpenCache(cfg config.CacheConfig, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open roadmap cache: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{db: db, ttl: ttl, log: log}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Key derives a stable cache key from the request: SHA-256 over a canonical
// JSON encoding with completed courses sorted.
func Key(req Request) string {
	completed := make([]string, len(req.CompletedCourses))
	copy(completed, req.CompletedCourses)
	sort.Strings(completed)

	canonical := struct {
		ProgramCode          string         `json:"program_code"`
		StartingYear         int            `json:"starting_year"`
		StartingTerm         string         `json:"starting_term"`
		CompletedCourses     []string       `json:"completed_courses"`
		Preferences          map[string]any `json:"preferences"`
		CreditLoadPreference string         `json:"credit_load_preference"`
		MaxYears             int            `json:"max_years"`
	}{
		ProgramCode:          req.ProgramCode,
		StartingYear:         req.StartingYear,
		StartingTerm:         req.StartingTerm,
		CompletedCourses:     completed,
		Preferences:          req.Preferences,
		CreditLoadPreference: req.CreditLoadPreference,
		MaxYears:             req.MaxYears,
	}

	// json.Marshal sorts map keys, so the encoding is canonical.
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached roadmap for a key, or (nil, nil) on a miss or an
// expired entry.
func (c *Cache) Get(key string) (*Response, error) {
	var resp *Response
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var r Response
			if err := json.Unmarshal(val, &r); err != nil {
				return err
			}
			resp = &r
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	c.log.Info("roadmap cache hit", zap.String("key", key))
	return resp, nil
}

// Put stores a roadmap under the key with the cache TTL.
func (c *Cache) Put(key string, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	c.log.Info("roadmap cached", zap.String("key", key))
	return nil
}
