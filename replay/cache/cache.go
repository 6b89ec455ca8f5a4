package cache

import (
	"errors"

	"github.com/hashicorp/go-hclog"
	"github.com/syndtr/goleveldb/leveldb"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// Cache is an on-disk key value store for upstream responses, so repeated
// replays of the same block do not refetch it over the network
type Cache struct {
	db     *leveldb.DB
	logger hclog.Logger
}

// NewLevelDBCache creates a cache backed by a leveldb directory
func NewLevelDBCache(path string, logger hclog.Logger) (*Cache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return newCache(db, logger), nil
}

// NewMemoryCache creates a cache backed by in-memory storage, used in tests
func NewMemoryCache(logger hclog.Logger) (*Cache, error) {
	db, err := leveldb.Open(ldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return newCache(db, logger), nil
}

func newCache(db *leveldb.DB, logger hclog.Logger) *Cache {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Cache{
		db:     db,
		logger: logger.Named("cache"),
	}
}

// Set stores the value under the given key
func (c *Cache) Set(key, value []byte) error {
	return c.db.Put(key, value, nil)
}

// Get returns the value for the given key, and whether it was present
func (c *Cache) Get(key []byte) ([]byte, bool, error) {
	data, err := c.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return data, true, nil
}

// Close releases the underlying storage
func (c *Cache) Close() error {
	return c.db.Close()
}
