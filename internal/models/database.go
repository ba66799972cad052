package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketTempLists       = []byte("temp_lists")
	bucketLists           = []byte("lists")
	bucketRecommendations = []byte("recommendations")
	bucketWatched         = []byte("watched")
)

var allBuckets = [][]byte{bucketTempLists, bucketLists, bucketRecommendations, bucketWatched}

// ErrNotFound is returned when a keyed record does not exist
var ErrNotFound = errors.New("record not found")

// DeviceState is everything persisted locally for one device
type DeviceState struct {
	TempLists       map[Category]*TempList
	Lists           map[string]*List
	Recommendations map[string]*List
	Watched         map[Category][]WatchedEntry
}

// Database wraps the local BoltDB file. Keys are prefixed with the device id
// ("{device}:{key}") so several sessions can share one file without overlap.
type Database struct {
	db *bolt.DB
}

// NewDatabase opens (or creates) the local database
func NewDatabase(path string) (*Database, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func deviceKey(deviceID, key string) []byte {
	return []byte(deviceID + ":" + key)
}

func (d *Database) put(bucket []byte, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (d *Database) remove(bucket []byte, key []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
}

// scanPrefix calls fn for every value in bucket whose key starts with prefix
func (d *Database) scanPrefix(bucket []byte, prefix string, fn func(key string, value []byte) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			if err := fn(string(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Temp list operations

// SaveTempList stores the working list for a category
func (d *Database) SaveTempList(deviceID string, list *TempList) error {
	return d.put(bucketTempLists, deviceKey(deviceID, string(list.Category)), list)
}

// DeleteTempList removes the working list for a category
func (d *Database) DeleteTempList(deviceID string, category Category) error {
	return d.remove(bucketTempLists, deviceKey(deviceID, string(category)))
}

// List operations

// SaveList stores a published list (soft-deleted lists are stored too)
func (d *Database) SaveList(deviceID string, list *List) error {
	return d.put(bucketLists, deviceKey(deviceID, list.ID), list)
}

// DeleteList removes a list record entirely. Only used when a list is replaced by merge.
func (d *Database) DeleteList(deviceID, listID string) error {
	return d.remove(bucketLists, deviceKey(deviceID, listID))
}

// FindListByShareCode scans all devices for a non-deleted list with the given code
func (d *Database) FindListByShareCode(code string) (*List, error) {
	var found *List
	err := d.scanPrefix(bucketLists, "", func(_ string, value []byte) error {
		var list List
		if err := json.Unmarshal(value, &list); err != nil {
			return nil
		}
		if list.ShareCode != nil && *list.ShareCode == code && !list.IsDeleted() {
			found = &list
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Recommendation operations

// SaveRecommendation stores a saved recommendation list
func (d *Database) SaveRecommendation(deviceID string, list *List) error {
	return d.put(bucketRecommendations, deviceKey(deviceID, list.ID), list)
}

// DeleteRecommendation removes a saved recommendation list
func (d *Database) DeleteRecommendation(deviceID, listID string) error {
	return d.remove(bucketRecommendations, deviceKey(deviceID, listID))
}

// Watched-pool operations

// SaveWatched replaces the watched-pool for a category
func (d *Database) SaveWatched(deviceID string, category Category, entries []WatchedEntry) error {
	return d.put(bucketWatched, deviceKey(deviceID, string(category)), entries)
}

// LoadDevice reads every collection stored for a device
func (d *Database) LoadDevice(deviceID string) (*DeviceState, error) {
	state := &DeviceState{
		TempLists:       make(map[Category]*TempList),
		Lists:           make(map[string]*List),
		Recommendations: make(map[string]*List),
		Watched:         make(map[Category][]WatchedEntry),
	}
	prefix := deviceID + ":"

	err := d.scanPrefix(bucketTempLists, prefix, func(key string, value []byte) error {
		var tl TempList
		if err := json.Unmarshal(value, &tl); err != nil {
			return fmt.Errorf("failed to decode temp list %s: %w", key, err)
		}
		state.TempLists[tl.Category] = &tl
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.scanPrefix(bucketLists, prefix, func(key string, value []byte) error {
		var list List
		if err := json.Unmarshal(value, &list); err != nil {
			return fmt.Errorf("failed to decode list %s: %w", key, err)
		}
		state.Lists[list.ID] = &list
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.scanPrefix(bucketRecommendations, prefix, func(key string, value []byte) error {
		var list List
		if err := json.Unmarshal(value, &list); err != nil {
			return fmt.Errorf("failed to decode recommendation %s: %w", key, err)
		}
		state.Recommendations[list.ID] = &list
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.scanPrefix(bucketWatched, prefix, func(key string, value []byte) error {
		var entries []WatchedEntry
		if err := json.Unmarshal(value, &entries); err != nil {
			return fmt.Errorf("failed to decode watched pool %s: %w", key, err)
		}
		category := Category(strings.TrimPrefix(key, prefix))
		state.Watched[category] = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}
