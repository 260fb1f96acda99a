package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketAttributes = []byte("attributes")

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates a BoltDB database.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAttributes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveValue(attribute string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		return b.Put([]byte(attribute), value)
	})
}

func (s *BoltStore) GetValue(attribute string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		data := b.Get([]byte(attribute))
		if data == nil {
			return fmt.Errorf("attribute %s: %w", attribute, ErrNotFound)
		}
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *BoltStore) ListValues() (map[string][]byte, error) {
	values := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return nil // no bucket = nothing persisted
		}
		return b.ForEach(func(k, v []byte) error {
			value := make([]byte, len(v))
			copy(value, v)
			values[string(k)] = value
			return nil
		})
	})
	return values, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
