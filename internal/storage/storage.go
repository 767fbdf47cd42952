// Package storage keeps scored user uploads so their prediction tables can be
// downloaded after the page that produced them has rendered. It uses BoltDB as
// the underlying storage engine; records expire and are removed by a purge job.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	uploadsBucket = "uploads" // Bucket name for scored upload records
	dbFile        = "inflation-dashboard.db"
)

// ErrNotFound is returned when an upload id is unknown or has expired.
var ErrNotFound = errors.New("upload not found")

// UploadRecord is a scored upload. CSV holds the downloadable prediction table.
type UploadRecord struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Rows      int        `json:"rows"`
	Preview   [][]string `json:"preview"`
	CSV       []byte     `json:"csv"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r *UploadRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store provides persistent storage for scored uploads using BoltDB.
type Store struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// New opens (or creates) the database under dataPath. Records saved through
// the store expire after ttl; a zero ttl keeps them until deleted.
func New(dataPath string, ttl time.Duration) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(uploadsBucket)); err != nil {
			return fmt.Errorf("create uploads bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveUpload stores rec under a fresh id and returns it. CreatedAt and
// ExpiresAt are set from the store clock.
func (s *Store) SaveUpload(rec UploadRecord) (string, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()
	if s.ttl > 0 {
		rec.ExpiresAt = rec.CreatedAt.Add(s.ttl)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(uploadsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal upload: %w", err)
		}
		return b.Put([]byte(rec.ID), data)
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// GetUpload returns the record for id. Expired records are reported as
// ErrNotFound even before the purge job removes them.
func (s *Store) GetUpload(id string) (*UploadRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var rec UploadRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(uploadsBucket)).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// ListUploads returns live records, newest first.
func (s *Store) ListUploads() ([]UploadRecord, error) {
	now := s.now()
	var records []UploadRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(uploadsBucket)).ForEach(func(_, v []byte) error {
			var rec UploadRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil // Skip malformed records
			}
			if !rec.Expired(now) {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// PurgeExpired deletes records expired at now, plus any that cannot be
// decoded, and returns how many were removed.
func (s *Store) PurgeExpired(now time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(uploadsBucket))

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec UploadRecord
			if err := json.Unmarshal(v, &rec); err != nil || rec.Expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("delete upload %s: %w", k, err)
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Count returns the number of stored records, expired or not.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(uploadsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
