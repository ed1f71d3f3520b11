package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/pkg/logger"
)

var bucketName = []byte("webset_runs")

// Run is what the journal remembers about one webset
type Run struct {
	WebsetID  string    `json:"webset_id"`
	Query     string    `json:"query,omitempty"`
	Status    string    `json:"status"`
	Outcome   string    `json:"outcome,omitempty"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunStore records created and polled websets so a run can be resumed by id
type RunStore struct {
	db *bbolt.DB
}

// NewRunStore opens (or creates) the journal at path
func NewRunStore(path string) (*RunStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	// Create bucket if not exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("run journal initialized", zap.String("path", path))
	return &RunStore{db: db}, nil
}

// Put inserts or replaces a run. CreatedAt of an existing run is kept.
func (s *RunStore) Put(run *Run) error {
	if run.WebsetID == "" {
		return fmt.Errorf("run has no webset id")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		now := time.Now().UTC()

		if existing := b.Get([]byte(run.WebsetID)); existing != nil {
			var prev Run
			if err := json.Unmarshal(existing, &prev); err == nil && !prev.CreatedAt.IsZero() {
				run.CreatedAt = prev.CreatedAt
				if run.Query == "" {
					run.Query = prev.Query
				}
			}
		}
		if run.CreatedAt.IsZero() {
			run.CreatedAt = now
		}
		run.UpdatedAt = now

		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		return b.Put([]byte(run.WebsetID), data)
	})
}

// Get retrieves a run by webset id. It returns nil, nil when the id is unknown.
func (s *RunStore) Get(websetID string) (*Run, error) {
	var run *Run

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		data := b.Get([]byte(websetID))
		if data == nil {
			return nil
		}
		run = &Run{}
		return json.Unmarshal(data, run)
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns every run, most recently updated first
func (s *RunStore) List() ([]Run, error) {
	var runs []Run

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].UpdatedAt.After(runs[j].UpdatedAt)
	})
	return runs, nil
}

// Delete removes a run by webset id
func (s *RunStore) Delete(websetID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Delete([]byte(websetID))
	})
}

// Close closes the database connection
func (s *RunStore) Close() error {
	return s.db.Close()
}
