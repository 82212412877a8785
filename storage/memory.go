package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"memoryshare/models"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// ErrMemoryNotFound is returned when a memory ID does not exist
var ErrMemoryNotFound = errors.New("memory not found")

// MemoryStore manages memory record persistence
type MemoryStore struct {
	db *bbolt.DB
}

// NewMemoryStore creates a new memory store backed by the given database
func NewMemoryStore(db *bbolt.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Create persists a new memory and indexes its tags
func (s *MemoryStore) Create(memory *models.Memory) error {
	// Generate ID if not set
	if memory.ID == "" {
		memory.ID = uuid.New().String()
	}

	now := time.Now()
	memory.CreatedAt = now
	memory.UpdatedAt = now
	if memory.UploadDate.IsZero() {
		memory.UploadDate = now
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(memory)
		if err != nil {
			return fmt.Errorf("failed to marshal memory: %w", err)
		}

		if err := tx.Bucket([]byte(bucketMemories)).Put([]byte(memory.ID), data); err != nil {
			return fmt.Errorf("failed to store memory: %w", err)
		}

		for _, tag := range memory.Tags {
			if err := addToTagIndex(tx, tag, memory.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get retrieves a memory by ID
func (s *MemoryStore) Get(id string) (*models.Memory, error) {
	var memory *models.Memory

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketMemories)).Get([]byte(id))
		if data == nil {
			return ErrMemoryNotFound
		}

		memory = &models.Memory{}
		if err := json.Unmarshal(data, memory); err != nil {
			return fmt.Errorf("failed to unmarshal memory: %w", err)
		}
		return nil
	})

	return memory, err
}

// List returns all memories, newest first
func (s *MemoryStore) List() ([]*models.Memory, error) {
	var memories []*models.Memory

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketMemories)).ForEach(func(_, data []byte) error {
			var memory models.Memory
			if err := json.Unmarshal(data, &memory); err != nil {
				return nil // Skip corrupt records
			}
			memories = append(memories, &memory)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})

	return memories, nil
}

// ListByTag returns all memories carrying the given tag, newest first
func (s *MemoryStore) ListByTag(tag string) ([]*models.Memory, error) {
	var memories []*models.Memory

	err := s.db.View(func(tx *bbolt.Tx) error {
		ids := readTagIndex(tx, tag)
		bucket := tx.Bucket([]byte(bucketMemories))

		for _, id := range ids {
			data := bucket.Get([]byte(id))
			if data == nil {
				continue // Index entry outlived the record
			}
			var memory models.Memory
			if err := json.Unmarshal(data, &memory); err != nil {
				continue
			}
			memories = append(memories, &memory)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})

	return memories, nil
}

// Tags returns all indexed tags and how many memories carry each
func (s *MemoryStore) Tags() (map[string]int, error) {
	counts := make(map[string]int)

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketTagIndex)).ForEach(func(tag, data []byte) error {
			var ids []string
			if err := json.Unmarshal(data, &ids); err != nil {
				return nil
			}
			if len(ids) > 0 {
				counts[string(tag)] = len(ids)
			}
			return nil
		})
	})

	return counts, err
}

// Delete removes a memory and its tag index entries
func (s *MemoryStore) Delete(id string) (*models.Memory, error) {
	var memory *models.Memory

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketMemories))
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrMemoryNotFound
		}

		memory = &models.Memory{}
		if err := json.Unmarshal(data, memory); err != nil {
			return fmt.Errorf("failed to unmarshal memory: %w", err)
		}

		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete memory: %w", err)
		}

		for _, tag := range memory.Tags {
			if err := removeFromTagIndex(tx, tag, id); err != nil {
				return err
			}
		}
		return nil
	})

	return memory, err
}

// addToTagIndex appends a memory ID to a tag's ID set
func addToTagIndex(tx *bbolt.Tx, tag, id string) error {
	ids := readTagIndex(tx, tag)
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal tag index: %w", err)
	}
	return tx.Bucket([]byte(bucketTagIndex)).Put([]byte(tag), data)
}

// removeFromTagIndex removes a memory ID from a tag's ID set
func removeFromTagIndex(tx *bbolt.Tx, tag, id string) error {
	ids := readTagIndex(tx, tag)
	remaining := ids[:0]
	for _, existing := range ids {
		if existing != id {
			remaining = append(remaining, existing)
		}
	}

	bucket := tx.Bucket([]byte(bucketTagIndex))
	if len(remaining) == 0 {
		return bucket.Delete([]byte(tag))
	}

	data, err := json.Marshal(remaining)
	if err != nil {
		return fmt.Errorf("failed to marshal tag index: %w", err)
	}
	return bucket.Put([]byte(tag), data)
}

func readTagIndex(tx *bbolt.Tx, tag string) []string {
	data := tx.Bucket([]byte(bucketTagIndex)).Get([]byte(tag))
	if data == nil {
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil
	}
	return ids
}
