// Package history keeps a persistent record of generated and scanned codes
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry kinds
const (
	KindGenerate = "generate"
	KindScan     = "scan"
	KindSheet    = "sheet"
)

// Entry is one recorded code event
type Entry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // generate, scan, sheet
	Value       string    `json:"value"`
	Format      string    `json:"format,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	ExpiryText  string    `json:"expiry_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store manages history entries backed by a JSON file
type Store struct {
	filePath string
	data     map[string]*Entry
	mu       sync.RWMutex
}

// New creates a Store, loading existing entries when the file exists
func New(filePath string) (*Store, error) {
	s := &Store{
		filePath: filePath,
		data:     make(map[string]*Entry),
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return s, nil
}

// Add records a new entry and returns its ID
func (s *Store) Add(entry Entry) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uuid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.data[entry.ID] = &entry

	if err := s.save(); err != nil {
		// Non-critical, the entry stays in memory and the next save retries
	}

	return entry.ID
}

// Get returns an entry by ID, or nil
func (s *Store) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, exists := s.data[id]; exists {
		entryCopy := *entry
		return &entryCopy
	}
	return nil
}

// GetAll returns all entries, newest first
func (s *Store) GetAll() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*Entry, 0, len(s.data))
	for _, entry := range s.data {
		entryCopy := *entry
		entries = append(entries, &entryCopy)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries
}

// Remove deletes an entry by ID
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return false
	}

	delete(s.data, id)

	if err := s.save(); err != nil {
		// Non-critical
	}

	return true
}

// Clear removes all entries
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*Entry)

	if err := s.save(); err != nil {
		// Non-critical
	}
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}
