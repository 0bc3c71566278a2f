// Package memory implements the document store in process memory. It backs
// tests and local runs without a database file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/OgnevOA/spendy-pants/internal/docstore"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]docstore.Fields
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]docstore.Fields)}
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Fields: normalize(fields)}, nil
}

func (s *Store) Set(_ context.Context, collection, id string, fields docstore.Fields, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := docstore.Fields{}
	if merge {
		if existing, ok := s.collections[collection][id]; ok {
			current = existing
		}
	}
	resolved, err := docstore.ResolveWrites(current, fields)
	if err != nil {
		return err
	}
	s.put(collection, id, resolved)
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, updates docstore.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.collections[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	resolved, err := docstore.ResolveWrites(current, updates)
	if err != nil {
		return err
	}
	s.put(collection, id, resolved)
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Query(_ context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []docstore.Document
	for id, fields := range s.collections[collection] {
		doc := docstore.Document{ID: id, Fields: normalize(fields)}
		if docstore.Matches(doc, filters) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Store) AddAutoID(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) put(collection, id string, fields docstore.Fields) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]docstore.Fields)
	}
	s.collections[collection][id] = normalize(fields)
}

// normalize round-trips through JSON so callers see the same value types the
// persistent backend produces, and so stored documents never alias caller
// maps or slices.
func normalize(fields docstore.Fields) docstore.Fields {
	raw, err := json.Marshal(fields)
	if err != nil {
		panic(fmt.Sprintf("docstore/memory: unencodable fields: %v", err))
	}
	var out docstore.Fields
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("docstore/memory: %v", err))
	}
	return out
}
