// Package memory is an in-process ReceiptAppender for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/OgnevOA/spendy-pants/internal/core"
)

type Row struct {
	Receipt    core.Receipt
	ScopeLabel string
}

type Store struct {
	mu   sync.Mutex
	rows []Row
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, r core.Receipt, scopeLabel string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{Receipt: r, ScopeLabel: scopeLabel})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}
