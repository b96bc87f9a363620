package store

import (
	"context"
	"fmt"
	"sync"

	"credito/internal/credit/models"
)

// InMemoryStore keeps credit records in insertion order.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  []models.Record
	byNumero map[string]int
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byNumero: make(map[string]int)}
}

// Save inserts a record, replacing any existing record with the same credit number.
func (s *InMemoryStore) Save(_ context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("credit record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.byNumero[record.NumeroCredito]; ok {
		s.records[idx] = *record
		return nil
	}
	s.byNumero[record.NumeroCredito] = len(s.records)
	s.records = append(s.records, *record)
	return nil
}

// FindByNumeroNfse returns every record for the document, in insertion order.
// An unknown document yields an empty slice and no error.
func (s *InMemoryStore) FindByNumeroNfse(_ context.Context, numeroNfse string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0)
	for i := range s.records {
		if s.records[i].NumeroNfse == numeroNfse {
			r := s.records[i]
			out = append(out, &r)
		}
	}
	return out, nil
}

// FindByNumeroCredito returns the record with the given credit number or ErrNotFound.
func (s *InMemoryStore) FindByNumeroCredito(_ context.Context, numeroCredito string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byNumero[numeroCredito]
	if !ok {
		return nil, ErrNotFound
	}
	r := s.records[idx]
	return &r, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}
