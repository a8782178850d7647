package store

import (
	"context"
	"sync"

	"govportal/internal/intake/models"
	"govportal/pkg/platform/sentinel"
)

// Memory keeps records in process, keyed by table then reference ID.
type Memory struct {
	mu      sync.RWMutex
	tables  map[string]map[string]*models.Record
	failing func(table string) error
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]*models.Record)}
}

// FailInserts installs a hook consulted before every insert.
func (m *Memory) FailInserts(fn func(table string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = fn
}

func (m *Memory) Insert(_ context.Context, spec models.CategorySpec, rec *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		if err := m.failing(spec.Table); err != nil {
			return classify(err, spec.Table)
		}
	}
	rows, ok := m.tables[spec.Table]
	if !ok {
		rows = make(map[string]*models.Record)
		m.tables[spec.Table] = rows
	}
	if _, exists := rows[rec.ReferenceID]; exists {
		return classify(sentinel.ErrAlreadyExists, spec.Table)
	}
	cp := *rec
	rows[rec.ReferenceID] = &cp
	return nil
}

func (m *Memory) FindByReference(_ context.Context, spec models.CategorySpec, referenceID string) (*models.TrackingInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tables[spec.Table][referenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &models.TrackingInfo{
		ReferenceID: rec.ReferenceID,
		Category:    rec.Category,
		Status:      rec.Status,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// Count returns the number of rows in table.
func (m *Memory) Count(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

// Get returns a stored record.
func (m *Memory) Get(table, referenceID string) (*models.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tables[table][referenceID]
	return rec, ok
}
