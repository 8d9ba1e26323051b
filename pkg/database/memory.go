package database

import (
	"context"
	"sync"

	"ltv-analytics/pkg/models"
)

// MemoryStore is an in-process order repository with the same filter
// semantics as Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.OrderRecord
}

func NewMemoryStore(records ...models.OrderRecord) *MemoryStore {
	m := &MemoryStore{}
	m.Add(records...)
	return m
}

// Add appends records. Records without a customer key are dropped.
func (m *MemoryStore) Add(records ...models.OrderRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		r.CustomerKey = NormalizeCustomerKey(r.CustomerKey)
		if r.CustomerKey == "" {
			continue
		}
		if r.Amount < 0 {
			r.Amount = 0
		}
		m.records = append(m.records, r)
	}
}

func (m *MemoryStore) FetchOrders(_ context.Context, filter models.OrderFilter) ([]models.OrderRecord, error) {
	var keys map[string]struct{}
	if len(filter.CustomerKeys) > 0 {
		keys = make(map[string]struct{}, len(filter.CustomerKeys))
		for _, k := range filter.CustomerKeys {
			keys[k] = struct{}{}
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.OrderRecord
	for _, r := range m.records {
		if !filter.From.IsZero() && r.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && r.OccurredAt.After(filter.To) {
			continue
		}
		if keys != nil {
			if _, ok := keys[r.CustomerKey]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}
