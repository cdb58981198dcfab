package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/pkg/apperr"
)

type memDoc struct {
	doc       []byte
	version   int64
	updatedAt time.Time
}

// Memory is the in-process Store used by tests and local runs.
type Memory struct {
	mu   sync.Mutex
	docs map[string]map[string]*memDoc // kind -> id -> doc
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]map[string]*memDoc{}}
}

func (m *Memory) Get(_ context.Context, kind, id string) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[kind][id]
	if !ok {
		return nil, 0, apperr.Newf(apperr.KindNotFound, "%s %s not found", kind, id)
	}
	cp := make([]byte, len(d.doc))
	copy(cp, d.doc)
	return cp, d.version, nil
}

func (m *Memory) Put(_ context.Context, kind, id string, doc []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[kind] == nil {
		m.docs[kind] = map[string]*memDoc{}
	}
	cur, exists := m.docs[kind][id]

	if expectedVersion == 0 {
		if exists {
			return 0, apperr.Newf(apperr.KindConflict, "%s %s already exists", kind, id)
		}
		cp := make([]byte, len(doc))
		copy(cp, doc)
		m.docs[kind][id] = &memDoc{doc: cp, version: 1, updatedAt: time.Now()}
		return 1, nil
	}

	if !exists || cur.version != expectedVersion {
		return 0, apperr.Newf(apperr.KindConflict, "version mismatch on %s %s", kind, id)
	}
	cp := make([]byte, len(doc))
	copy(cp, doc)
	cur.doc = cp
	cur.version++
	cur.updatedAt = time.Now()
	return cur.version, nil
}

func (m *Memory) QueryIndex(_ context.Context, kind, field, key string, limit int) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type hit struct {
		doc       []byte
		updatedAt time.Time
	}
	var hits []hit
	for _, d := range m.docs[kind] {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(d.doc, &fields); err != nil {
			continue
		}
		raw, ok := fields[field]
		if !ok {
			continue
		}
		var val string
		if err := json.Unmarshal(raw, &val); err != nil {
			continue
		}
		if val == key {
			cp := make([]byte, len(d.doc))
			copy(cp, d.doc)
			hits = append(hits, hit{doc: cp, updatedAt: d.updatedAt})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].updatedAt.After(hits[j].updatedAt) })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([][]byte, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out, nil
}
