package repository

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/pkg/metrics"
)

// stored is one result plus its position in the save order.
type stored struct {
	result model.Result
	seq    uint64
	elem   *list.Element
}

// MemoryStore keeps results in process memory, indexed by id and by well.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*stored
	byWell     map[string]map[string]*stored
	order      *list.List // ids, oldest save at the front
	seq        uint64
	maxResults int
	closed     bool
}

// NewMemoryStore constructs an in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byID:   make(map[string]*stored),
		byWell: make(map[string]map[string]*stored),
		order:  list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements Store.Save.
func (s *MemoryStore) Save(ctx context.Context, r model.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositorySaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	if old, ok := s.byID[r.ID]; ok {
		s.unindex(old)
		s.order.Remove(old.elem)
	}
	st := &stored{result: r, seq: s.seq}
	st.elem = s.order.PushBack(r.ID)
	s.byID[r.ID] = st
	well := s.byWell[r.Header.WellID]
	if well == nil {
		well = make(map[string]*stored)
		s.byWell[r.Header.WellID] = well
	}
	well[r.ID] = st

	for s.maxResults > 0 && len(s.byID) > s.maxResults {
		front := s.order.Front()
		victim := s.byID[front.Value.(string)]
		s.order.Remove(front)
		s.unindex(victim)
	}
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoredResults(count)
	return nil
}

// unindex drops st from both indexes. Callers hold the write lock.
func (s *MemoryStore) unindex(st *stored) {
	delete(s.byID, st.result.ID)
	wellID := st.result.Header.WellID
	if well := s.byWell[wellID]; well != nil {
		delete(well, st.result.ID)
		if len(well) == 0 {
			delete(s.byWell, wellID)
		}
	}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return model.Result{}, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[id]
	if !ok {
		return model.Result{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return st.result, nil
}

// ListByWell implements Store.ListByWell.
func (s *MemoryStore) ListByWell(ctx context.Context, wellID string, limit int) ([]model.Result, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	entries := make([]*stored, 0, len(s.byWell[wellID]))
	for _, st := range s.byWell[wellID] {
		entries = append(entries, st)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.result.ClassifiedAt.Equal(b.result.ClassifiedAt) {
			return a.result.ClassifiedAt.After(b.result.ClassifiedAt)
		}
		return a.seq > b.seq
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]model.Result, len(entries))
	for i, st := range entries {
		out[i] = st.result
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Close implements Store.Close. Later writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
