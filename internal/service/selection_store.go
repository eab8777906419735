package service

import (
	"sort"
	"sync"
)

// SelectionStore tracks selected employee ids and keeps them a subset of the
// currently visible ids.
type SelectionStore struct {
	mu       sync.Mutex
	visible  map[int64]struct{}
	selected map[int64]struct{}
}

// NewSelectionStore returns an empty store with the given visible ids.
func NewSelectionStore(visibleIDs []int64) *SelectionStore {
	s := &SelectionStore{selected: make(map[int64]struct{})}
	s.visible = toSet(visibleIDs)
	return s
}

// SetVisible replaces the visible set and drops selected ids no longer in it.
func (s *SelectionStore) SetVisible(visibleIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = toSet(visibleIDs)
	for id := range s.selected {
		if _, ok := s.visible[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// Select adds or removes one id and reports whether the selection changed.
// Ids outside the visible set are ignored.
func (s *SelectionStore) Select(id int64, selected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, has := s.selected[id]
	if !selected {
		if !has {
			return false
		}
		delete(s.selected, id)
		return true
	}
	if has {
		return false
	}
	if _, ok := s.visible[id]; !ok {
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// SelectAll sets the selection to the visible members of visibleIDs, or
// clears it when selected is false.
func (s *SelectionStore) SelectAll(selected bool, visibleIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int64]struct{}, len(visibleIDs))
	if !selected {
		return
	}
	for _, id := range visibleIDs {
		if _, ok := s.visible[id]; ok {
			s.selected[id] = struct{}{}
		}
	}
}

// Clear empties the selection.
func (s *SelectionStore) Clear() {
	s.SelectAll(false, nil)
}

// Current returns a sorted copy of the selection.
func (s *SelectionStore) Current() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Has reports whether id is selected.
func (s *SelectionStore) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
