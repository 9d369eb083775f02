package scene

import (
	"reflect"
	"slices"
)

// DefaultNodeCapacity is the initial slot count of a node's component store.
const DefaultNodeCapacity = 4

// componentStore is a dense array of at most one component per concrete type, with a
// type index for O(1) lookup and swap-with-last removal. Slot order is not insertion
// order once something has been removed.
type componentStore struct {
	slots []Component
	index map[reflect.Type]int
}

func newComponentStore(capacity int) componentStore {
	if capacity <= 0 {
		capacity = DefaultNodeCapacity
	}
	return componentStore{
		slots: make([]Component, 0, capacity),
		index: make(map[reflect.Type]int, capacity),
	}
}

func (s *componentStore) len() int { return len(s.slots) }

func (s *componentStore) lookup(t reflect.Type) (Component, bool) {
	i, ok := s.index[t]
	if !ok {
		return nil, false
	}
	return s.slots[i], true
}

// put stores c under t. It reports false if t is already present.
func (s *componentStore) put(t reflect.Type, c Component) bool {
	if _, ok := s.index[t]; ok {
		return false
	}
	if len(s.slots) == cap(s.slots) {
		grown := make([]Component, len(s.slots), max(DefaultNodeCapacity, 2*cap(s.slots)))
		copy(grown, s.slots)
		s.slots = grown
	}
	s.index[t] = len(s.slots)
	s.slots = append(s.slots, c)
	return true
}

// remove deletes the component stored under t, moving the last slot into its place.
func (s *componentStore) remove(t reflect.Type) (Component, bool) {
	i, ok := s.index[t]
	if !ok {
		return nil, false
	}
	removed := s.slots[i]
	last := len(s.slots) - 1
	if i != last {
		moved := s.slots[last]
		s.slots[i] = moved
		s.index[reflect.TypeOf(moved)] = i
	}
	s.slots[last] = nil
	s.slots = s.slots[:last]
	delete(s.index, t)
	return removed, true
}

// indexOf returns the slot position of type t, or -1.
func (s *componentStore) indexOf(t reflect.Type) int {
	if i, ok := s.index[t]; ok {
		return i
	}
	return -1
}

// snapshot copies the slot array so callers can iterate while the store mutates.
func (s *componentStore) snapshot() []Component {
	return slices.Clone(s.slots)
}
