package index

import "strings"

// Store exposes the index glossary to handlers and the prompt builder.
type Store interface {
	List() []Index
	FindBySymbol(symbol string) (Index, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Index
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied indices.
func NewMemoryStore(items []Index) *MemoryStore {
	return &MemoryStore{items: append([]Index(nil), items...)}
}

// List returns the glossary in declaration order.
func (s *MemoryStore) List() []Index {
	return append([]Index(nil), s.items...)
}

// FindBySymbol looks up an index, ignoring case.
func (s *MemoryStore) FindBySymbol(symbol string) (Index, bool) {
	for _, item := range s.items {
		if strings.EqualFold(item.Symbol, symbol) {
			return item, true
		}
	}
	return Index{}, false
}
