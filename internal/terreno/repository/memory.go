package repository

import (
	"errors"
	"strings"
	"sync"

	"github.com/terrenospy/terrenospy/internal/terreno"
)

var (
	ErrNotFound = errors.New("terreno not found")
)

// MemoryRepo holds the working set of listings for the lifetime of the
// process. The set is an ordered slice (newest first) because the persisted
// wire format is an ordered array and mutations prepend.
type MemoryRepo struct {
	mu       sync.RWMutex
	terrenos []terreno.Terreno
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Replace swaps in a whole new working set, keeping its order.
func (m *MemoryRepo) Replace(ts []terreno.Terreno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terrenos = append([]terreno.Terreno(nil), ts...)
}

// List returns a copy of the working set; callers may mutate it freely.
func (m *MemoryRepo) List() []terreno.Terreno {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]terreno.Terreno(nil), m.terrenos...)
}

func (m *MemoryRepo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.terrenos)
}

// Get returns the listing with the given id, compared by exact equality.
func (m *MemoryRepo) Get(id string) (terreno.Terreno, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.terrenos {
		if t.ID == id {
			return t, nil
		}
	}
	return terreno.Terreno{}, ErrNotFound
}

// Search filters by case-insensitive substring over titulo, ubicacion,
// descripcion and moneda. A blank query returns the full set unchanged.
func (m *MemoryRepo) Search(query string) []terreno.Terreno {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return m.List()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []terreno.Terreno{}
	for _, t := range m.terrenos {
		if strings.Contains(strings.ToLower(t.Titulo), q) ||
			strings.Contains(strings.ToLower(t.Ubicacion), q) ||
			strings.Contains(strings.ToLower(t.Descripcion), q) ||
			strings.Contains(strings.ToLower(t.Moneda), q) {
			out = append(out, t)
		}
	}
	return out
}

// Featured returns the listings marked destacado, in working-set order.
func (m *MemoryRepo) Featured() []terreno.Terreno {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []terreno.Terreno{}
	for _, t := range m.terrenos {
		if t.Destacado {
			out = append(out, t)
		}
	}
	return out
}

// Prepend inserts a new listing at the head (newest first).
func (m *MemoryRepo) Prepend(t terreno.Terreno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terrenos = append([]terreno.Terreno{t}, m.terrenos...)
}

// Set overwrites the stored listing with the same id.
func (m *MemoryRepo) Set(t terreno.Terreno) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.terrenos {
		if m.terrenos[i].ID == t.ID {
			m.terrenos[i] = t
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes the listing with the given id.
func (m *MemoryRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.terrenos {
		if m.terrenos[i].ID == id {
			m.terrenos = append(m.terrenos[:i], m.terrenos[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
