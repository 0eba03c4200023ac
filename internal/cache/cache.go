// Package cache persists the working set to a local JSON file between
// process runs. It is the offline mirror the repository falls back to when
// neither the remote store nor the bundled snapshot can be read.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/terrenospy/terrenospy/internal/terreno"
)

type Cache struct {
	path string
}

type payload struct {
	Terrenos           []terreno.Terreno `json:"terrenos"`
	FechaActualizacion time.Time         `json:"fechaActualizacion"`
}

func New(path string) *Cache {
	return &Cache{path: path}
}

// Load reads the cached working set. A missing or unreadable file is an
// error so the caller's fallback chain can move on.
func (c *Cache) Load() ([]terreno.Terreno, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if p.Terrenos == nil {
		return []terreno.Terreno{}, nil
	}
	return p.Terrenos, nil
}

// Save overwrites the cache with the given working set in a single write.
func (c *Cache) Save(ts []terreno.Terreno) error {
	if ts == nil {
		ts = []terreno.Terreno{}
	}
	b, err := json.Marshal(payload{Terrenos: ts, FechaActualizacion: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, b, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Clear removes the cache file. A file that never existed is not an error.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
