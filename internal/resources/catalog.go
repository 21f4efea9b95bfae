// Package resources provides the resource kind catalog: what can occupy a
// grid cell, how densely it spawns, and how it regrows.
package resources

import (
	"fmt"
	"sort"

	"github.com/talgya/gridworld/internal/config"
)

// ID identifies a resource kind. 0 is reserved for empty cells and is never
// a valid kind ID.
type ID uint8

// Empty is the cell value for "nothing here".
const Empty ID = 0

// EmptyColor is the hex color for empty cells in render payloads.
const EmptyColor = "#8A9A5B"

// Kind describes one resource type. Immutable once registered.
type Kind struct {
	ID           ID      `json:"id"`
	Name         string  `json:"name"`
	SpawnDensity float64 `json:"spawn_density"` // Fraction of cells at init, 0.0–1.0
	RegenRate    float64 `json:"regen_rate"`    // Per-empty-cell restore chance per step
	Color        string  `json:"color"`         // Hex string for rendering
	BasePrice    float64 `json:"base_price"`    // Reference price for order submission
}

// Catalog is the immutable registry of resource kinds.
type Catalog struct {
	kinds map[ID]Kind
	order []ID // ascending IDs, fixed at construction
}

// NewCatalog builds a catalog from kinds, enforcing ID uniqueness and a
// total spawn density of at most 1.
func NewCatalog(kinds []Kind) (*Catalog, error) {
	c := &Catalog{kinds: make(map[ID]Kind, len(kinds))}
	densitySum := 0.0
	for _, k := range kinds {
		if k.ID == Empty {
			return nil, fmt.Errorf("%w: resource id 0 is reserved for empty cells", config.ErrConfiguration)
		}
		if _, dup := c.kinds[k.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate resource id %d (%s)", config.ErrConfiguration, k.ID, k.Name)
		}
		if k.SpawnDensity < 0 || k.SpawnDensity > 1 {
			return nil, fmt.Errorf("%w: resource %s spawn density %.3f out of [0,1]",
				config.ErrConfiguration, k.Name, k.SpawnDensity)
		}
		if k.RegenRate < 0 || k.RegenRate > 1 {
			return nil, fmt.Errorf("%w: resource %s regen rate %.3f out of [0,1]",
				config.ErrConfiguration, k.Name, k.RegenRate)
		}
		densitySum += k.SpawnDensity
		c.kinds[k.ID] = k
		c.order = append(c.order, k.ID)
	}
	if densitySum > 1 {
		return nil, fmt.Errorf("%w: spawn densities sum to %.3f (> 1)", config.ErrConfiguration, densitySum)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })
	return c, nil
}

// FromSpecs builds a catalog from config resource specs, or the default
// catalog when none are configured.
func FromSpecs(specs []config.ResourceSpec) (*Catalog, error) {
	if len(specs) == 0 {
		return DefaultCatalog()
	}
	kinds := make([]Kind, 0, len(specs))
	for _, s := range specs {
		kinds = append(kinds, Kind{
			ID:           ID(s.ID),
			Name:         s.Name,
			SpawnDensity: s.SpawnDensity,
			RegenRate:    s.RegenRate,
			Color:        s.Color,
			BasePrice:    s.BasePrice,
		})
	}
	return NewCatalog(kinds)
}

// DefaultCatalog returns the stock three-resource world.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog([]Kind{
		{ID: 1, Name: "wood", SpawnDensity: 0.07, RegenRate: 0.02, Color: "#966F33", BasePrice: 3},
		{ID: 2, Name: "stone", SpawnDensity: 0.05, RegenRate: 0.01, Color: "#8D8D8D", BasePrice: 4},
		{ID: 3, Name: "gold", SpawnDensity: 0.02, RegenRate: 0.005, Color: "#FFD700", BasePrice: 10},
	})
}

// Get returns the kind for an ID.
func (c *Catalog) Get(id ID) (Kind, bool) {
	k, ok := c.kinds[id]
	return k, ok
}

// Kinds returns all kinds in ascending ID order.
func (c *Catalog) Kinds() []Kind {
	out := make([]Kind, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.kinds[id])
	}
	return out
}

// IDs returns all kind IDs in ascending order.
func (c *Catalog) IDs() []ID {
	out := make([]ID, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of registered kinds.
func (c *Catalog) Len() int {
	return len(c.kinds)
}

// ColorLookup maps cell values to hex colors, including the empty cell.
// This is the gridworld_color_lookup render payload.
func (c *Catalog) ColorLookup() map[int]string {
	lookup := make(map[int]string, len(c.kinds)+1)
	lookup[int(Empty)] = EmptyColor
	for id, k := range c.kinds {
		lookup[int(id)] = k.Color
	}
	return lookup
}
