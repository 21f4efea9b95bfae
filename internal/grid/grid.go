// Package grid provides the 2D gridworld terrain: per-cell resource
// occupancy, harvesting, and regeneration.
package grid

import (
	"fmt"

	"github.com/talgya/gridworld/internal/config"
	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/resources"
)

// Placement selects how resources are laid out at initialization.
type Placement uint8

const (
	// PlacementUniform draws each cell independently from spawn densities.
	PlacementUniform Placement = iota
	// PlacementClustered groups each kind into noise-shaped patches while
	// preserving its overall density.
	PlacementClustered
)

// ParsePlacement maps a config string to a Placement.
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "uniform":
		return PlacementUniform, nil
	case "clustered":
		return PlacementClustered, nil
	default:
		return PlacementUniform, fmt.Errorf("%w: unknown placement policy %q", config.ErrConfiguration, s)
	}
}

// Grid is the terrain state. Dimensions are fixed at construction; the only
// mutation is cells flipping between empty and resource-bearing.
type Grid struct {
	width   int
	height  int
	cells   []resources.ID // indexed x*height + y
	catalog *resources.Catalog
}

// New creates a grid and populates it from the catalog's spawn densities
// using the given source. The same source state always produces the same
// layout.
func New(width, height int, catalog *resources.Catalog, src *entropy.Source, placement Placement) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be positive, got %dx%d",
			config.ErrConfiguration, width, height)
	}
	g := &Grid{
		width:   width,
		height:  height,
		cells:   make([]resources.ID, width*height),
		catalog: catalog,
	}
	switch placement {
	case PlacementClustered:
		g.fillClustered(src)
	default:
		g.fillUniform(src)
	}
	return g, nil
}

// fillUniform draws each cell independently: one uniform draw walks the
// cumulative spawn densities, leaving the remainder empty.
func (g *Grid) fillUniform(src *entropy.Source) {
	kinds := g.catalog.Kinds()
	for i := range g.cells {
		r := src.Float()
		cum := 0.0
		for _, k := range kinds {
			cum += k.SpawnDensity
			if r < cum {
				g.cells[i] = k.ID
				break
			}
		}
	}
}

// Width returns the grid width.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) is a valid cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// CellAt returns the resource ID at (x, y), or Empty when out of bounds.
func (g *Grid) CellAt(x, y int) resources.ID {
	if !g.InBounds(x, y) {
		return resources.Empty
	}
	return g.cells[x*g.height+y]
}

// Harvest removes and returns the resource at (x, y). Harvesting an empty
// or out-of-bounds cell returns Empty and changes nothing, so repeated
// harvests of a bare cell are no-ops.
func (g *Grid) Harvest(x, y int) resources.ID {
	if !g.InBounds(x, y) {
		return resources.Empty
	}
	idx := x*g.height + y
	id := g.cells[idx]
	g.cells[idx] = resources.Empty
	return id
}

// Regenerate restores some empty cells to resource-bearing state, each kind
// by its own regen rate. Called once per timestep, after rewards are
// computed, so regrowth never leaks into the step's scoring.
func (g *Grid) Regenerate(src *entropy.Source) {
	kinds := g.catalog.Kinds()
	for i, cell := range g.cells {
		if cell != resources.Empty {
			continue
		}
		r := src.Float()
		cum := 0.0
		for _, k := range kinds {
			cum += k.RegenRate
			if r < cum {
				g.cells[i] = k.ID
				break
			}
		}
	}
}

// CountNonEmpty returns how many cells currently hold a resource.
func (g *Grid) CountNonEmpty() int {
	n := 0
	for _, c := range g.cells {
		if c != resources.Empty {
			n++
		}
	}
	return n
}

// Snapshot returns the cell state as [x][y] ints for sink payloads.
func (g *Grid) Snapshot() [][]int {
	out := make([][]int, g.width)
	for x := 0; x < g.width; x++ {
		col := make([]int, g.height)
		for y := 0; y < g.height; y++ {
			col[y] = int(g.cells[x*g.height+y])
		}
		out[x] = col
	}
	return out
}

// Equal reports whether two grids have identical dimensions and cells.
// Used by determinism checks.
func (g *Grid) Equal(other *Grid) bool {
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}
