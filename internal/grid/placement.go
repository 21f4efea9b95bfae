package grid

import (
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/gridworld/internal/entropy"
	"github.com/talgya/gridworld/internal/resources"
)

// noiseScale stretches cell coordinates into noise space. Smaller values
// make larger patches.
const noiseScale = 0.18

// fillClustered lays resources out in noise-shaped patches: each kind gets
// its own simplex field, and the cells with the strongest field values
// become that kind's patches. Density is preserved by thresholding at the
// kind's quantile instead of a fixed cutoff.
func (g *Grid) fillClustered(src *entropy.Source) {
	kinds := g.catalog.Kinds()
	total := g.width * g.height

	// One independent noise layer per kind, seeded from the source so the
	// layout is a pure function of the environment seed.
	for layer, k := range kinds {
		noise := opensimplex.NewNormalized(src.Seed() + int64(layer) + 1)

		values := make([]float64, total)
		for x := 0; x < g.width; x++ {
			for y := 0; y < g.height; y++ {
				values[x*g.height+y] = noise.Eval2(float64(x)*noiseScale, float64(y)*noiseScale)
			}
		}

		// Threshold at the quantile that yields the configured density.
		want := int(k.SpawnDensity * float64(total))
		if want <= 0 {
			continue
		}
		sorted := make([]float64, total)
		copy(sorted, values)
		sort.Float64s(sorted)
		threshold := sorted[total-want]

		placed := 0
		for i, v := range values {
			if placed >= want {
				break
			}
			if v >= threshold && g.cells[i] == resources.Empty {
				g.cells[i] = k.ID
				placed++
			}
		}
	}
}
