package env

// Observation is the one-hot multi-channel grid encoding handed to
// policies: one channel per resource kind followed by one channel per
// agent, each channel shaped (width, height), values in {0, 1}. The shape
// is fixed at SetAgents and stable for the life of the environment.
type Observation struct {
	Channels int       `json:"channels"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Data     []float64 `json:"data"` // Flattened channel-major: c*W*H + x*H + y
}

// At returns the value at channel c, cell (x, y).
func (o *Observation) At(c, x, y int) float64 {
	return o.Data[c*o.Width*o.Height+x*o.Height+y]
}

// Len returns the flattened observation size.
func (o *Observation) Len() int {
	return len(o.Data)
}

// observe builds the observation from current state. Callers hold e.mu.
func (e *Env) observe() *Observation {
	numRes := e.catalog.Len()
	channels := numRes + len(e.ags)
	obs := &Observation{
		Channels: channels,
		Width:    e.width,
		Height:   e.height,
		Data:     make([]float64, channels*e.width*e.height),
	}
	if e.grid == nil {
		return obs
	}

	// Resource channels, catalog order.
	channelOf := make(map[uint8]int, numRes)
	for i, id := range e.catalog.IDs() {
		channelOf[uint8(id)] = i
	}
	plane := e.width * e.height
	for x := 0; x < e.width; x++ {
		for y := 0; y < e.height; y++ {
			cell := e.grid.CellAt(x, y)
			if cell == 0 {
				continue
			}
			if c, ok := channelOf[uint8(cell)]; ok {
				obs.Data[c*plane+x*e.height+y] = 1
			}
		}
	}

	// Agent channels, registration order.
	for i, a := range e.ags {
		c := numRes + i
		obs.Data[c*plane+a.X*e.height+a.Y] = 1
	}
	return obs
}
