package env

// palette supplies agent colors when none is configured or a configured
// color collides. Picked in order, so registration is deterministic.
var palette = []string{
	"#E6194B", "#3CB44B", "#4363D8", "#F58231", "#911EB4",
	"#46F0F0", "#F032E6", "#BCF60C", "#FABEBE", "#008080",
	"#E6BEFF", "#9A6324", "#FFFAC8", "#800000", "#AAFFC3",
	"#808000", "#FFD8B1", "#000075", "#808080", "#000000",
	"#A9A9A9", "#FF4500", "#2E8B57", "#1E90FF",
}

// nextPaletteColor returns the first palette color not yet in use. With the
// palette exhausted it derives a deterministic fallback.
func nextPaletteColor(used map[string]bool) string {
	for _, c := range palette {
		if !used[c] {
			return c
		}
	}
	// More agents than palette entries; spread through the hue space.
	n := len(used)
	return deriveColor(n)
}

func deriveColor(n int) string {
	r := (n * 67) % 256
	g := (n * 131) % 256
	b := (n * 199) % 256
	return rgbHex(r, g, b)
}

func rgbHex(r, g, b int) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{
		'#',
		digits[r>>4], digits[r&0xF],
		digits[g>>4], digits[g&0xF],
		digits[b>>4], digits[b&0xF],
	})
}
