// Package blocking computes numeric locality keys for normalized names.
// Names that differ by a few edits have nearly equal letter sums and
// lengths, so their keys land close together and the cluster builder can
// restrict fuzzy comparison to a narrow numeric window instead of scoring
// every pair.
package blocking

// DefaultScale weights a name's length into its key so the length term and
// the letter-sum term contribute comparably to numeric locality. It is an
// empirically fit tuning value, not a law, which is why it stays
// configurable.
const DefaultScale = 33.0

// KeyGenerator computes blocking keys. The zero value is not useful; use
// New.
type KeyGenerator struct {
	scale float64
}

// New returns a KeyGenerator with the given length scale. Non-positive
// scales fall back to DefaultScale.
func New(scale float64) KeyGenerator {
	if scale <= 0 {
		scale = DefaultScale
	}
	return KeyGenerator{scale: scale}
}

// Scale returns the length weight in use.
func (g KeyGenerator) Scale() float64 {
	return g.scale
}

// Key maps a normalized name to its locality key: the sum of 1-based
// alphabet positions of its letters (a=1 through z=26, everything else 0)
// plus Scale times the rune length of the name. The empty name keys to 0.
func (g KeyGenerator) Key(name string) float64 {
	var letterSum, length float64
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			letterSum += float64(r - 'a' + 1)
		case r >= 'A' && r <= 'Z':
			letterSum += float64(r - 'A' + 1)
		}
		length++
	}
	return letterSum + g.scale*length
}

// Window returns the inclusive candidate interval [lo, hi] around key for
// a relative tolerance: lo = key * (1 - tolerance), hi = key * (1 +
// tolerance). The window is computed from the seed key alone and stays
// fixed while a cluster grows.
func Window(key, tolerance float64) (lo, hi float64) {
	return key * (1 - tolerance), key * (1 + tolerance)
}
