package similarity

// ratcliffObershelp implements the Ratcliff/Obershelp "gestalt" string
// match: find the longest common substring, then recursively match the
// unmatched stretches to the left and right of it on both sides.
type ratcliffObershelp struct{}

func (ratcliffObershelp) Algorithm() Algorithm {
	return AlgorithmRatcliffObershelp
}

// Score returns 2 x M / (len(a) + len(b)) where M is the total number of
// runes inside matching blocks. Two empty names score 1.0; one empty name
// against a non-empty one scores 0.
func (ratcliffObershelp) Score(a, b string) float64 {
	// The recursive block search is orientation-sensitive in rare tie
	// cases; fix the argument order so the score stays symmetric.
	if a > b {
		a, b = b, a
	}
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	matched := matchingRunes(ar, br, 0, len(ar), 0, len(br))
	return 2 * float64(matched) / float64(total)
}

// matchingRunes counts the runes covered by matching blocks within
// a[alo:ahi] and b[blo:bhi].
func matchingRunes(a, b []rune, alo, ahi, blo, bhi int) int {
	size, ai, bi := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	matched := size
	matched += matchingRunes(a, b, alo, ai, blo, bi)
	matched += matchingRunes(a, b, ai+size, ahi, bi+size, bhi)
	return matched
}

// longestMatch finds the longest run of identical runes between a[alo:ahi]
// and b[blo:bhi], returning its length and starting offsets. Ties resolve
// to the earliest position in a, then the earliest in b, which keeps block
// selection and therefore the final score deterministic.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (size, ai, bi int) {
	ai, bi = alo, blo
	width := bhi - blo
	prev := make([]int, width+1)
	cur := make([]int, width+1)

	for i := alo; i < ahi; i++ {
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				cur[j-blo+1] = 0
				continue
			}
			run := prev[j-blo] + 1
			cur[j-blo+1] = run
			if run > size {
				size = run
				ai = i - run + 1
				bi = j - run + 1
			}
		}
		prev, cur = cur, prev
	}
	return size, ai, bi
}
