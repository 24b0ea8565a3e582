package similarity

// levenshteinRatio scores by edit distance normalized to the longer name:
// 1 - distance / max(len(a), len(b), 1).
type levenshteinRatio struct{}

func (levenshteinRatio) Algorithm() Algorithm {
	return AlgorithmLevenshteinRatio
}

func (levenshteinRatio) Score(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	longer := max(len(ar), len(br))
	if longer == 0 {
		return 1.0
	}
	distance := levenshteinDistance(ar, br)
	return 1.0 - float64(distance)/float64(longer)
}

// levenshteinDistance computes the minimum number of single-rune inserts,
// deletes, and substitutions to transform a into b, using two rows of the
// dynamic program with the shorter input on the row axis.
func levenshteinDistance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
