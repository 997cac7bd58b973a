package mcp

// suggestAction returns the known action closest to the unknown input, or ""
// if nothing is close enough. "Close enough" means an edit distance of at
// most 3, which catches common typos (transpositions, dropped characters,
// extra characters).
func suggestAction(unknown string, known []string) string {
	best := ""
	bestDistance := 4

	for _, candidate := range known {
		distance := levenshtein(unknown, candidate)
		if distance < bestDistance {
			bestDistance = distance
			best = candidate
		}
	}
	return best
}

// levenshtein computes the minimum number of single-character edits
// (insertions, deletions, or substitutions) turning one string into the
// other. Single-row variant: O(min(m,n)) space.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := previous[i] + 1
			insertion := current[i-1] + 1
			substitution := previous[i-1] + cost

			current[i] = min(deletion, min(insertion, substitution))
		}
		previous = current
	}
	return previous[len(a)]
}
