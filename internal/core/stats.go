package core

import "sort"

// mean returns the arithmetic mean of vals. ok is false for an empty slice.
func mean(vals []float64) (m float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// median returns the middle value of vals, averaging the two middle values
// for an even count. vals is not modified.
func median(vals []float64) (float64, bool) {
	n := len(vals)
	if n == 0 {
		return 0, false
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// mode returns the most frequent value. Ties go to the value seen first.
func mode[T comparable](vals []T) (T, bool) {
	var best T
	if len(vals) == 0 {
		return best, false
	}

	counts := make(map[T]int, len(vals))
	bestCount := 0
	for _, v := range vals {
		counts[v]++
	}
	// Second pass in input order so the earliest value wins a tie.
	for _, v := range vals {
		if c := counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best, true
}
