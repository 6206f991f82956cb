package textutil

// Jaccard computes |a ∩ b| / |a ∪ b|. Returns 0 if either set is empty.
func Jaccard[T comparable](a, b map[T]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for key := range small {
		if _, ok := large[key]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
