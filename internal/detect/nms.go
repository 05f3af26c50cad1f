package detect

import (
	"image"
	"sort"
)

// IoU returns the intersection-over-union of two boxes in [0,1]
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	unionArea := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if unionArea <= 0 {
		return 0
	}
	return interArea / unionArea
}

// SuppressOverlapping performs class-aware non-maximum suppression: sort by
// confidence descending, repeatedly keep the highest-remaining candidate and
// discard every remaining candidate of the same class whose IoU with it
// exceeds the overlap threshold. Candidates of different classes never
// suppress each other.
func SuppressOverlapping(candidates []Detection, iouThreshold float64) []Detection {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]Detection, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	suppressed := make([]bool, len(ordered))
	var kept []Detection

	for i := range ordered {
		if suppressed[i] {
			continue
		}
		kept = append(kept, ordered[i])
		for j := i + 1; j < len(ordered); j++ {
			if suppressed[j] || ordered[j].ClassName != ordered[i].ClassName {
				continue
			}
			if IoU(ordered[i].Box, ordered[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
