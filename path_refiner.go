package main

import "math"

// DefaultRefineThreshold is the per-axis noise floor in cm
const DefaultRefineThreshold = 3.0

// RefinePath drops near-duplicate points. The first point is always kept;
// a later point is kept only when it differs from the last kept point by at
// least threshold on either axis. Axes are tested independently, so a short
// diagonal step is dropped even when its Euclidean length exceeds threshold.
func RefinePath(path []RealPoint, threshold float64) RefinedPath {
	if len(path) == 0 {
		return RefinedPath{}
	}

	refined := make(RefinedPath, 0, len(path))
	refined = append(refined, path[0])
	for _, curr := range path[1:] {
		last := refined[len(refined)-1]
		dx := math.Abs(curr.X() - last.X())
		dy := math.Abs(curr.Y() - last.Y())
		if dx < threshold && dy < threshold {
			continue
		}
		refined = append(refined, curr)
	}
	return refined
}
