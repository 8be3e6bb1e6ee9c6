package similarity

import "sort"

// ClusterLabels partitions n items into flat groups using agglomerative
// clustering with average linkage over the given distance matrix. Merging
// stops once no pair of groups has an average distance below threshold;
// the threshold is a fixed parameter, not an automatically chosen cluster
// count.
//
// Labels are deterministic: groups are numbered by the smallest original
// index they contain, and merge ties resolve to the earliest pair in scan
// order, so repeated identical runs produce identical labels.
func ClusterLabels(dist [][]float64, threshold float64) []int {
	n := len(dist)
	if n == 0 {
		return nil
	}

	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}

	for len(groups) > 1 {
		bestA, bestB := -1, -1
		bestDist := threshold

		for a := 0; a < len(groups); a++ {
			for b := a + 1; b < len(groups); b++ {
				d := averageLinkage(dist, groups[a], groups[b])
				if d < bestDist {
					bestDist = d
					bestA, bestB = a, b
				}
			}
		}

		if bestA < 0 {
			break
		}

		groups[bestA] = append(groups[bestA], groups[bestB]...)
		groups = append(groups[:bestB], groups[bestB+1:]...)
	}

	// Number groups by their smallest member index for stable labels.
	for _, g := range groups {
		sort.Ints(g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})

	labels := make([]int, n)
	for label, g := range groups {
		for _, idx := range g {
			labels[idx] = label
		}
	}
	return labels
}

// averageLinkage is the mean pairwise distance between two groups.
func averageLinkage(dist [][]float64, a, b []int) float64 {
	var total float64
	for _, i := range a {
		for _, j := range b {
			total += dist[i][j]
		}
	}
	return total / float64(len(a)*len(b))
}
