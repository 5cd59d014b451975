package scorer

import (
	"math"
	"math/rand"
)

const eulerGamma = 0.5772156649015329

// unsuccessfulSearchLength is c(n), the average path length of an
// unsuccessful BST search over n points. Normalizes raw isolation depths.
func unsuccessfulSearchLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	harmonic := math.Log(float64(n-1)) + eulerGamma
	return 2*harmonic - 2*float64(n-1)/float64(n)
}

// buildTree grows one isolation tree over data[indices] using random splits.
// Growth stops at single points or once the height limit is reached.
func buildTree(rng *rand.Rand, data [][]float64, indices []int, maxDepth int) Tree {
	t := Tree{}
	t.grow(rng, data, indices, 0, maxDepth)
	return t
}

// grow appends the subtree for indices and returns its node index.
func (t *Tree) grow(rng *rand.Rand, data [][]float64, indices []int, depth, maxDepth int) int {
	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Left: -1, Right: -1, Size: len(indices)})

	if len(indices) <= 1 || depth >= maxDepth {
		return self
	}

	dim, lo, hi, ok := pickSplitDimension(rng, data, indices)
	if !ok {
		// All remaining points identical, nothing left to isolate.
		return self
	}

	splitVal := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, idx := range indices {
		if data[idx][dim] < splitVal {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	t.Nodes[self].SplitDim = dim
	t.Nodes[self].SplitVal = splitVal

	leftIdx := t.grow(rng, data, left, depth+1, maxDepth)
	t.Nodes[self].Left = leftIdx
	rightIdx := t.grow(rng, data, right, depth+1, maxDepth)
	t.Nodes[self].Right = rightIdx

	return self
}

// pickSplitDimension chooses uniformly among dimensions that still vary.
func pickSplitDimension(rng *rand.Rand, data [][]float64, indices []int) (dim int, lo, hi float64, ok bool) {
	width := len(data[indices[0]])

	eligible := make([]int, 0, width)
	for d := 0; d < width; d++ {
		min, max := bounds(data, indices, d)
		if max > min {
			eligible = append(eligible, d)
		}
	}
	if len(eligible) == 0 {
		return 0, 0, 0, false
	}

	dim = eligible[rng.Intn(len(eligible))]
	lo, hi = bounds(data, indices, dim)
	return dim, lo, hi, true
}

func bounds(data [][]float64, indices []int, dim int) (min, max float64) {
	min = data[indices[0]][dim]
	max = min
	for _, idx := range indices[1:] {
		v := data[idx][dim]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// pathLength returns the isolation depth of x in t, adjusted for unresolved
// leaves by the average search length over the leaf population.
func (t Tree) pathLength(x []float64) float64 {
	depth := 0
	i := 0
	for {
		node := t.Nodes[i]
		if node.Left < 0 {
			return float64(depth) + unsuccessfulSearchLength(node.Size)
		}
		if x[node.SplitDim] < node.SplitVal {
			i = node.Left
		} else {
			i = node.Right
		}
		depth++
	}
}
