package model

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART-style classification tree. Fields are
// exported for JSON round-tripping of fitted forests.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Class     int       `json:"class"` // majority class index at a leaf
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// treeBuilder grows one tree over a bootstrap sample
type treeBuilder struct {
	rows       [][]float64
	labels     []int
	numClasses int
	mtry       int
	maxDepth   int
	minLeaf    int
	rng        *rand.Rand

	// impurity-decrease accumulator, one slot per feature column
	importance []float64
	totalRows  int
}

// build grows a tree from the given sample indices
func (b *treeBuilder) build(samples []int, depth int) *treeNode {
	counts := b.classCounts(samples)
	if depth >= b.maxDepth || len(samples) < 2*b.minLeaf || pure(counts) {
		return &treeNode{Leaf: true, Class: majority(counts)}
	}

	featIdx, threshold, gain, ok := b.bestSplit(samples, counts)
	if !ok {
		return &treeNode{Leaf: true, Class: majority(counts)}
	}

	var left, right []int
	for _, i := range samples {
		if b.rows[i][featIdx] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return &treeNode{Leaf: true, Class: majority(counts)}
	}

	// mean-decrease-impurity attribution, weighted by node size
	b.importance[featIdx] += gain * float64(len(samples)) / float64(b.totalRows)

	return &treeNode{
		Feature:   featIdx,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// largest gini impurity decrease.
func (b *treeBuilder) bestSplit(samples []int, parentCounts []int) (feature int, threshold, gain float64, ok bool) {
	parentGini := gini(parentCounts, len(samples))
	numFeatures := len(b.rows[0])
	candidates := b.rng.Perm(numFeatures)[:b.mtry]

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for _, f := range candidates {
		// Sort samples by feature value and scan split points between
		// consecutive distinct values.
		idx := append([]int(nil), samples...)
		sort.Slice(idx, func(i, j int) bool { return b.rows[idx[i]][f] < b.rows[idx[j]][f] })

		leftCounts := make([]int, b.numClasses)
		rightCounts := append([]int(nil), parentCounts...)

		for k := 0; k < len(idx)-1; k++ {
			c := b.labels[idx[k]]
			leftCounts[c]++
			rightCounts[c]--

			v, next := b.rows[idx[k]][f], b.rows[idx[k+1]][f]
			if v == next {
				continue
			}

			nl, nr := k+1, len(idx)-k-1
			weighted := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(len(idx))
			g := parentGini - weighted
			if g > bestGain {
				bestGain = g
				bestFeature = f
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestFeature < 0 || bestGain <= 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

func (b *treeBuilder) classCounts(samples []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range samples {
		counts[b.labels[i]]++
	}
	return counts
}

// predict walks the tree for one feature row
func (n *treeNode) predict(row []float64) int {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

// gini computes the gini impurity of a class count vector
func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	sumSq := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		sumSq += p * p
	}
	return 1 - sumSq
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// majority returns the most frequent class index, breaking ties toward the
// lowest index so predictions stay deterministic.
func majority(counts []int) int {
	best, bestCount := 0, math.MinInt
	for i, c := range counts {
		if c > bestCount {
			best, bestCount = i, c
		}
	}
	return best
}
