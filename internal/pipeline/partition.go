package pipeline

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"enzclass/domain/core"
	"enzclass/domain/feature"
	"enzclass/domain/label"
)

// SplitConfig defines train/test partitioning parameters
type SplitConfig struct {
	TrainRatio float64 // proportion of rows used for training (0,1)
	Seed       int64   // rng seed; identical seed + input reproduces the split
	Stratified bool    // partition within each class to keep class balance
}

// DefaultSplitConfig returns sensible defaults
func DefaultSplitConfig(seed int64) SplitConfig {
	return SplitConfig{TrainRatio: 0.7, Seed: seed, Stratified: true}
}

// Partition is the outcome of one train/test split. Both sides keep the
// sorted-by-identifier row order and exact matrix/class alignment.
type Partition struct {
	Train        *feature.Matrix
	TrainClasses []label.Class
	Test         *feature.Matrix
	TestClasses  []label.Class
	Seed         int64
	TrainRatio   float64
}

// Split partitions an assembled matrix and its aligned class vector with a
// deterministic seed. Stratified splitting shuffles within each class so
// small classes are not lost to one side; classes with a single member go
// to the training side.
func Split(m *feature.Matrix, y []label.Class, cfg SplitConfig) (*Partition, error) {
	if m == nil || m.NumRows() != len(y) {
		return nil, fmt.Errorf("matrix/class vector misalignment before split")
	}
	n := m.NumRows()
	if n < 2 {
		return nil, core.NewInsufficientDataError(n, label.DistinctClasses(y))
	}
	ratio := cfg.TrainRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.7
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	var trainIdx, testIdx []int
	if cfg.Stratified {
		trainIdx, testIdx = stratifiedIndices(y, ratio, rng)
	} else {
		trainIdx, testIdx = randomIndices(n, ratio, rng)
	}

	// Never let the test side collapse to nothing.
	if len(testIdx) == 0 {
		last := len(trainIdx) - 1
		testIdx = append(testIdx, trainIdx[last])
		trainIdx = trainIdx[:last]
	}
	if len(trainIdx) == 0 {
		return nil, core.NewInsufficientDataError(n, label.DistinctClasses(y))
	}

	train, trainY, err := selectAligned(m, y, trainIdx)
	if err != nil {
		return nil, err
	}
	test, testY, err := selectAligned(m, y, testIdx)
	if err != nil {
		return nil, err
	}

	return &Partition{
		Train:        train,
		TrainClasses: trainY,
		Test:         test,
		TestClasses:  testY,
		Seed:         cfg.Seed,
		TrainRatio:   ratio,
	}, nil
}

// randomIndices performs a simple seeded random partition
func randomIndices(n int, ratio float64, rng *rand.Rand) (train, test []int) {
	idx := rng.Perm(n)
	trainSize := int(math.Round(float64(n) * ratio))
	if trainSize < 1 {
		trainSize = 1
	}
	if trainSize >= n {
		trainSize = n - 1
	}
	return idx[:trainSize], idx[trainSize:]
}

// stratifiedIndices partitions within each class
func stratifiedIndices(y []label.Class, ratio float64, rng *rand.Rand) (train, test []int) {
	byClass := make(map[label.Class][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	// Deterministic class iteration order; map order would leak into the
	// rng stream otherwise.
	classes := make([]label.Class, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	for _, c := range classes {
		members := byClass[c]
		if len(members) < 2 {
			train = append(train, members...)
			continue
		}
		shuffled := append([]int(nil), members...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		size := int(math.Round(float64(len(shuffled)) * ratio))
		if size < 1 {
			size = 1
		}
		if size >= len(shuffled) {
			size = len(shuffled) - 1
		}
		train = append(train, shuffled[:size]...)
		test = append(test, shuffled[size:]...)
	}
	return train, test
}

// selectAligned builds a row-subset matrix and re-aligns the class vector
// to its sorted row order.
func selectAligned(m *feature.Matrix, y []label.Class, indices []int) (*feature.Matrix, []label.Class, error) {
	sub, err := m.SelectRows(indices)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[core.ProteinID]label.Class, m.NumRows())
	for i, id := range m.RowIDs() {
		byID[id] = y[i]
	}
	classes := make([]label.Class, sub.NumRows())
	for i, id := range sub.RowIDs() {
		classes[i] = byID[id]
	}
	return sub, classes, nil
}
