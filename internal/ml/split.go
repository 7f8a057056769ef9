package ml

import "math/rand"

// StratifiedThreeWaySplit partitions row indices into train,
// validation, and test sets while preserving the label ratio in each
// partition. Fractions are of the full set; the remainder after train
// and validation goes to test.
func StratifiedThreeWaySplit(y []int, trainFrac, valFrac float64, seed int64) (train, val, test []int) {
	rng := rand.New(rand.NewSource(seed))

	var pos, neg []int
	for i, label := range y {
		if label == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	rng.Shuffle(len(pos), func(a, b int) { pos[a], pos[b] = pos[b], pos[a] })
	rng.Shuffle(len(neg), func(a, b int) { neg[a], neg[b] = neg[b], neg[a] })

	for _, class := range [][]int{neg, pos} {
		nTrain := int(float64(len(class)) * trainFrac)
		nVal := int(float64(len(class)) * valFrac)
		train = append(train, class[:nTrain]...)
		val = append(val, class[nTrain:nTrain+nVal]...)
		test = append(test, class[nTrain+nVal:]...)
	}
	rng.Shuffle(len(train), func(a, b int) { train[a], train[b] = train[b], train[a] })
	rng.Shuffle(len(val), func(a, b int) { val[a], val[b] = val[b], val[a] })
	rng.Shuffle(len(test), func(a, b int) { test[a], test[b] = test[b], test[a] })
	return train, val, test
}

// Gather selects the given rows of X and y.
func Gather(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}
