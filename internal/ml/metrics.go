package ml

// ConfusionMatrix counts binary prediction outcomes.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// Confusion tallies predicted probabilities (threshold 0.5) against
// ground-truth binary labels.
func Confusion(yTrue []int, probs []float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i := range yTrue {
		actual := yTrue[i] == 1
		predicted := probs[i] >= 0.5
		switch {
		case actual && predicted:
			cm.TruePositives++
		case !actual && !predicted:
			cm.TrueNegatives++
		case !actual && predicted:
			cm.FalsePositives++
		default:
			cm.FalseNegatives++
		}
	}
	return cm
}

// Accuracy is the fraction of correct predictions.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.TruePositives + cm.TrueNegatives + cm.FalsePositives + cm.FalseNegatives
	if total == 0 {
		return 0
	}
	return float64(cm.TruePositives+cm.TrueNegatives) / float64(total)
}

// Precision is TP / (TP + FP), zero when nothing was predicted positive.
func (cm ConfusionMatrix) Precision() float64 {
	denom := cm.TruePositives + cm.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositives) / float64(denom)
}

// Recall is TP / (TP + FN), zero when no positives exist.
func (cm ConfusionMatrix) Recall() float64 {
	denom := cm.TruePositives + cm.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositives) / float64(denom)
}

// F1 is the harmonic mean of precision and recall.
func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
