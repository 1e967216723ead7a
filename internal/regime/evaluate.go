package regime

// DetectionMetrics scores an indicator-based regime prediction against
// objective labels as a binary classification.
type DetectionMetrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	TruePositive  int
	FalsePositive int
	TrueNegative  int
	FalseNegative int
}

// Evaluate compares predicted trending labels against actual ones. Indices
// where valid is false (e.g. indicator or labeling warm-up) are skipped.
// When valid is nil every index is scored.
func Evaluate(actual, predicted []bool, valid []bool) DetectionMetrics {
	var m DetectionMetrics
	total := 0
	for i := range actual {
		if valid != nil && !valid[i] {
			continue
		}
		total++
		switch {
		case actual[i] && predicted[i]:
			m.TruePositive++
		case !actual[i] && predicted[i]:
			m.FalsePositive++
		case !actual[i] && !predicted[i]:
			m.TrueNegative++
		default:
			m.FalseNegative++
		}
	}

	if total > 0 {
		m.Accuracy = float64(m.TruePositive+m.TrueNegative) / float64(total)
	}
	if m.TruePositive+m.FalsePositive > 0 {
		m.Precision = float64(m.TruePositive) / float64(m.TruePositive+m.FalsePositive)
	}
	if m.TruePositive+m.FalseNegative > 0 {
		m.Recall = float64(m.TruePositive) / float64(m.TruePositive+m.FalseNegative)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
