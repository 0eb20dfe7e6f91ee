package pipeline

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of branch predictions resolved.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// StaticBranchPredictor predicts the same direction for every branch.
type StaticBranchPredictor struct {
	taken bool
	stats BranchPredictorStats
}

// NewStaticBranchPredictor creates a predictor that always predicts taken
// or always predicts not taken.
func NewStaticBranchPredictor(taken bool) *StaticBranchPredictor {
	return &StaticBranchPredictor{taken: taken}
}

// Predict returns the fixed prediction.
func (bp *StaticBranchPredictor) Predict() bool {
	return bp.taken
}

// Update records the observed outcome of a branch and reports whether the
// prediction was correct.
func (bp *StaticBranchPredictor) Update(taken bool) bool {
	bp.stats.Predictions++
	if taken == bp.taken {
		bp.stats.Correct++
		return true
	}
	bp.stats.Mispredictions++
	return false
}

// Stats returns the branch predictor statistics.
func (bp *StaticBranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears the statistics. The predicted direction is kept.
func (bp *StaticBranchPredictor) Reset() {
	bp.stats = BranchPredictorStats{}
}
