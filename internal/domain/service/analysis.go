package service

import "MomentumScan/internal/domain/models"

// IndicatorEngine computes moving averages and signal facts. Implementations are pure and perform no I/O.
type IndicatorEngine interface {
	Compute(series models.PriceSeries) models.IndicatorSet
	Evaluate(series models.PriceSeries, ind models.IndicatorSet) models.Signals
}

// Scorer folds signal facts into the composite score.
type Scorer interface {
	Score(sig models.Signals) int
}
