package usecase

import (
	"sort"

	"MomentumScan/internal/domain/models"
)

// ResultAggregator orders results by score descending, then symbol ascending.
type ResultAggregator struct{}

func NewResultAggregator() ResultAggregator { return ResultAggregator{} }

// Rank returns a new ranked slice; the input is left untouched.
func (ResultAggregator) Rank(results []models.AnalysisResult) []models.RankedResult {
	sorted := make([]models.AnalysisResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	out := make([]models.RankedResult, len(sorted))
	for i, r := range sorted {
		out[i] = models.RankedResult{Rank: i + 1, AnalysisResult: r}
	}
	return out
}

// SortFailures orders failures by symbol so reports are reproducible.
func SortFailures(failures []models.AnalysisFailure) []models.AnalysisFailure {
	out := make([]models.AnalysisFailure, len(failures))
	copy(out, failures)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
