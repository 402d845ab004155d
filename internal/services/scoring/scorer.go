package scoring

import (
	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/service"
)

// PointsPerFlag is the weight of every signal flag.
const PointsPerFlag = 25

// Scorer implements service.Scorer with the fixed 25 point rubric.
type Scorer struct{}

var _ service.Scorer = Scorer{}

func New() Scorer { return Scorer{} }

func (Scorer) Score(sig models.Signals) int {
	return PointsPerFlag * sig.FlagCount()
}

// Badge maps a score to the display class used by dashboards.
func Badge(score int) string {
	switch {
	case score >= 75:
		return "success"
	case score >= 50:
		return "warning"
	default:
		return "danger"
	}
}
