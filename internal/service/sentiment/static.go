package sentiment

import (
	"context"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
)

// Static serves a fixed value. It backs offline runs and disabled sentiment.
type Static struct {
	Value  float64
	Rating string
}

var _ repository.SentimentIndexProvider = Static{}

func (s Static) Current(context.Context) (float64, string, error) {
	return clamp(s.Value), s.Rating, nil
}

func (s Static) History(context.Context, repository.Period) ([]models.SentimentPoint, error) {
	return nil, nil
}
