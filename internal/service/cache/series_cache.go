package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	applogger "MomentumScan/pkg/logger"
)

// SeriesCache memoizes a PriceSeriesProvider. Cache failures are logged and fall through to
// the wrapped provider.
type SeriesCache struct {
	next   repository.PriceSeriesProvider
	store  BytesCache
	ttl    time.Duration
	logger *applogger.Logger
}

var _ repository.PriceSeriesProvider = (*SeriesCache)(nil)

func NewSeriesCache(next repository.PriceSeriesProvider, store BytesCache, ttl time.Duration, logger *applogger.Logger) *SeriesCache {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &SeriesCache{next: next, store: store, ttl: ttl, logger: logger}
}

func seriesKey(symbol string, period repository.Period) string {
	return fmt.Sprintf("series:%s:%s", strings.ToUpper(symbol), period)
}

func (c *SeriesCache) Fetch(ctx context.Context, symbol string, period repository.Period) (models.PriceSeries, error) {
	key := seriesKey(symbol, period)
	if b, ok, err := c.store.GetBytes(ctx, key); err != nil {
		c.logger.Warn("series cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		var s models.PriceSeries
		if err := json.Unmarshal(b, &s); err == nil && s.Len() > 0 {
			return s, nil
		}
	}

	s, err := c.next.Fetch(ctx, symbol, period)
	if err != nil {
		return s, err
	}
	if s.Len() == 0 {
		return s, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return s, nil
	}
	if err := c.store.SetBytes(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("series cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return s, nil
}
