package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
)

// ReportCache stores the latest ScreenReport per market and period as JSON.
type ReportCache struct {
	store BytesCache
}

var _ repository.ReportCache = (*ReportCache)(nil)

func NewReportCache(store BytesCache) *ReportCache {
	return &ReportCache{store: store}
}

func reportKey(market string, period repository.Period) string {
	return fmt.Sprintf("report:%s:%s", strings.ToLower(market), period)
}

func (c *ReportCache) GetLatest(ctx context.Context, market string, period repository.Period) (*models.ScreenReport, bool, error) {
	b, ok, err := c.store.GetBytes(ctx, reportKey(market, period))
	if err != nil || !ok {
		return nil, false, err
	}
	var r models.ScreenReport
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &r, true, nil
}

func (c *ReportCache) SetLatest(ctx context.Context, r *models.ScreenReport, ttl time.Duration) error {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return c.store.SetBytes(ctx, reportKey(r.Market, repository.Period(r.Period)), b, ttl)
}
