package repository

import (
	"context"

	"MomentumScan/internal/domain/models"
)

// NoopStore is used when persistence is disabled.
type NoopStore struct{}

func (NoopStore) SaveReport(context.Context, *models.ScreenReport) error { return nil }
func (NoopStore) Health(context.Context) error { return nil }
func (NoopStore) Close() error { return nil }

// NoopPublisher is used when publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishReport(context.Context, *models.ScreenReport) error { return nil }
func (NoopPublisher) Close() error { return nil }
