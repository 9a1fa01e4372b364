package domain

import (
	"context"
	"time"
)

type PriceStore interface {
	// GetPrice returns ErrNotFound when no row exists for the key.
	GetPrice(ctx context.Context, k PriceKey) (PriceRow, error)
	// InsertIfAbsent never overwrites; a uniqueness conflict yields
	// InsertResult{Inserted: false} carrying the winning row.
	InsertIfAbsent(ctx context.Context, row PriceRow) (InsertResult, error)
	// Upsert is reserved for partner writes.
	Upsert(ctx context.Context, row PriceRow) (PriceRow, error)
	ListPrices(ctx context.Context, propertyID, roomTypeID int64, from, to time.Time) ([]PriceRow, error)
}

type RatePlanRegistry interface {
	// GetRule returns ErrNotFound when the plan has no rule.
	GetRule(ctx context.Context, propertyID int64, ratePlanID string) (RatePlanRule, error)
	ListRules(ctx context.Context, propertyID int64) ([]RatePlanRule, error)
	PutRule(ctx context.Context, r RatePlanRule) error
}

// PMSClient pulls partner-authored STD rates from a property management system.
type PMSClient interface {
	GetStdRates(ctx context.Context, propertyID, roomTypeID int64, from, to time.Time) ([]map[string]any, error)
}

type EventPublisher interface {
	PublishPricesSaved(ctx context.Context, ev PricesSavedEvent) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
