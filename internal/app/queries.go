package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"extranet/internal/domain"
)

// CatalogService serves traveler-facing rate reads. Matrices are cached per
// property generation; any partner write bumps the generation.
type CatalogService struct {
	engine *Engine
	cache  domain.Cache
	ttlSec int // 0 disables caching
}

// NewCatalogService rounds ttl up to whole seconds; a cache TTL of 0 would
// never expire.
func NewCatalogService(e *Engine, c domain.Cache, ttl time.Duration) *CatalogService {
	s := &CatalogService{engine: e, cache: c}
	if ttl > 0 {
		s.ttlSec = int(math.Ceil(ttl.Seconds()))
	}
	return s
}

func ratesGenKey(propertyID int64) string { return fmt.Sprintf("rates:gen:%d", propertyID) }

func ratesKey(req domain.FillRequest, gen int64) string {
	var b strings.Builder
	for _, p := range req.Pairs {
		fmt.Fprintf(&b, "%d/%s,", p.RoomTypeID, p.RatePlanID)
	}
	sum := sha1.Sum([]byte(b.String()))
	return fmt.Sprintf("rates:%d:%d:%s:%s:%s", req.PropertyID, gen,
		domain.FormatDate(req.From), domain.FormatDate(req.To), hex.EncodeToString(sum[:8]))
}

func (s *CatalogService) generation(ctx context.Context, propertyID int64) int64 {
	var gen int64
	if ok, _ := s.cache.Get(ctx, ratesGenKey(propertyID), &gen); !ok {
		return 0
	}
	return gen
}

func (s *CatalogService) GetRates(ctx context.Context, req domain.FillRequest) (domain.RateMatrix, error) {
	if s.cache == nil || s.ttlSec <= 0 {
		return s.engine.Fill(ctx, req)
	}

	key := ratesKey(req, s.generation(ctx, req.PropertyID))
	var m domain.RateMatrix
	if ok, _ := s.cache.Get(ctx, key, &m); ok {
		return m, nil
	}

	m, err := s.engine.Fill(ctx, req)
	if err != nil {
		return domain.RateMatrix{}, err
	}
	if cacheable(m) {
		_ = s.cache.Set(ctx, key, m, s.ttlSec)
	}
	return m, nil
}

// cacheable reports whether every cell is a stable answer. Store errors are
// transient and must be retried on the next read.
func cacheable(m domain.RateMatrix) bool {
	for _, c := range m.Cells {
		if c.Reason == domain.ReasonStoreError {
			return false
		}
	}
	return true
}
