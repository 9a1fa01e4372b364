package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"extranet/internal/adapters/observability"
	"extranet/internal/domain"
	"extranet/internal/pricing"
)

// PartnerService is the authoritative write side: STD saves, explicit rule
// re-application, rule edits and PMS pulls.
type PartnerService struct {
	engine *Engine
	prices domain.PriceStore
	rules  domain.RatePlanRegistry
	cache  domain.Cache
	events domain.EventPublisher
	pms    domain.PMSClient
}

func NewPartnerService(e *Engine, p domain.PriceStore, r domain.RatePlanRegistry,
	cache domain.Cache, events domain.EventPublisher, pms domain.PMSClient) *PartnerService {
	return &PartnerService{engine: e, prices: p, rules: r, cache: cache, events: events, pms: pms}
}

func (s *PartnerService) SaveStdPrices(ctx context.Context, req domain.StdSave) (domain.SaveResult, error) {
	res, err := s.engine.SaveStd(ctx, req)
	if err != nil {
		return res, err
	}
	if len(res.Rows) > 0 {
		from, to := dateSpan(req.Prices)
		s.afterSave(ctx, req.PropertyID, req.RoomTypeID, "std", from, to, res)
	}
	return res, nil
}

func (s *PartnerService) ApplyRules(ctx context.Context, req domain.Rederive) (domain.SaveResult, error) {
	res, err := s.engine.ApplyRules(ctx, req)
	if err != nil {
		return res, err
	}
	if len(res.Rows) > 0 {
		s.afterSave(ctx, req.PropertyID, req.RoomTypeID, "rederive", req.From, req.To, res)
	}
	return res, nil
}

// PutRule stores a rule. Rows already derived from the previous values are
// left untouched; they change only through ApplyRules.
func (s *PartnerService) PutRule(ctx context.Context, r domain.RatePlanRule) error {
	if err := pricing.ValidateRule(r); err != nil {
		return err
	}
	if err := s.rules.PutRule(ctx, r); err != nil {
		return fmt.Errorf("put rule %s: %w", r.RatePlanID, err)
	}
	// Cached matrices may hold cells that were unavailable under the old rule.
	s.invalidateRates(ctx, r.PropertyID)
	return nil
}

func (s *PartnerService) ListRules(ctx context.Context, propertyID int64) ([]domain.RatePlanRule, error) {
	return s.rules.ListRules(ctx, propertyID)
}

func (s *PartnerService) ListPrices(ctx context.Context, propertyID, roomTypeID int64, from, to time.Time) ([]domain.PriceRow, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if err := s.engine.validateRange(from, to); err != nil {
		return nil, err
	}
	return s.prices.ListPrices(ctx, propertyID, roomTypeID, from, to)
}

// SyncFromPMS pulls STD rates for one mapped room type and saves them as a
// partner write. A PMS that reports the mapping as missing or forbidden is a
// miss, not a failure.
func (s *PartnerService) SyncFromPMS(ctx context.Context, propertyID, roomTypeID int64, from, to time.Time) (domain.SaveResult, error) {
	if s.pms == nil {
		return domain.SaveResult{}, errors.New("pms client not configured")
	}
	payload, err := s.pms.GetStdRates(ctx, propertyID, roomTypeID, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAccessDenied) {
			log.Warn().Err(err).Int64("property_id", propertyID).Int64("room_type_id", roomTypeID).Msg("pms miss")
			return domain.SaveResult{}, nil
		}
		return domain.SaveResult{}, fmt.Errorf("pms rates for %d/%d: %w", propertyID, roomTypeID, err)
	}

	prices, dropped := mapStdRates(payload)
	if dropped > 0 {
		log.Warn().Int64("property_id", propertyID).Int64("room_type_id", roomTypeID).
			Int("dropped", dropped).Msg("pms returned unusable rate entries")
	}
	prices = withinRange(prices, from, to)
	if len(prices) == 0 {
		return domain.SaveResult{}, nil
	}
	return s.SaveStdPrices(ctx, domain.StdSave{PropertyID: propertyID, RoomTypeID: roomTypeID, Prices: prices})
}

func (s *PartnerService) afterSave(ctx context.Context, propertyID, roomTypeID int64, kind string, from, to time.Time, res domain.SaveResult) {
	s.invalidateRates(ctx, propertyID)
	if s.events == nil {
		return
	}
	ev := domain.PricesSavedEvent{
		EventID:    uuid.NewString(),
		PropertyID: propertyID,
		RoomTypeID: roomTypeID,
		Kind:       kind,
		From:       domain.FormatDate(from),
		To:         domain.FormatDate(to),
		Rows:       len(res.Rows),
		Skipped:    len(res.Skipped),
		SavedAt:    time.Now().UTC(),
	}
	err := s.events.PublishPricesSaved(ctx, ev)
	observability.ObserveEvent("prices.saved", err)
	if err != nil {
		// the save itself is committed; consumers can reconcile from the store
		log.Warn().Err(err).Str("event_id", ev.EventID).Msg("publish prices.saved failed")
	}
}

// invalidateRates moves the property to a new cache generation so every
// cached matrix for it is skipped from now on.
func (s *PartnerService) invalidateRates(ctx context.Context, propertyID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, ratesGenKey(propertyID), time.Now().UnixNano(), 0); err != nil {
		log.Warn().Err(err).Int64("property_id", propertyID).Msg("rates cache invalidation failed")
	}
}

func dateSpan(ps []domain.DatedPrice) (from, to time.Time) {
	for i, p := range ps {
		d := domain.DateOf(p.Date)
		if i == 0 || d.Before(from) {
			from = d
		}
		if i == 0 || d.After(to) {
			to = d
		}
	}
	return from, to
}

func withinRange(ps []domain.DatedPrice, from, to time.Time) []domain.DatedPrice {
	from, to = domain.DateOf(from), domain.DateOf(to)
	out := ps[:0]
	for _, p := range ps {
		if d := domain.DateOf(p.Date); !d.Before(from) && !d.After(to) {
			out = append(out, p)
		}
	}
	return out
}
