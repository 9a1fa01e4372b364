package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"extranet/internal/adapters/observability"
	"extranet/internal/domain"
	"extranet/internal/pricing"
)

// Cell outcomes recorded in metrics for resolved cells.
const (
	outcomeBase         = "base"
	outcomeMaterialized = "materialized"
	outcomeFilled       = "filled"
	outcomeConflict     = "conflict"
)

type EngineConfig struct {
	Window       pricing.Window
	Workers      int // parallel cells per Fill
	MaxRangeDays int
	MaxPairs     int // room type / rate plan pairs per Fill
	Now          func() time.Time
}

// Engine materializes nightly prices. Reads fill missing derived rows
// insert-only; partner saves overwrite. A derived row, once written, is only
// ever replaced by an explicit partner save covering its date.
type Engine struct {
	prices   domain.PriceStore
	rules    domain.RatePlanRegistry
	window   pricing.Window
	workers  int
	maxDays  int
	maxPairs int
	now      func() time.Time
}

func NewEngine(p domain.PriceStore, r domain.RatePlanRegistry, cfg EngineConfig) *Engine {
	e := &Engine{
		prices:   p,
		rules:    r,
		window:   cfg.Window,
		workers:  cfg.Workers,
		maxDays:  cfg.MaxRangeDays,
		maxPairs: cfg.MaxPairs,
		now:      cfg.Now,
	}
	if e.window == (pricing.Window{}) {
		e.window = pricing.DefaultWindow()
	}
	if e.workers <= 0 {
		e.workers = 8
	}
	if e.maxDays <= 0 {
		e.maxDays = 366
	}
	if e.maxPairs <= 0 {
		e.maxPairs = 100
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

func (e *Engine) validateRange(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("%w: to %s is before from %s", domain.ErrInvalidRequest, domain.FormatDate(to), domain.FormatDate(from))
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > e.maxDays {
		return fmt.Errorf("%w: range of %d days exceeds %d", domain.ErrInvalidRequest, days, e.maxDays)
	}
	return nil
}

// Fill resolves every (pair, date) cell of the request. Each cell is
// independent: a cell that cannot be priced comes back with a nil Price and a
// reason, and never fails the batch. Only request validation and context
// cancellation return an error.
func (e *Engine) Fill(ctx context.Context, req domain.FillRequest) (domain.RateMatrix, error) {
	from, to := domain.DateOf(req.From), domain.DateOf(req.To)
	if err := e.validateRange(from, to); err != nil {
		return domain.RateMatrix{}, err
	}
	if len(req.Pairs) == 0 {
		return domain.RateMatrix{}, fmt.Errorf("%w: no room type / rate plan pairs", domain.ErrInvalidRequest)
	}
	if len(req.Pairs) > e.maxPairs {
		return domain.RateMatrix{}, fmt.Errorf("%w: %d room type / rate plan pairs exceeds %d", domain.ErrInvalidRequest, len(req.Pairs), e.maxPairs)
	}

	dates := domain.DatesBetween(from, to)
	now := e.now()
	cells := make([]domain.Cell, len(req.Pairs)*len(dates))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, pair := range req.Pairs {
		for j, date := range dates {
			idx := i*len(dates) + j
			g.Go(func() error {
				cells[idx] = e.fillCell(ctx, req.PropertyID, pair, date, now)
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.RateMatrix{}, err
	}
	return domain.RateMatrix{PropertyID: req.PropertyID, From: from, To: to, Cells: cells}, nil
}

func (e *Engine) fillCell(ctx context.Context, propertyID int64, pair domain.RoomRatePair, date, now time.Time) domain.Cell {
	cell := domain.Cell{RoomTypeID: pair.RoomTypeID, RatePlanID: pair.RatePlanID, Date: date}
	if ctx.Err() != nil {
		cell.Reason = domain.ReasonStoreError
		return cell
	}

	price, outcome, err := e.resolve(ctx, propertyID, pair, date, now)
	if err != nil {
		cell.Reason = domain.ReasonOf(err)
		observability.ObservePriceCell(cell.Reason)
		if cell.Reason == domain.ReasonStoreError && ctx.Err() == nil {
			log.Error().Err(err).
				Int64("property_id", propertyID).
				Int64("room_type_id", pair.RoomTypeID).
				Str("rate_plan", pair.RatePlanID).
				Str("date", domain.FormatDate(date)).
				Msg("price cell failed")
		}
		return cell
	}
	observability.ObservePriceCell(outcome)
	cell.Price = &price
	return cell
}

func (e *Engine) resolve(ctx context.Context, propertyID int64, pair domain.RoomRatePair, date, now time.Time) (decimal.Decimal, string, error) {
	std, err := e.prices.GetPrice(ctx, domain.PriceKey{
		PropertyID: propertyID, RoomTypeID: pair.RoomTypeID, RatePlanID: domain.StdRatePlan, Date: date,
	})
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, "", domain.ErrMissingBasePrice
	}
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("load std price: %w", err)
	}
	if pair.RatePlanID == domain.StdRatePlan {
		return std.Price, outcomeBase, nil
	}

	key := domain.PriceKey{PropertyID: propertyID, RoomTypeID: pair.RoomTypeID, RatePlanID: pair.RatePlanID, Date: date}
	existing, err := e.prices.GetPrice(ctx, key)
	if err == nil {
		// Frozen: never recomputed, whatever the rule says today.
		return existing.Price, outcomeMaterialized, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, "", fmt.Errorf("load derived price: %w", err)
	}

	rule, err := e.rules.GetRule(ctx, propertyID, pair.RatePlanID)
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, "", fmt.Errorf("%w: no rule for %s", domain.ErrInactiveRatePlan, pair.RatePlanID)
	}
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("load rule: %w", err)
	}
	if !rule.Active {
		return decimal.Zero, "", domain.ErrInactiveRatePlan
	}
	if !e.window.IsWritable(date, now) {
		return decimal.Zero, "", domain.ErrOutOfWriteWindow
	}

	derived, err := pricing.Derive(std.Price, rule)
	if err != nil {
		log.Warn().Err(err).
			Int64("property_id", propertyID).
			Int64("room_type_id", pair.RoomTypeID).
			Str("rate_plan", pair.RatePlanID).
			Str("date", domain.FormatDate(date)).
			Msg("derivation rejected")
		return decimal.Zero, "", err
	}

	res, err := e.prices.InsertIfAbsent(ctx, domain.PriceRow{PriceKey: key, Price: derived})
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("insert derived price: %w", err)
	}
	if !res.Inserted {
		// Another writer got there first; its row is the answer.
		return res.Existing.Price, outcomeConflict, nil
	}
	return derived, outcomeFilled, nil
}

// SaveStd overwrites the STD price of every listed date. The write window
// does not apply to partner writes.
func (e *Engine) SaveStd(ctx context.Context, req domain.StdSave) (domain.SaveResult, error) {
	if len(req.Prices) == 0 {
		return domain.SaveResult{}, fmt.Errorf("%w: no prices", domain.ErrInvalidRequest)
	}
	if len(req.Prices) > e.maxDays {
		return domain.SaveResult{}, fmt.Errorf("%w: %d dates exceeds %d", domain.ErrInvalidRequest, len(req.Prices), e.maxDays)
	}

	var res domain.SaveResult
	for _, dp := range req.Prices {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		date := domain.DateOf(dp.Date)
		if err := pricing.ValidatePrice(dp.Price); err != nil {
			reason := domain.ReasonOf(err)
			res.Skipped = append(res.Skipped, domain.SkippedWrite{Date: date, RatePlanID: domain.StdRatePlan, Reason: reason})
			observability.ObservePartnerWrite("std", reason)
			continue
		}
		row, err := e.prices.Upsert(ctx, domain.PriceRow{
			PriceKey: domain.PriceKey{PropertyID: req.PropertyID, RoomTypeID: req.RoomTypeID, RatePlanID: domain.StdRatePlan, Date: date},
			Price:    dp.Price.Round(2),
		})
		if err != nil {
			log.Error().Err(err).Int64("property_id", req.PropertyID).Int64("room_type_id", req.RoomTypeID).
				Str("date", domain.FormatDate(date)).Msg("std upsert failed")
			res.Skipped = append(res.Skipped, domain.SkippedWrite{Date: date, RatePlanID: domain.StdRatePlan, Reason: domain.ReasonStoreError})
			observability.ObservePartnerWrite("std", domain.ReasonStoreError)
			continue
		}
		res.Rows = append(res.Rows, row)
		observability.ObservePartnerWrite("std", "ok")
	}
	return res, nil
}

// ApplyRules re-derives every active derived plan of the room type over
// [From, To] from current STD prices and current rules, overwriting what is
// there. Dates outside the range are left alone.
func (e *Engine) ApplyRules(ctx context.Context, req domain.Rederive) (domain.SaveResult, error) {
	from, to := domain.DateOf(req.From), domain.DateOf(req.To)
	if err := e.validateRange(from, to); err != nil {
		return domain.SaveResult{}, err
	}

	rules, err := e.rules.ListRules(ctx, req.PropertyID)
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("list rules: %w", err)
	}
	var active []domain.RatePlanRule
	for _, r := range rules {
		if r.Active && r.RatePlanID != domain.StdRatePlan {
			active = append(active, r)
		}
	}

	var res domain.SaveResult
	for _, date := range domain.DatesBetween(from, to) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		std, err := e.prices.GetPrice(ctx, domain.PriceKey{
			PropertyID: req.PropertyID, RoomTypeID: req.RoomTypeID, RatePlanID: domain.StdRatePlan, Date: date,
		})
		if errors.Is(err, domain.ErrNotFound) {
			res.Skipped = append(res.Skipped, domain.SkippedWrite{Date: date, RatePlanID: domain.StdRatePlan, Reason: domain.ReasonMissingBasePrice})
			continue
		}
		if err != nil {
			log.Error().Err(err).Int64("property_id", req.PropertyID).Str("date", domain.FormatDate(date)).Msg("load std price failed")
			res.Skipped = append(res.Skipped, domain.SkippedWrite{Date: date, RatePlanID: domain.StdRatePlan, Reason: domain.ReasonStoreError})
			continue
		}

		for _, rule := range active {
			price, err := pricing.Derive(std.Price, rule)
			if err != nil {
				reason := domain.ReasonOf(err)
				res.Skipped = append(res.Skipped, domain.SkippedWrite{Date: date, RatePlanID: rule.RatePlanID, Reason: reason})
				observability.ObservePartnerWrite("rederive", reason)
				continue
			}
			row, err := e.prices.Upsert(ctx, domain.PriceRow{
				PriceKey: domain.PriceKey{PropertyID: req.PropertyID, RoomTypeID: req.RoomTypeID, RatePlanID: rule.RatePlanID, Date: date},
				Price:    price,
			})
			if err != nil {
				log.Error().Err(err).Int64("property_id", req.PropertyID).Str("rate_plan", rule.RatePlanID).
					Str("date", domain.FormatDate(date)).Msg("derived upsert failed")
				res.Skipped = append(res.Skipped, domain.SkippedWrite{Date: date, RatePlanID: rule.RatePlanID, Reason: domain.ReasonStoreError})
				observability.ObservePartnerWrite("rederive", domain.ReasonStoreError)
				continue
			}
			res.Rows = append(res.Rows, row)
			observability.ObservePartnerWrite("rederive", "ok")
		}
	}
	return res, nil
}
