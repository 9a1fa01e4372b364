// Package memory is a process-local PriceStore and RatePlanRegistry. It backs
// STORE=memory for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"extranet/internal/domain"
)

type key struct {
	property int64
	room     int64
	plan     string
	date     string
}

func keyOf(k domain.PriceKey) key {
	return key{k.PropertyID, k.RoomTypeID, k.RatePlanID, domain.FormatDate(k.Date)}
}

type ruleKey struct {
	property int64
	plan     string
}

type Store struct {
	mu     sync.RWMutex
	prices map[key]domain.PriceRow
	rules  map[ruleKey]domain.RatePlanRule
	now    func() time.Time
}

func New() *Store {
	return &Store{
		prices: map[key]domain.PriceRow{},
		rules:  map[ruleKey]domain.RatePlanRule{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) GetPrice(_ context.Context, k domain.PriceKey) (domain.PriceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.prices[keyOf(k)]
	if !ok {
		return domain.PriceRow{}, domain.ErrNotFound
	}
	return row, nil
}

func (s *Store) InsertIfAbsent(_ context.Context, row domain.PriceRow) (domain.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(row.PriceKey)
	if existing, ok := s.prices[k]; ok {
		return domain.InsertResult{Inserted: false, Existing: existing}, nil
	}
	ts := s.now()
	row.Date = domain.DateOf(row.Date)
	row.CreatedAt, row.UpdatedAt = ts, ts
	s.prices[k] = row
	return domain.InsertResult{Inserted: true, Existing: row}, nil
}

func (s *Store) Upsert(_ context.Context, row domain.PriceRow) (domain.PriceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := keyOf(row.PriceKey)
	ts := s.now()
	row.Date = domain.DateOf(row.Date)
	row.CreatedAt, row.UpdatedAt = ts, ts
	if existing, ok := s.prices[k]; ok {
		row.CreatedAt = existing.CreatedAt
	}
	s.prices[k] = row
	return row, nil
}

func (s *Store) ListPrices(_ context.Context, propertyID, roomTypeID int64, from, to time.Time) ([]domain.PriceRow, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	s.mu.RLock()
	var out []domain.PriceRow
	for k, row := range s.prices {
		if k.property != propertyID || k.room != roomTypeID {
			continue
		}
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		out = append(out, row)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].RatePlanID < out[j].RatePlanID
	})
	return out, nil
}

func (s *Store) GetRule(_ context.Context, propertyID int64, ratePlanID string) (domain.RatePlanRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleKey{propertyID, ratePlanID}]
	if !ok {
		return domain.RatePlanRule{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListRules(_ context.Context, propertyID int64) ([]domain.RatePlanRule, error) {
	s.mu.RLock()
	var out []domain.RatePlanRule
	for k, r := range s.rules {
		if k.property == propertyID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RatePlanID < out[j].RatePlanID })
	return out, nil
}

func (s *Store) PutRule(_ context.Context, r domain.RatePlanRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = s.now()
	s.rules[ruleKey{r.PropertyID, r.RatePlanID}] = r
	return nil
}
