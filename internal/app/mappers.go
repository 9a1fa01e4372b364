package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"extranet/internal/domain"
)

// PMS payloads differ per vendor; these aliases are tried in order.
var rateAliases = map[string][]string{
	"date":  {"date", "stay_date", "stayDate", "night", "day"},
	"price": {"price", "amount", "rate", "amount.value", "price.amount", "base_rate"},
}

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstDate: first alias holding a YYYY-MM-DD (or RFC3339) value.
func firstDate(m map[string]any, paths ...string) (time.Time, bool) {
	for _, p := range paths {
		s := strings.TrimSpace(lookupStr(m, p))
		if s == "" {
			continue
		}
		if t, err := domain.ParseDate(s); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return domain.DateOf(t), true
		}
	}
	return time.Time{}, false
}

// decimalFlexible: number from several paths (float64/json.Number/string like "89,50").
func decimalFlexible(m map[string]any, paths ...string) (decimal.Decimal, bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return decimal.NewFromFloat(v), true
		case int:
			return decimal.NewFromInt(int64(v)), true
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d, true
			}
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

// mapStdRates turns PMS rate entries into dated STD prices. Entries without a
// usable date or price are dropped and counted.
func mapStdRates(in []map[string]any) ([]domain.DatedPrice, int) {
	out := make([]domain.DatedPrice, 0, len(in))
	dropped := 0
	for _, r := range in {
		date, ok := firstDate(r, rateAliases["date"]...)
		if !ok {
			dropped++
			continue
		}
		price, ok := decimalFlexible(r, rateAliases["price"]...)
		if !ok {
			dropped++
			continue
		}
		out = append(out, domain.DatedPrice{Date: date, Price: price})
	}
	return out, dropped
}
