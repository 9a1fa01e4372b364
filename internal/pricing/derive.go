// Package pricing holds the pure pieces of price materialization: the rule
// derivation and the write-window policy. Nothing here performs I/O.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"extranet/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Derive computes a derived nightly price from the STD base price.
//
//	ABSOLUTE: base + value
//	PERCENT:  base * (1 + value/100)
//
// The result is rounded to cents. A negative result is rejected with
// domain.ErrInvalidDerivation; callers must not persist anything in that case.
func Derive(base decimal.Decimal, rule domain.RatePlanRule) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative base price %s", domain.ErrInvalidDerivation, base)
	}

	var d decimal.Decimal
	switch rule.Kind {
	case domain.RuleAbsolute:
		d = base.Add(rule.Value)
	case domain.RulePercent:
		d = base.Mul(hundred.Add(rule.Value)).Div(hundred)
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidRule, rule.Kind)
	}

	d = d.Round(2)
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s %s on %s gives %s",
			domain.ErrInvalidDerivation, rule.Kind, rule.Value, base, d)
	}
	return d, nil
}

// ValidatePrice rejects prices that cannot be stored.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return fmt.Errorf("%w: %s is negative", domain.ErrInvalidPrice, p)
	}
	return nil
}

// ValidateRule checks a rule before it is stored.
func ValidateRule(r domain.RatePlanRule) error {
	if r.RatePlanID == "" {
		return fmt.Errorf("%w: empty rate plan id", domain.ErrInvalidRule)
	}
	if r.RatePlanID == domain.StdRatePlan {
		return fmt.Errorf("%w: %s is the base plan and cannot be derived", domain.ErrInvalidRule, domain.StdRatePlan)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidRule, r.Kind)
	}
	if r.Kind == domain.RulePercent && r.Value.LessThan(hundred.Neg()) {
		return fmt.Errorf("%w: percent below -100", domain.ErrInvalidRule)
	}
	return nil
}
