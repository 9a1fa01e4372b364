package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StdRatePlan is the base, partner-authored rate plan every derived plan is
// computed from.
const StdRatePlan = "STD"

type RuleKind string

const (
	RuleAbsolute RuleKind = "ABSOLUTE"
	RulePercent  RuleKind = "PERCENT"
)

func (k RuleKind) Valid() bool { return k == RuleAbsolute || k == RulePercent }

type PriceKey struct {
	PropertyID int64
	RoomTypeID int64
	RatePlanID string
	Date       time.Time // UTC midnight, see DateOf
}

// PriceRow is one materialized nightly price.
type PriceRow struct {
	PriceKey
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatePlanRule describes how a derived plan is computed from STD. Rules are
// not versioned and carry no link to the rows derived from them.
type RatePlanRule struct {
	PropertyID int64
	RatePlanID string
	Kind       RuleKind
	Value      decimal.Decimal // signed; -10 with PERCENT is a 10% discount
	Active     bool
	UpdatedAt  time.Time
}

// InsertResult is the outcome of an insert-if-absent. When Inserted is false
// another writer owns the key and Existing holds its row.
type InsertResult struct {
	Inserted bool
	Existing PriceRow
}

type RoomRatePair struct {
	RoomTypeID int64
	RatePlanID string
}

type FillRequest struct {
	PropertyID int64
	Pairs      []RoomRatePair
	From, To   time.Time
}

// Cell is one (room type, rate plan, date) entry of a rate matrix. A nil
// Price means unavailable; Reason says why.
type Cell struct {
	RoomTypeID int64
	RatePlanID string
	Date       time.Time
	Price      *decimal.Decimal
	Reason     string
}

func (c Cell) Available() bool { return c.Price != nil }

type RateMatrix struct {
	PropertyID int64
	From, To   time.Time
	Cells      []Cell
}

type DatedPrice struct {
	Date  time.Time
	Price decimal.Decimal
}

// StdSave overwrites STD prices for the listed dates.
type StdSave struct {
	PropertyID int64
	RoomTypeID int64
	Prices     []DatedPrice
}

// Rederive re-applies the current rules of every active derived plan of a
// room type over [From, To].
type Rederive struct {
	PropertyID int64
	RoomTypeID int64
	From, To   time.Time
}

type SkippedWrite struct {
	Date       time.Time
	RatePlanID string
	Reason     string
}

type SaveResult struct {
	Rows    []PriceRow
	Skipped []SkippedWrite
}

// PricesSavedEvent is published after a partner save touched at least one row.
type PricesSavedEvent struct {
	EventID    string    `json:"event_id"`
	PropertyID int64     `json:"property_id"`
	RoomTypeID int64     `json:"room_type_id"`
	Kind       string    `json:"kind"` // std|rederive
	From       string    `json:"from"`
	To         string    `json:"to"`
	Rows       int       `json:"rows"`
	Skipped    int       `json:"skipped"`
	SavedAt    time.Time `json:"saved_at"`
}
