package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"extranet/internal/app"
	"extranet/internal/domain"
	"extranet/internal/storage/memory"
)

// ---- fixtures ----

const (
	prop int64 = 1
	room int64 = 7
)

// now is fixed so window checks are deterministic: window is [06-01, 12-03].
var now = time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// countingStore records writes that reach the store.
type countingStore struct {
	*memory.Store
	mu       sync.Mutex
	attempts int
	inserts  int
	upserts  int
}

func (c *countingStore) InsertIfAbsent(ctx context.Context, row domain.PriceRow) (domain.InsertResult, error) {
	res, err := c.Store.InsertIfAbsent(ctx, row)
	c.mu.Lock()
	c.attempts++
	if res.Inserted {
		c.inserts++
	}
	c.mu.Unlock()
	return res, err
}

func (c *countingStore) Upsert(ctx context.Context, row domain.PriceRow) (domain.PriceRow, error) {
	c.mu.Lock()
	c.upserts++
	c.mu.Unlock()
	return c.Store.Upsert(ctx, row)
}

func (c *countingStore) counts() (attempts, inserts, upserts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts, c.inserts, c.upserts
}

func newEngine(st *countingStore) *app.Engine {
	return app.NewEngine(st, st, app.EngineConfig{Now: func() time.Time { return now }, Workers: 4})
}

func setup(t *testing.T) (*app.Engine, *countingStore) {
	t.Helper()
	st := &countingStore{Store: memory.New()}
	return newEngine(st), st
}

// seed writes go straight to the embedded store so they are not counted.
func seedStd(t *testing.T, st *countingStore, roomTypeID int64, date, price string) {
	t.Helper()
	_, err := st.Store.Upsert(context.Background(), domain.PriceRow{
		PriceKey: domain.PriceKey{PropertyID: prop, RoomTypeID: roomTypeID, RatePlanID: domain.StdRatePlan, Date: day(date)},
		Price:    dec(price),
	})
	require.NoError(t, err)
}

func seedRule(t *testing.T, st *countingStore, plan string, kind domain.RuleKind, value string, active bool) {
	t.Helper()
	require.NoError(t, st.Store.PutRule(context.Background(), domain.RatePlanRule{
		PropertyID: prop, RatePlanID: plan, Kind: kind, Value: dec(value), Active: active,
	}))
}

func fill(t *testing.T, e *app.Engine, from, to string, pairs ...domain.RoomRatePair) domain.RateMatrix {
	t.Helper()
	m, err := e.Fill(context.Background(), domain.FillRequest{PropertyID: prop, Pairs: pairs, From: day(from), To: day(to)})
	require.NoError(t, err)
	return m
}

func pair(roomTypeID int64, plan string) domain.RoomRatePair {
	return domain.RoomRatePair{RoomTypeID: roomTypeID, RatePlanID: plan}
}

func cellAt(t *testing.T, m domain.RateMatrix, roomTypeID int64, plan, date string) domain.Cell {
	t.Helper()
	for _, c := range m.Cells {
		if c.RoomTypeID == roomTypeID && c.RatePlanID == plan && domain.FormatDate(c.Date) == date {
			return c
		}
	}
	require.FailNowf(t, "missing cell", "%d/%s/%s", roomTypeID, plan, date)
	return domain.Cell{}
}

func assertPrice(t *testing.T, c domain.Cell, want string) {
	t.Helper()
	require.NotNil(t, c.Price, "cell %s/%s unavailable: %s", c.RatePlanID, domain.FormatDate(c.Date), c.Reason)
	assert.True(t, dec(want).Equal(*c.Price), "want %s got %s", want, c.Price)
	assert.Empty(t, c.Reason)
}

func assertUnavailable(t *testing.T, c domain.Cell, reason string) {
	t.Helper()
	assert.Nil(t, c.Price)
	assert.Equal(t, reason, c.Reason)
}

func storedPrice(t *testing.T, st *countingStore, roomTypeID int64, plan, date string) (decimal.Decimal, bool) {
	t.Helper()
	row, err := st.GetPrice(context.Background(), domain.PriceKey{PropertyID: prop, RoomTypeID: roomTypeID, RatePlanID: plan, Date: day(date)})
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, false
	}
	require.NoError(t, err)
	return row.Price, true
}

// ---- fill path ----

func TestFill_DerivesOnceAndIsIdempotent(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)

	m := fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-05"), "110")

	m2 := fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	assertPrice(t, cellAt(t, m2, room, "BB", "2025-06-05"), "110")

	attempts, inserts, upserts := st.counts()
	assert.Equal(t, 1, attempts, "second fill must not try to write")
	assert.Equal(t, 1, inserts)
	assert.Equal(t, 0, upserts)
}

func TestFill_PercentDerivation(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")
	seedRule(t, st, "NR", domain.RulePercent, "-10", true)

	m := fill(t, e, "2025-06-05", "2025-06-05", pair(room, "NR"))
	assertPrice(t, cellAt(t, m, room, "NR", "2025-06-05"), "90")
}

func TestFill_NeverWritesStd(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-04", "100")
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)

	m := fill(t, e, "2025-06-04", "2025-06-06", pair(room, domain.StdRatePlan), pair(room, "BB"))

	assertPrice(t, cellAt(t, m, room, domain.StdRatePlan, "2025-06-04"), "100")
	assertUnavailable(t, cellAt(t, m, room, domain.StdRatePlan, "2025-06-05"), domain.ReasonMissingBasePrice)
	assertUnavailable(t, cellAt(t, m, room, "BB", "2025-06-06"), domain.ReasonMissingBasePrice)

	p, ok := storedPrice(t, st, room, domain.StdRatePlan, "2025-06-04")
	require.True(t, ok)
	assert.True(t, dec("100").Equal(p))
	for _, d := range []string{"2025-06-05", "2025-06-06"} {
		_, ok := storedPrice(t, st, room, domain.StdRatePlan, d)
		assert.False(t, ok, "fill created a STD row for %s", d)
	}
	_, inserts, upserts := st.counts()
	assert.Equal(t, 1, inserts, "only the BB row for 06-04")
	assert.Equal(t, 0, upserts)
}

func TestFill_InactiveOrMissingRule(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")
	seedRule(t, st, "NR", domain.RulePercent, "-10", false)

	m := fill(t, e, "2025-06-05", "2025-06-05", pair(room, "NR"), pair(room, "HB"))
	assertUnavailable(t, cellAt(t, m, room, "NR", "2025-06-05"), domain.ReasonInactiveRatePlan)
	assertUnavailable(t, cellAt(t, m, room, "HB", "2025-06-05"), domain.ReasonInactiveRatePlan)

	attempts, _, _ := st.counts()
	assert.Zero(t, attempts)
}

func TestFill_WindowBoundary(t *testing.T) {
	e, st := setup(t)
	for _, d := range []string{"2025-05-31", "2025-06-01", "2025-06-02", "2025-12-03", "2025-12-04"} {
		seedStd(t, st, room, d, "100")
	}
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)

	m := fill(t, e, "2025-05-31", "2025-06-02", pair(room, "BB"))
	assertUnavailable(t, cellAt(t, m, room, "BB", "2025-05-31"), domain.ReasonOutOfWriteWindow) // now - 3 days
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-01"), "110")                               // now - 2 days
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-02"), "110")                               // now - 1 day

	m = fill(t, e, "2025-12-03", "2025-12-04", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-12-03"), "110")
	assertUnavailable(t, cellAt(t, m, room, "BB", "2025-12-04"), domain.ReasonOutOfWriteWindow)

	_, ok := storedPrice(t, st, room, "BB", "2025-05-31")
	assert.False(t, ok)
	_, ok = storedPrice(t, st, room, "BB", "2025-12-04")
	assert.False(t, ok)
}

func TestFill_OutOfWindowStillServesMaterializedRows(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-05-20", "100")
	_, err := st.Store.Upsert(context.Background(), domain.PriceRow{
		PriceKey: domain.PriceKey{PropertyID: prop, RoomTypeID: room, RatePlanID: "BB", Date: day("2025-05-20")},
		Price:    dec("105"),
	})
	require.NoError(t, err)
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", false)

	m := fill(t, e, "2025-05-20", "2025-05-20", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-05-20"), "105")
}

func TestFill_InvalidDerivationWritesNothing(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "50")
	seedRule(t, st, "NR", domain.RulePercent, "-200", true)

	m := fill(t, e, "2025-06-05", "2025-06-05", pair(room, "NR"))
	assertUnavailable(t, cellAt(t, m, room, "NR", "2025-06-05"), domain.ReasonInvalidDerivation)

	_, ok := storedPrice(t, st, room, "NR", "2025-06-05")
	assert.False(t, ok)
	attempts, _, _ := st.counts()
	assert.Zero(t, attempts)
}

func TestFill_StaleRowsSurviveRuleChange(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)

	m := fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-05"), "110")

	seedRule(t, st, "BB", domain.RuleAbsolute, "20", true)
	m = fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-05"), "110")

	// STD moving alone does not reprice either.
	seedStd(t, st, room, "2025-06-05", "200")
	m = fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-05"), "110")

	_, err := e.ApplyRules(context.Background(), domain.Rederive{PropertyID: prop, RoomTypeID: room, From: day("2025-06-05"), To: day("2025-06-05")})
	require.NoError(t, err)
	m = fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-05"), "220")
}

func TestFill_ConcurrentCallersConverge(t *testing.T) {
	_, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]domain.RateMatrix, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = newEngine(st).Fill(context.Background(), domain.FillRequest{
				PropertyID: prop, Pairs: []domain.RoomRatePair{pair(room, "BB")}, From: day("2025-06-05"), To: day("2025-06-05"),
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assertPrice(t, cellAt(t, results[i], room, "BB", "2025-06-05"), "110")
	}
	_, inserts, _ := st.counts()
	assert.Equal(t, 1, inserts)

	rows, err := st.ListPrices(context.Background(), prop, room, day("2025-06-05"), day("2025-06-05"))
	require.NoError(t, err)
	assert.Len(t, rows, 2) // STD + one BB
}

// racingStore lets another writer win every insert just before ours lands.
type racingStore struct{ *memory.Store }

func (r *racingStore) InsertIfAbsent(ctx context.Context, row domain.PriceRow) (domain.InsertResult, error) {
	winner := row
	winner.Price = dec("111")
	if _, err := r.Store.InsertIfAbsent(ctx, winner); err != nil {
		return domain.InsertResult{}, err
	}
	return r.Store.InsertIfAbsent(ctx, row)
}

func TestFill_LostInsertReturnsWinner(t *testing.T) {
	st := &racingStore{Store: memory.New()}
	ctx := context.Background()
	_, err := st.Upsert(ctx, domain.PriceRow{
		PriceKey: domain.PriceKey{PropertyID: prop, RoomTypeID: room, RatePlanID: domain.StdRatePlan, Date: day("2025-06-05")},
		Price:    dec("100"),
	})
	require.NoError(t, err)
	require.NoError(t, st.PutRule(ctx, domain.RatePlanRule{PropertyID: prop, RatePlanID: "BB", Kind: domain.RuleAbsolute, Value: dec("10"), Active: true}))

	e := app.NewEngine(st, st, app.EngineConfig{Now: func() time.Time { return now }})
	m, err := e.Fill(ctx, domain.FillRequest{PropertyID: prop, Pairs: []domain.RoomRatePair{pair(room, "BB")}, From: day("2025-06-05"), To: day("2025-06-05")})
	require.NoError(t, err)
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-05"), "111")
}

// flakyStore fails every read for one room type.
type flakyStore struct {
	*memory.Store
	failRoom int64
}

func (f *flakyStore) GetPrice(ctx context.Context, k domain.PriceKey) (domain.PriceRow, error) {
	if k.RoomTypeID == f.failRoom {
		return domain.PriceRow{}, errors.New("connection reset")
	}
	return f.Store.GetPrice(ctx, k)
}

func TestFill_StoreErrorStaysInItsCell(t *testing.T) {
	st := &flakyStore{Store: memory.New(), failRoom: 8}
	ctx := context.Background()
	_, err := st.Upsert(ctx, domain.PriceRow{
		PriceKey: domain.PriceKey{PropertyID: prop, RoomTypeID: room, RatePlanID: domain.StdRatePlan, Date: day("2025-06-05")},
		Price:    dec("100"),
	})
	require.NoError(t, err)

	e := app.NewEngine(st, st, app.EngineConfig{Now: func() time.Time { return now }})
	m, err := e.Fill(ctx, domain.FillRequest{
		PropertyID: prop,
		Pairs:      []domain.RoomRatePair{pair(room, domain.StdRatePlan), pair(8, domain.StdRatePlan)},
		From:       day("2025-06-05"), To: day("2025-06-05"),
	})
	require.NoError(t, err)
	assertPrice(t, cellAt(t, m, room, domain.StdRatePlan, "2025-06-05"), "100")
	assertUnavailable(t, cellAt(t, m, 8, domain.StdRatePlan, "2025-06-05"), domain.ReasonStoreError)
}

func TestFill_MatrixShape(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")

	m := fill(t, e, "2025-06-05", "2025-06-07", pair(room, domain.StdRatePlan), pair(9, domain.StdRatePlan))
	require.Len(t, m.Cells, 6)
	assert.Equal(t, "2025-06-05", domain.FormatDate(m.From))
	assert.Equal(t, "2025-06-07", domain.FormatDate(m.To))
	assert.Equal(t, room, m.Cells[0].RoomTypeID)
	assert.Equal(t, "2025-06-07", domain.FormatDate(m.Cells[2].Date))
	assert.Equal(t, int64(9), m.Cells[3].RoomTypeID)
	assert.Equal(t, "2025-06-05", domain.FormatDate(m.Cells[3].Date))
}

func TestFill_RejectsBadRequests(t *testing.T) {
	e, _ := setup(t)
	ctx := context.Background()
	pairs := []domain.RoomRatePair{pair(room, "BB")}

	_, err := e.Fill(ctx, domain.FillRequest{PropertyID: prop, Pairs: pairs, From: day("2025-06-05"), To: day("2025-06-04")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = e.Fill(ctx, domain.FillRequest{PropertyID: prop, From: day("2025-06-05"), To: day("2025-06-05")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = e.Fill(ctx, domain.FillRequest{PropertyID: prop, Pairs: pairs, From: day("2025-01-01"), To: day("2026-03-01")})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestFill_CancelledContext(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Fill(ctx, domain.FillRequest{PropertyID: prop, Pairs: []domain.RoomRatePair{pair(room, "STD")}, From: day("2025-06-05"), To: day("2025-06-05")})
	assert.ErrorIs(t, err, context.Canceled)
}

// ---- partner path ----

func TestSaveStd_IgnoresWriteWindowAndOverwrites(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "100")

	res, err := e.SaveStd(context.Background(), domain.StdSave{
		PropertyID: prop, RoomTypeID: room,
		Prices: []domain.DatedPrice{
			{Date: day("2025-06-05"), Price: dec("120")},
			{Date: day("2024-01-01"), Price: dec("80.555")},
			{Date: day("2027-01-01"), Price: dec("90")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	assert.Empty(t, res.Skipped)

	p, _ := storedPrice(t, st, room, domain.StdRatePlan, "2025-06-05")
	assert.True(t, dec("120").Equal(p))
	p, _ = storedPrice(t, st, room, domain.StdRatePlan, "2024-01-01")
	assert.True(t, dec("80.56").Equal(p), "rounded to cents, got %s", p)
	_, ok := storedPrice(t, st, room, domain.StdRatePlan, "2027-01-01")
	assert.True(t, ok)
}

func TestSaveStd_RejectsNegativePerDate(t *testing.T) {
	e, st := setup(t)
	res, err := e.SaveStd(context.Background(), domain.StdSave{
		PropertyID: prop, RoomTypeID: room,
		Prices: []domain.DatedPrice{
			{Date: day("2025-06-05"), Price: dec("-1")},
			{Date: day("2025-06-06"), Price: dec("100")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, domain.ReasonInvalidPrice, res.Skipped[0].Reason)
	assert.Equal(t, "2025-06-05", domain.FormatDate(res.Skipped[0].Date))
	assert.Len(t, res.Rows, 1)
	_, ok := storedPrice(t, st, room, domain.StdRatePlan, "2025-06-05")
	assert.False(t, ok)

	_, err = e.SaveStd(context.Background(), domain.StdSave{PropertyID: prop, RoomTypeID: room})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestApplyRules_OnlyTouchesRequestedRange(t *testing.T) {
	e, st := setup(t)
	for _, d := range []string{"2025-06-01", "2025-06-02", "2025-06-04", "2025-06-05", "2025-06-10"} {
		seedStd(t, st, room, d, "100")
	}
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)
	seedRule(t, st, "NR", domain.RulePercent, "-10", false)

	m := fill(t, e, "2025-06-10", "2025-06-10", pair(room, "BB"))
	assertPrice(t, cellAt(t, m, room, "BB", "2025-06-10"), "110")

	seedRule(t, st, "BB", domain.RuleAbsolute, "20", true)
	res, err := e.ApplyRules(context.Background(), domain.Rederive{
		PropertyID: prop, RoomTypeID: room, From: day("2025-06-01"), To: day("2025-06-05"),
	})
	require.NoError(t, err)

	assert.Len(t, res.Rows, 4)
	for _, r := range res.Rows {
		assert.Equal(t, "BB", r.RatePlanID, "inactive plans are not re-derived")
		assert.True(t, dec("120").Equal(r.Price))
	}
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "2025-06-03", domain.FormatDate(res.Skipped[0].Date))
	assert.Equal(t, domain.ReasonMissingBasePrice, res.Skipped[0].Reason)

	p, ok := storedPrice(t, st, room, "BB", "2025-06-10")
	require.True(t, ok)
	assert.True(t, dec("110").Equal(p), "date outside the saved range must keep its value")

	_, ok = storedPrice(t, st, room, "BB", "2025-06-03")
	assert.False(t, ok)
	_, ok = storedPrice(t, st, room, "NR", "2025-06-01")
	assert.False(t, ok)
}

func TestApplyRules_IgnoresWriteWindowAndOverwritesFilledRows(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-05-01", "100") // well before the window
	seedStd(t, st, room, "2025-06-05", "100")
	seedRule(t, st, "BB", domain.RuleAbsolute, "10", true)

	fill(t, e, "2025-06-05", "2025-06-05", pair(room, "BB"))
	seedStd(t, st, room, "2025-06-05", "150")

	res, err := e.ApplyRules(context.Background(), domain.Rederive{PropertyID: prop, RoomTypeID: room, From: day("2025-05-01"), To: day("2025-05-01")})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.True(t, dec("110").Equal(res.Rows[0].Price))

	res, err = e.ApplyRules(context.Background(), domain.Rederive{PropertyID: prop, RoomTypeID: room, From: day("2025-06-05"), To: day("2025-06-05")})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	p, _ := storedPrice(t, st, room, "BB", "2025-06-05")
	assert.True(t, dec("160").Equal(p))
}

func TestApplyRules_InvalidDerivationIsReportedPerDate(t *testing.T) {
	e, st := setup(t)
	seedStd(t, st, room, "2025-06-05", "50")
	seedStd(t, st, room, "2025-06-06", "500")
	seedRule(t, st, "LM", domain.RuleAbsolute, "-100", true)

	res, err := e.ApplyRules(context.Background(), domain.Rederive{PropertyID: prop, RoomTypeID: room, From: day("2025-06-05"), To: day("2025-06-06")})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, domain.SkippedWrite{Date: day("2025-06-05"), RatePlanID: "LM", Reason: domain.ReasonInvalidDerivation}, res.Skipped[0])
	require.Len(t, res.Rows, 1)
	assert.True(t, dec("400").Equal(res.Rows[0].Price))
}

func TestFill_RejectsTooManyPairs(t *testing.T) {
	st := &countingStore{Store: memory.New()}
	e := app.NewEngine(st, st, app.EngineConfig{Now: func() time.Time { return now }, MaxPairs: 2})

	_, err := e.Fill(context.Background(), domain.FillRequest{
		PropertyID: prop,
		Pairs:      []domain.RoomRatePair{pair(7, "STD"), pair(7, "BB"), pair(8, "STD")},
		From:       day("2025-06-05"), To: day("2025-06-05"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = e.Fill(context.Background(), domain.FillRequest{
		PropertyID: prop,
		Pairs:      []domain.RoomRatePair{pair(7, "STD"), pair(7, "BB")},
		From:       day("2025-06-05"), To: day("2025-06-05"),
	})
	assert.NoError(t, err)
	attempts, _, _ := st.counts()
	assert.Zero(t, attempts)
}
