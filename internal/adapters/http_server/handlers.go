package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"extranet/internal/app"
	"extranet/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Catalog *app.CatalogService
	Partner *app.PartnerService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties/{id}/rates", h.getRates)

	s.mux.Route("/v1/partner/properties/{id}", func(r chi.Router) {
		r.Get("/room-types/{rt}/prices", h.listPrices)
		r.Put("/room-types/{rt}/prices", h.saveStdPrices)
		r.Post("/room-types/{rt}/apply-rules", h.applyRules)
		r.Get("/rate-plans", h.listRules)
		r.Put("/rate-plans/{plan}/rule", h.putRule)
	})
}

// ---- wire shapes ----

type cellJSON struct {
	RoomTypeID  int64   `json:"room_type_id"`
	RatePlanID  string  `json:"rate_plan_id"`
	Date        string  `json:"date"`
	Price       *string `json:"price"`
	Unavailable bool    `json:"unavailable"`
	Reason      string  `json:"reason,omitempty"`
}

type ratesResponse struct {
	PropertyID int64      `json:"property_id"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Rates      []cellJSON `json:"rates"`
}

type priceRowJSON struct {
	RoomTypeID int64     `json:"room_type_id"`
	RatePlanID string    `json:"rate_plan_id"`
	Date       string    `json:"date"`
	Price      string    `json:"price"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type skippedJSON struct {
	Date       string `json:"date"`
	RatePlanID string `json:"rate_plan_id"`
	Reason     string `json:"reason"`
}

type saveResponse struct {
	Saved   []priceRowJSON `json:"saved"`
	Skipped []skippedJSON  `json:"skipped"`
}

type stdSaveRequest struct {
	Prices []struct {
		Date  string           `json:"date"`
		Price *decimal.Decimal `json:"price"`
	} `json:"prices"`
}

type applyRulesRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ruleJSON struct {
	RatePlanID string           `json:"rate_plan_id"`
	Kind       string           `json:"kind"`
	Value      *decimal.Decimal `json:"value"`
	Active     *bool            `json:"active"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

func toPriceRows(rows []domain.PriceRow) []priceRowJSON {
	out := make([]priceRowJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, priceRowJSON{
			RoomTypeID: r.RoomTypeID,
			RatePlanID: r.RatePlanID,
			Date:       domain.FormatDate(r.Date),
			Price:      r.Price.StringFixed(2),
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return out
}

func toSaveResponse(res domain.SaveResult) saveResponse {
	out := saveResponse{Saved: toPriceRows(res.Rows), Skipped: make([]skippedJSON, 0, len(res.Skipped))}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, skippedJSON{Date: domain.FormatDate(s.Date), RatePlanID: s.RatePlanID, Reason: s.Reason})
	}
	return out
}

// ---- helpers ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidRule), errors.Is(err, domain.ErrInvalidPrice):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidRequest, name)
	}
	return id, nil
}

func parseIDList(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: bad id %q", domain.ErrInvalidRequest, part)
		}
		out = append(out, id)
	}
	return out, nil
}

func parsePlanList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from and to are required", domain.ErrInvalidRequest)
	}
	f, err := domain.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := domain.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

// ---- catalog ----

func (h *Handlers) getRates(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	from, to, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	rooms, err := parseIDList(q.Get("room_types"))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(rooms) == 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "room_types is required")
		return
	}
	plans := parsePlanList(q.Get("rate_plans"))
	if len(plans) == 0 {
		plans = []string{domain.StdRatePlan}
	}

	req := domain.FillRequest{PropertyID: propertyID, From: from, To: to}
	for _, rt := range rooms {
		for _, p := range plans {
			req.Pairs = append(req.Pairs, domain.RoomRatePair{RoomTypeID: rt, RatePlanID: p})
		}
	}

	m, err := h.Catalog.GetRates(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ratesResponse{
		PropertyID: m.PropertyID,
		From:       domain.FormatDate(m.From),
		To:         domain.FormatDate(m.To),
		Rates:      make([]cellJSON, 0, len(m.Cells)),
	}
	for _, c := range m.Cells {
		cj := cellJSON{RoomTypeID: c.RoomTypeID, RatePlanID: c.RatePlanID, Date: domain.FormatDate(c.Date), Reason: c.Reason}
		if c.Available() {
			s := c.Price.StringFixed(2)
			cj.Price = &s
		} else {
			cj.Unavailable = true
		}
		resp.Rates = append(resp.Rates, cj)
	}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getRates body")
	}
}

// ---- partner ----

func (h *Handlers) listPrices(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	roomTypeID, err := pathID(r, "rt")
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.Partner.ListPrices(r.Context(), propertyID, roomTypeID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": toPriceRows(rows)})
}

func (h *Handlers) saveStdPrices(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	roomTypeID, err := pathID(r, "rt")
	if err != nil {
		writeError(w, err)
		return
	}
	var body stdSaveRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	req := domain.StdSave{PropertyID: propertyID, RoomTypeID: roomTypeID}
	for i, p := range body.Prices {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		if p.Price == nil {
			writeError(w, fmt.Errorf("%w: prices[%d].price is required", domain.ErrInvalidPrice, i))
			return
		}
		req.Prices = append(req.Prices, domain.DatedPrice{Date: d, Price: *p.Price})
	}

	res, err := h.Partner.SaveStdPrices(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaveResponse(res))
}

func (h *Handlers) applyRules(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	roomTypeID, err := pathID(r, "rt")
	if err != nil {
		writeError(w, err)
		return
	}
	var body applyRulesRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	from, to, err := parseRange(body.From, body.To)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Partner.ApplyRules(r.Context(), domain.Rederive{PropertyID: propertyID, RoomTypeID: roomTypeID, From: from, To: to})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaveResponse(res))
}

func (h *Handlers) listRules(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	rules, err := h.Partner.ListRules(r.Context(), propertyID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ruleJSON, 0, len(rules))
	for _, rl := range rules {
		v, active, updated := rl.Value, rl.Active, rl.UpdatedAt
		out = append(out, ruleJSON{RatePlanID: rl.RatePlanID, Kind: string(rl.Kind), Value: &v, Active: &active, UpdatedAt: &updated})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rate_plans": out})
}

func (h *Handlers) putRule(w http.ResponseWriter, r *http.Request) {
	propertyID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	plan := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "plan")))

	var body ruleJSON
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Value == nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "value is required")
		return
	}
	active := true
	if body.Active != nil {
		active = *body.Active
	}

	rule := domain.RatePlanRule{
		PropertyID: propertyID,
		RatePlanID: plan,
		Kind:       domain.RuleKind(strings.ToUpper(body.Kind)),
		Value:      *body.Value,
		Active:     active,
	}
	if err := h.Partner.PutRule(r.Context(), rule); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
