package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	drv "github.com/go-sql-driver/mysql"

	"extranet/internal/domain"
)

const errDupEntry = 1062

type rowScanner interface {
	Scan(dest ...any) error
}

// Repo implements domain.PriceStore and domain.RatePlanRegistry on MySQL.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func isDuplicate(err error) bool {
	var me *drv.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

func scanPrice(s rowScanner) (domain.PriceRow, error) {
	var row domain.PriceRow
	var createdAt, updatedAt sql.NullTime
	if err := s.Scan(
		&row.PropertyID,
		&row.RoomTypeID,
		&row.RatePlanID,
		&row.Date,
		&row.Price,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.PriceRow{}, err
	}
	row.Date = domain.DateOf(row.Date)
	if createdAt.Valid {
		row.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		row.UpdatedAt = updatedAt.Time
	}
	return row, nil
}

func (r *Repo) GetPrice(ctx context.Context, k domain.PriceKey) (domain.PriceRow, error) {
	row, err := scanPrice(r.db.QueryRowContext(ctx, getPriceSQL,
		k.PropertyID, k.RoomTypeID, k.RatePlanID, domain.FormatDate(k.Date)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PriceRow{}, domain.ErrNotFound
		}
		return domain.PriceRow{}, err
	}
	return row, nil
}

func (r *Repo) InsertIfAbsent(ctx context.Context, row domain.PriceRow) (domain.InsertResult, error) {
	_, err := r.db.ExecContext(ctx, insertPriceSQL,
		row.PropertyID, row.RoomTypeID, row.RatePlanID, domain.FormatDate(row.Date), row.Price)
	switch {
	case err == nil:
		stored, gerr := r.GetPrice(ctx, row.PriceKey)
		if gerr != nil {
			return domain.InsertResult{}, fmt.Errorf("read back inserted price: %w", gerr)
		}
		return domain.InsertResult{Inserted: true, Existing: stored}, nil
	case isDuplicate(err):
		existing, gerr := r.GetPrice(ctx, row.PriceKey)
		if gerr != nil {
			return domain.InsertResult{}, fmt.Errorf("read back conflicting price: %w", gerr)
		}
		return domain.InsertResult{Inserted: false, Existing: existing}, nil
	default:
		return domain.InsertResult{}, err
	}
}

func (r *Repo) Upsert(ctx context.Context, row domain.PriceRow) (domain.PriceRow, error) {
	if _, err := r.db.ExecContext(ctx, upsertPriceSQL,
		row.PropertyID, row.RoomTypeID, row.RatePlanID, domain.FormatDate(row.Date), row.Price); err != nil {
		return domain.PriceRow{}, err
	}
	return r.GetPrice(ctx, row.PriceKey)
}

func (r *Repo) ListPrices(ctx context.Context, propertyID, roomTypeID int64, from, to time.Time) ([]domain.PriceRow, error) {
	rows, err := r.db.QueryContext(ctx, listPricesSQL,
		propertyID, roomTypeID, domain.FormatDate(from), domain.FormatDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PriceRow
	for rows.Next() {
		row, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRule(s rowScanner) (domain.RatePlanRule, error) {
	var rule domain.RatePlanRule
	var kind string
	var updatedAt sql.NullTime
	if err := s.Scan(&rule.PropertyID, &rule.RatePlanID, &kind, &rule.Value, &rule.Active, &updatedAt); err != nil {
		return domain.RatePlanRule{}, err
	}
	rule.Kind = domain.RuleKind(kind)
	if updatedAt.Valid {
		rule.UpdatedAt = updatedAt.Time
	}
	return rule, nil
}

func (r *Repo) GetRule(ctx context.Context, propertyID int64, ratePlanID string) (domain.RatePlanRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, getRuleSQL, propertyID, ratePlanID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RatePlanRule{}, domain.ErrNotFound
		}
		return domain.RatePlanRule{}, err
	}
	return rule, nil
}

func (r *Repo) ListRules(ctx context.Context, propertyID int64) ([]domain.RatePlanRule, error) {
	rows, err := r.db.QueryContext(ctx, listRulesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RatePlanRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) PutRule(ctx context.Context, rule domain.RatePlanRule) error {
	_, err := r.db.ExecContext(ctx, upsertRuleSQL,
		rule.PropertyID, rule.RatePlanID, string(rule.Kind), rule.Value, rule.Active)
	return err
}
