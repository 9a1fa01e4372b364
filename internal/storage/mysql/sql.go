package mysql

// Plain INSERT: a duplicate key (1062) is the "conflict" outcome of
// InsertIfAbsent, so this statement must never carry an ON DUPLICATE clause.
const insertPriceSQL = `
INSERT INTO nightly_prices
  (property_id, room_type_id, rate_plan_id, stay_date, price)
VALUES
  (?, ?, ?, ?, ?)
`

const upsertPriceSQL = `
INSERT INTO nightly_prices
  (property_id, room_type_id, rate_plan_id, stay_date, price)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  price      = VALUES(price),
  updated_at = CURRENT_TIMESTAMP(6)
`

const getPriceSQL = `
SELECT property_id, room_type_id, rate_plan_id, stay_date, price, created_at, updated_at
FROM nightly_prices
WHERE property_id = ? AND room_type_id = ? AND rate_plan_id = ? AND stay_date = ?
`

const listPricesSQL = `
SELECT property_id, room_type_id, rate_plan_id, stay_date, price, created_at, updated_at
FROM nightly_prices
WHERE property_id = ? AND room_type_id = ? AND stay_date BETWEEN ? AND ?
ORDER BY stay_date, rate_plan_id
`

const getRuleSQL = `
SELECT property_id, rate_plan_id, kind, value, active, updated_at
FROM rate_plan_rules
WHERE property_id = ? AND rate_plan_id = ?
`

const listRulesSQL = `
SELECT property_id, rate_plan_id, kind, value, active, updated_at
FROM rate_plan_rules
WHERE property_id = ?
ORDER BY rate_plan_id
`

const upsertRuleSQL = `
INSERT INTO rate_plan_rules
  (property_id, rate_plan_id, kind, value, active)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  kind   = VALUES(kind),
  value  = VALUES(value),
  active = VALUES(active)
`
