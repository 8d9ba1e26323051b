package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"ltv-analytics/pkg/models"
)

// DefaultTable is the order table read by Store.
const DefaultTable = "orders"

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Store reads order records from a SQL order table:
//
//	orders(customer_key, occurred_at, amount, agent_id, line_items JSON)
type Store struct {
	db     *sqlx.DB
	table  string
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the order table name.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// WithLogger sets the logger used for malformed rows.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore wraps an open connection.
func NewStore(db *sqlx.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, table: DefaultTable, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNameRe.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	return s, nil
}

type orderRow struct {
	CustomerKey sql.NullString `db:"customer_key"`
	OccurredAt  time.Time      `db:"occurred_at"`
	Amount      float64        `db:"amount"`
	Assisted    bool           `db:"assisted"`
	LineItems   sql.NullString `db:"line_items"`
}

// FetchOrders returns the orders matching filter, in no particular order.
// Rows whose customer key normalizes to empty are skipped.
func (s *Store) FetchOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderRecord, error) {
	q := fmt.Sprintf(`
		SELECT
			o.customer_key,
			o.occurred_at,
			COALESCE(o.amount, 0) AS amount,
			o.agent_id IS NOT NULL AS assisted,
			o.line_items
		FROM %s o
		WHERE o.customer_key IS NOT NULL AND o.customer_key <> ''`, s.table)

	var args []any
	if !filter.From.IsZero() {
		q += ` AND o.occurred_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q += ` AND o.occurred_at <= ?`
		args = append(args, filter.To.UTC())
	}
	if len(filter.CustomerKeys) > 0 {
		q += ` AND o.customer_key IN (?)`
		args = append(args, filter.CustomerKeys)
		var err error
		q, args, err = sqlx.In(q, args...)
		if err != nil {
			return nil, fmt.Errorf("expand customer keys: %w", err)
		}
	}
	q = s.db.Rebind(q)

	rows, err := s.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []models.OrderRecord
	for rows.Next() {
		var r orderRow
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		key := NormalizeCustomerKey(r.CustomerKey.String)
		if key == "" {
			continue
		}
		amount := r.Amount
		if amount < 0 {
			amount = 0
		}
		out = append(out, models.OrderRecord{
			CustomerKey:   key,
			OccurredAt:    r.OccurredAt,
			Amount:        amount,
			AgentAssisted: r.Assisted,
			LineItems:     s.parseLineItems(key, r.LineItems),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	return out, nil
}

// parseLineItems reads the optional "duration" of every element of the
// line_items JSON array.
func (s *Store) parseLineItems(key string, raw sql.NullString) []models.LineItem {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	if !gjson.Valid(raw.String) {
		s.logger.Debug("malformed line_items", zap.String("customer_key", key), zap.String("raw", raw.String))
		return nil
	}
	parsed := gjson.Parse(raw.String)
	if !parsed.IsArray() {
		return nil
	}
	items := parsed.Array()
	out := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		var li models.LineItem
		if d := item.Get("duration"); d.Type == gjson.String {
			spec := d.String()
			li.DurationSpec = &spec
		}
		out = append(out, li)
	}
	return out
}

// NormalizeCustomerKey is the identity used to group orders by customer.
func NormalizeCustomerKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
