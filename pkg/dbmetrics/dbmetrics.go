// Package dbmetrics wraps *sql.DB with Prometheus timings and carries the
// active transaction through context.Context.
package dbmetrics

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// DBExecutor is the query surface shared by *sql.DB, *sql.Tx and the wrappers.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxExecutor is an open transaction.
type TxExecutor interface {
	DBExecutor
	Commit() error
	Rollback() error
}

// Recorder receives query timings. *metrics.Metrics implements it.
type Recorder interface {
	ObserveQuery(operation string, elapsed time.Duration, err error)
	SetConnections(open, inUse, idle int)
}

// DefaultStatsInterval is how often pool statistics are published.
const DefaultStatsInterval = 15 * time.Second

// DB wraps *sql.DB. With a nil recorder it is a thin pass-through.
type DB struct {
	db       *sql.DB
	recorder Recorder
}

// Wrap returns a DB without metrics.
func Wrap(db *sql.DB) *DB {
	return &DB{db: db}
}

// WrapWithDefault returns a DB that records query timings and publishes pool
// statistics every DefaultStatsInterval until stop is closed.
func WrapWithDefault(db *sql.DB, recorder Recorder, stop <-chan struct{}) *DB {
	w := &DB{db: db, recorder: recorder}
	go w.collectStats(DefaultStatsInterval, stop)
	return w
}

// Unwrap returns the underlying *sql.DB.
func (d *DB) Unwrap() *sql.DB {
	return d.db
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.observe(query, start, err)
	return res, err
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.observe(query, start, err)
	return rows, err
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.observe(query, start, row.Err())
	return row
}

// BeginTx starts a transaction whose queries are recorded as well.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, owner: d}, nil
}

func (d *DB) observe(query string, start time.Time, err error) {
	if d.recorder == nil {
		return
	}
	d.recorder.ObserveQuery(operationOf(query), time.Since(start), err)
}

func (d *DB) collectStats(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s := d.db.Stats()
			d.recorder.SetConnections(s.OpenConnections, s.InUse, s.Idle)
		}
	}
}

// Tx is a recorded transaction.
type Tx struct {
	tx    *sql.Tx
	owner *DB
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.owner.observe(query, start, err)
	return res, err
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.owner.observe(query, start, err)
	return rows, err
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, query, args...)
	t.owner.observe(query, start, row.Err())
	return row
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// operationOf labels a statement by its leading keyword.
func operationOf(query string) string {
	q := strings.TrimSpace(query)
	if i := strings.IndexAny(q, " \n\t("); i > 0 {
		q = q[:i]
	}
	return strings.ToLower(q)
}

type txKey struct{}

// WithTx stores tx in ctx.
func WithTx(ctx context.Context, tx TxExecutor) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction stored in ctx, if any.
func TxFromContext(ctx context.Context) (TxExecutor, bool) {
	tx, ok := ctx.Value(txKey{}).(TxExecutor)
	return tx, ok
}

// IsInTransaction reports whether ctx carries a transaction.
func IsInTransaction(ctx context.Context) bool {
	_, ok := TxFromContext(ctx)
	return ok
}

// GetExecutor returns the transaction from ctx or falls back to db.
func GetExecutor(ctx context.Context, db DBExecutor) DBExecutor {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}
