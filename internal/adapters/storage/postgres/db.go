package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultTimeout = 5 * time.Second

	readRetries = 2
	readBackoff = 50 * time.Millisecond
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DB es el límite de timeout hacia el store: toda llamada corre con un
// deadline, las lecturas idempotentes reintentan como máximo dos veces y las
// escrituras nunca se reintentan. Fallas de red/driver salen como Unavailable.
type DB struct {
	sql     *sql.DB
	timeout time.Duration
	log     logger.Logger
}

func NewDB(db *sql.DB, timeout time.Duration, log logger.Logger) *DB {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DB{sql: db, timeout: timeout, log: log}
}

func (d *DB) SQL() *sql.DB { return d.sql }

func (d *DB) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(readRetries, retry.NewExponential(readBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		err := fn(cctx)
		if err != nil && transient(err) {
			d.log.Debug("store read retry", logger.Fields{"op": op, "err": err})
			return retry.RetryableError(err)
		}
		return err
	})
	return d.classify(op, err)
}

func (d *DB) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.classify(op, fn(cctx))
}

// classify deja pasar los errores ya tipados (NotFound, InsufficientStock...)
// y traduce los del driver a la taxonomía.
func (d *DB) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.Kind(err) != nil {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return apperr.E(apperr.ErrConflict, op, pgErr.ConstraintName, err)
		case "23514":
			return apperr.E(apperr.ErrValidation, op, pgErr.ConstraintName, err)
		}
	}

	d.log.Error("store call failed", logger.Fields{"op": op, "err": err})
	return apperr.Unavailable(op, err)
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx conexión, 57P01 admin shutdown
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code == "57P01")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// rowsAffected traduce 0 filas a NotFound.
func rowsAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(op, id)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
