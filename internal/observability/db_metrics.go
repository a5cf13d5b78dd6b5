package observability

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times one repository call. A lookup that finds nothing (no row, or
// an id that is not a uuid) is reported as status "miss" and is not an error:
// logins with unknown emails and foreign recipe ids land there all the time.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"
	switch {
	case err == nil:
	case isMiss(err):
		status = "miss"
	default:
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func isMiss(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			// users.email is the only unique column callers can collide on
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "23514":
			return "check_violation"
		case "22003":
			// recipes.price NUMERIC(5,2), recipes.time_minutes INTEGER
			return "out_of_range"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) {
		return "connection"
	}

	return "unknown"
}
