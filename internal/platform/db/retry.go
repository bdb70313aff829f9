package db

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// retryBackoff is how long a call waits before its single retry.
const retryBackoff = 200 * time.Millisecond

// Transient reports whether err looks like a recoverable storage blip:
// connection failures and serialization conflicts at the protocol level.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions.
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}
	return pgconn.SafeToRetry(err)
}

// Once runs fn, retrying a single time after a short backoff when the
// failure is transient. Non-transient errors surface unchanged.
func Once(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !Transient(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryBackoff):
	}
	return fn(ctx)
}
