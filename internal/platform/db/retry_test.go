package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection reset" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

func TestTransient(t *testing.T) {
	require.False(t, Transient(nil))
	require.False(t, Transient(errors.New("constraint violation")))
	require.True(t, Transient(fakeNetError{}))
	require.True(t, Transient(&pgconn.PgError{Code: "08006"}))
	require.False(t, Transient(&pgconn.PgError{Code: "23505"}))
}

func TestOnceRetriesTransientFailures(t *testing.T) {
	calls := 0
	err := Once(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return fakeNetError{}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestOnceDoesNotRetryPermanentFailures(t *testing.T) {
	permanent := errors.New("permission denied")
	calls := 0
	err := Once(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestOnceGivesUpAfterSecondFailure(t *testing.T) {
	calls := 0
	err := Once(context.Background(), func(ctx context.Context) error {
		calls++
		return fakeNetError{}
	})
	require.Error(t, err)
	require.Equal(t, 2, calls)
}
