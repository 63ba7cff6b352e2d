package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (r *recordingObserver) ObserveQuery(statement string, mode Mode, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, statement+"/"+mode.String())
	r.errs = append(r.errs, err)
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSelectSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	obs := &recordingObserver{}
	exec := NewExecutor(db, time.Second, 2*time.Second, obs)

	mock.ExpectQuery(`SELECT DISTINCT symbol`).
		WillReturnRows(sqlmock.NewRows([]string{"symbol"}).AddRow("BTCUSDT").AddRow("ETHUSDT"))

	var symbols []string
	err := exec.Select(context.Background(), Standard, "symbols_distinct", &symbols, `SELECT DISTINCT symbol FROM t`)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
	assert.Equal(t, []string{"symbols_distinct/standard"}, obs.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryTimeoutReleasesConnection(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewExecutor(db, 50*time.Millisecond, time.Second, nil)

	mock.ExpectQuery(`SELECT`).WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	before := db.Stats().InUse

	var n []int
	err := exec.Select(context.Background(), Standard, "slow", &n, `SELECT pg_sleep(1)`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryTimeout)
	assert.Equal(t, before, db.Stats().InUse)
}

func TestLongModeUsesLongTimeout(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewExecutor(db, 20*time.Millisecond, time.Second, nil)

	mock.ExpectQuery(`SELECT`).WillDelayFor(60 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	var n []int
	require.NoError(t, exec.Select(context.Background(), Long, "page", &n, `SELECT 1`))
	assert.Equal(t, []int{1}, n)
	assert.Equal(t, time.Second, exec.Timeout(Long))
}

func TestPoolExhausted(t *testing.T) {
	db, _ := newMockDB(t)
	db.SetMaxOpenConns(1)
	exec := NewExecutor(db, 50*time.Millisecond, time.Second, nil)

	held, err := db.Connx(context.Background())
	require.NoError(t, err)
	defer held.Close()

	var n []int
	err = exec.Select(context.Background(), Standard, "starved", &n, `SELECT 1`)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestBackendErrorIsWrapped(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewExecutor(db, time.Second, time.Second, nil)

	driverErr := errors.New(`pq: relation "missing" does not exist`)
	mock.ExpectQuery(`SELECT`).WillReturnError(driverErr)

	var n []int
	err := exec.Select(context.Background(), Standard, "broken", &n, `SELECT * FROM missing`)
	assert.ErrorIs(t, err, ErrBackendQuery)
	assert.ErrorIs(t, err, driverErr)
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestCallerCancellation(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewExecutor(db, time.Second, time.Second, nil)

	mock.ExpectQuery(`SELECT`).WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var n []int
	err := exec.Select(ctx, Standard, "cancelled", &n, `SELECT 1`)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrQueryTimeout)
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestGetNoRowsPassesThrough(t *testing.T) {
	db, mock := newMockDB(t)
	exec := NewExecutor(db, time.Second, time.Second, nil)

	mock.ExpectQuery(`SELECT`).WillReturnRows(sqlmock.NewRows([]string{"n"}))

	var n int
	err := exec.Get(context.Background(), Standard, "one", &n, `SELECT 1 WHERE false`)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
