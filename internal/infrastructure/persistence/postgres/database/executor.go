// internal/infrastructure/persistence/postgres/database/executor.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// Mode - класс запроса, определяющий таймаут
type Mode int

const (
	// Standard - обычные запросы
	Standard Mode = iota
	// Long - пагинация и потоковая выгрузка
	Long
)

func (m Mode) String() string {
	if m == Long {
		return "long"
	}
	return "standard"
}

// QueryObserver получает длительность и исход каждого запроса
type QueryObserver interface {
	ObserveQuery(statement string, mode Mode, elapsed time.Duration, err error)
}

// Executor выполняет параметризованные запросы на общем пуле с таймаутом по классу.
// Ожидание соединения входит в тот же таймаут; соединение всегда возвращается в пул.
type Executor struct {
	db       *sqlx.DB
	standard time.Duration
	long     time.Duration
	observer QueryObserver
}

// NewExecutor создает исполнитель запросов
func NewExecutor(db *sqlx.DB, standard, long time.Duration, observer QueryObserver) *Executor {
	if long < standard {
		long = standard
	}
	return &Executor{db: db, standard: standard, long: long, observer: observer}
}

// Timeout возвращает таймаут для класса запроса
func (e *Executor) Timeout(mode Mode) time.Duration {
	if mode == Long {
		return e.long
	}
	return e.standard
}

// Select выполняет запрос и сканирует все строки в dest
func (e *Executor) Select(ctx context.Context, mode Mode, statement string, dest interface{}, query string, args ...interface{}) error {
	return e.run(ctx, mode, statement, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, dest, query, args...)
	})
}

// Get выполняет запрос и сканирует одну строку в dest
func (e *Executor) Get(ctx context.Context, mode Mode, statement string, dest interface{}, query string, args ...interface{}) error {
	return e.run(ctx, mode, statement, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.GetContext(ctx, dest, query, args...)
	})
}

func (e *Executor) run(ctx context.Context, mode Mode, statement string, fn func(context.Context, *sqlx.Conn) error) (err error) {
	start := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveQuery(statement, mode, time.Since(start), err)
		}
	}()

	qctx, cancel := context.WithTimeout(ctx, e.Timeout(mode))
	defer cancel()

	conn, err := e.db.Connx(qctx)
	if err != nil {
		return e.classifyAcquire(ctx, qctx, mode, statement, err)
	}
	defer conn.Close()

	if err := fn(qctx, conn); err != nil {
		return e.classifyQuery(ctx, qctx, mode, statement, err)
	}
	return nil
}

func (e *Executor) classifyAcquire(parent, qctx context.Context, mode Mode, statement string, err error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%s: %w", statement, parent.Err())
	case errors.Is(qctx.Err(), context.DeadlineExceeded):
		logger.Warn("⚠️ No free connection for %s within %v", statement, e.Timeout(mode))
		return fmt.Errorf("%w: %s waited %v", ErrPoolExhausted, statement, e.Timeout(mode))
	default:
		logger.Error("❌ Failed to acquire connection for %s: %v", statement, err)
		return fmt.Errorf("%w: %s: %w", ErrConnection, statement, err)
	}
}

func (e *Executor) classifyQuery(parent, qctx context.Context, mode Mode, statement string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return err
	case parent.Err() != nil:
		return fmt.Errorf("%s: %w", statement, parent.Err())
	case errors.Is(qctx.Err(), context.DeadlineExceeded):
		logger.Warn("⏱️ Query %s (%s) exceeded %v and was cancelled", statement, mode, e.Timeout(mode))
		return fmt.Errorf("%w: %s exceeded %v", ErrQueryTimeout, statement, e.Timeout(mode))
	default:
		logger.Error("❌ Query %s (%s) failed: %v", statement, mode, err)
		return fmt.Errorf("%w: %s: %w", ErrBackendQuery, statement, err)
	}
}
