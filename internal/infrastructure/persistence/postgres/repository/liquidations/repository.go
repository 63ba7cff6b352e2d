// /internal/infrastructure/persistence/postgres/repository/liquidations/repository.go
package liquidations_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/lazy-geeek/liqui-api/internal/infrastructure/persistence/postgres/database"
	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/logger"
)

// Querier - подмножество database.Executor, нужное репозиторию
type Querier interface {
	Select(ctx context.Context, mode database.Mode, statement string, dest interface{}, query string, args ...interface{}) error
}

type liquidationRepoImpl struct {
	exec     Querier
	q        queries
	pushdown bool
}

// NewLiquidationRepository создаёт репозиторий. pushdown=true считает агрегацию
// в БД, иначе выбирает сырые строки и агрегирует в процессе.
func NewLiquidationRepository(exec Querier, tableName string, pushdown bool) (LiquidationRepository, error) {
	table, err := QuoteTable(tableName)
	if err != nil {
		return nil, err
	}
	return &liquidationRepoImpl{exec: exec, q: buildQueries(table), pushdown: pushdown}, nil
}

// Aggregated возвращает агрегированные ликвидации
func (r *liquidationRepoImpl) Aggregated(ctx context.Context, symbol string, timeframeMs, startMs, endMs int64) ([]liquidation.AggregatedRow, error) {
	sym := strings.ToLower(symbol)

	if r.pushdown {
		var rows []liquidation.AggregatedRow
		if err := r.exec.Select(ctx, database.Standard, stmtAggregated, &rows, r.q.aggregated, sym, timeframeMs, startMs, endMs); err != nil {
			return nil, fmt.Errorf("LiquidationRepo.Aggregated: %w", err)
		}
		return rows, nil
	}

	var fills []liquidation.Fill
	if err := r.exec.Select(ctx, database.Long, stmtFills, &fills, r.q.fills, sym, startMs, endMs); err != nil {
		return nil, fmt.Errorf("LiquidationRepo.Aggregated: %w", err)
	}
	return liquidation.Aggregate(fills, timeframeMs), nil
}

// Symbols возвращает список символов
func (r *liquidationRepoImpl) Symbols(ctx context.Context) ([]string, error) {
	symbols := []string{}
	if err := r.exec.Select(ctx, database.Standard, stmtSymbols, &symbols, r.q.symbols); err != nil {
		return nil, fmt.Errorf("LiquidationRepo.Symbols: %w", err)
	}
	return symbols, nil
}

// LatestOrders возвращает последние limit ордеров символа
func (r *liquidationRepoImpl) LatestOrders(ctx context.Context, symbol string, limit int) ([]liquidation.Order, error) {
	var orders []liquidation.Order
	if err := r.exec.Select(ctx, database.Standard, stmtLatestOrders, &orders, r.q.latestOrders, strings.ToLower(symbol), limit); err != nil {
		return nil, fmt.Errorf("LiquidationRepo.LatestOrders: %w", err)
	}
	return orders, nil
}

// OrdersPage возвращает страницу ордеров в диапазоне. Выбирается на одну строку
// больше размера страницы, чтобы точно определить has_more.
func (r *liquidationRepoImpl) OrdersPage(ctx context.Context, symbol string, startMs, endMs int64, page, pageSize int) (liquidation.OrdersResult, error) {
	offset := (page - 1) * pageSize

	var orders []liquidation.Order
	if err := r.exec.Select(ctx, database.Long, stmtOrdersPage, &orders, r.q.ordersPage,
		strings.ToLower(symbol), startMs, endMs, pageSize+1, offset); err != nil {
		return liquidation.OrdersResult{}, fmt.Errorf("LiquidationRepo.OrdersPage: %w", err)
	}

	hasMore := len(orders) > pageSize
	if hasMore {
		orders = orders[:pageSize]
	}

	return liquidation.OrdersResult{
		Orders: orders,
		Pagination: &liquidation.Pagination{
			Page:          page,
			PageSize:      pageSize,
			TotalReturned: len(orders),
			HasMore:       hasMore,
		},
	}, nil
}

// StreamOrders выгружает ордера пачками; каждая пачка - отдельный запрос класса Long
func (r *liquidationRepoImpl) StreamOrders(ctx context.Context, symbol string, startMs, endMs int64, batchSize int, fn func([]liquidation.Order) error) error {
	sym := strings.ToLower(symbol)
	offset := 0
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("LiquidationRepo.StreamOrders: %w", err)
		}

		var batch []liquidation.Order
		if err := r.exec.Select(ctx, database.Long, stmtOrdersStream, &batch, r.q.ordersPage,
			sym, startMs, endMs, batchSize, offset); err != nil {
			return fmt.Errorf("LiquidationRepo.StreamOrders: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		if err := fn(batch); err != nil {
			return err
		}

		total += len(batch)
		if len(batch) < batchSize {
			break
		}
		offset += batchSize
	}

	logger.Debug("📤 Streamed %d orders for %s", total, sym)
	return nil
}
