// /internal/infrastructure/persistence/postgres/repository/liquidations/interface.go
package liquidations_repo

import (
	"context"

	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
)

// LiquidationRepository - запросы к таблице ликвидаций
type LiquidationRepository interface {
	// Aggregated возвращает суммы в USD по (бакет, сторона) в окне [startMs, endMs]
	Aggregated(ctx context.Context, symbol string, timeframeMs, startMs, endMs int64) ([]liquidation.AggregatedRow, error)
	// Symbols возвращает список символов без датированных контрактов
	Symbols(ctx context.Context) ([]string, error)
	LatestOrders(ctx context.Context, symbol string, limit int) ([]liquidation.Order, error)
	OrdersPage(ctx context.Context, symbol string, startMs, endMs int64, page, pageSize int) (liquidation.OrdersResult, error)
	// StreamOrders выгружает ордера пачками и передает каждую пачку в fn
	StreamOrders(ctx context.Context, symbol string, startMs, endMs int64, batchSize int, fn func([]liquidation.Order) error) error
}
