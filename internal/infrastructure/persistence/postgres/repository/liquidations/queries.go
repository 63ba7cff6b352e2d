// /internal/infrastructure/persistence/postgres/repository/liquidations/queries.go
package liquidations_repo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

// Имена запросов для логов и метрик
const (
	stmtAggregated   = "liquidations_aggregated"
	stmtFills        = "liquidations_fills"
	stmtSymbols      = "symbols_distinct"
	stmtLatestOrders = "orders_by_symbol_limit"
	stmtOrdersPage   = "orders_by_symbol_time_paginated"
	stmtOrdersStream = "orders_by_symbol_time_stream"
)

const orderColumns = `symbol, side, order_type, time_in_force, original_quantity, price,
		average_price, order_status, order_last_filled_quantity,
		order_filled_accumulated_quantity, order_trade_time`

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// QuoteTable проверяет имя таблицы (table или schema.table) и экранирует его
func QuoteTable(name string) (string, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if !identifierPattern.MatchString(p) {
			return "", fmt.Errorf("invalid table name %q", name)
		}
		quoted = append(quoted, pq.QuoteIdentifier(p))
	}
	return strings.Join(quoted, "."), nil
}

// queries - тексты запросов с подставленным именем таблицы; пользовательские
// значения передаются только позиционными параметрами
type queries struct {
	aggregated   string
	fills        string
	symbols      string
	latestOrders string
	ordersPage   string
}

func buildQueries(table string) queries {
	return queries{
		aggregated: fmt.Sprintf(`
		SELECT (FLOOR(order_trade_time::numeric / $2) * $2)::bigint AS bucket_start,
		       LOWER(side) AS side,
		       SUM(average_price * order_filled_accumulated_quantity) AS cumulated_usd_size
		FROM %s
		WHERE LOWER(symbol) = $1
		  AND order_trade_time BETWEEN $3 AND $4
		  AND LOWER(side) IN ('buy', 'sell')
		  AND average_price IS NOT NULL
		  AND order_filled_accumulated_quantity IS NOT NULL
		GROUP BY 1, 2
		ORDER BY 1, 2
	`, table),
		fills: fmt.Sprintf(`
		SELECT order_trade_time, side, average_price, order_filled_accumulated_quantity
		FROM %s
		WHERE LOWER(symbol) = $1
		  AND order_trade_time BETWEEN $2 AND $3
		  AND average_price IS NOT NULL
		  AND order_filled_accumulated_quantity IS NOT NULL
	`, table),
		symbols: fmt.Sprintf(`
		SELECT DISTINCT symbol
		FROM %s
		WHERE symbol !~ '[0-9]+$'
		ORDER BY symbol
	`, table),
		latestOrders: fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE LOWER(symbol) = $1
		ORDER BY order_trade_time DESC
		LIMIT $2
	`, orderColumns, table),
		ordersPage: fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE LOWER(symbol) = $1 AND order_trade_time BETWEEN $2 AND $3
		ORDER BY order_trade_time DESC
		LIMIT $4 OFFSET $5
	`, orderColumns, table),
	}
}
