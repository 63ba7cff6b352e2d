// internal/types/liquidation/model.go
package liquidation

import (
	"encoding/json"
	"strings"

	"github.com/lazy-geeek/liqui-api/pkg/period"
	"github.com/shopspring/decimal"
)

// DataClass - класс кешируемых данных, у каждого свой TTL
type DataClass string

const (
	ClassLiquidations DataClass = "liq"
	ClassSymbols      DataClass = "symbols"
	ClassOrders       DataClass = "orders"
)

// Side - сторона ликвидации
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide нормализует сторону из хранилища ("BUY", "Sell", ...)
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}

// AggregatedRow - сумма ликвидаций в USD по паре (бакет, сторона)
type AggregatedRow struct {
	BucketStartMs int64           `db:"bucket_start" json:"-"`
	Side          Side            `db:"side" json:"-"`
	CumulativeUSD decimal.Decimal `db:"cumulated_usd_size" json:"-"`
}

type aggregatedRowJSON struct {
	Timestamp     int64       `json:"timestamp"`
	TimestampISO  string      `json:"timestamp_iso"`
	Side          Side        `json:"side"`
	CumulativeUSD json.Number `json:"cumulated_usd_size"`
}

// MarshalJSON отдает сумму числом, а не строкой
func (r AggregatedRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregatedRowJSON{
		Timestamp:     r.BucketStartMs,
		TimestampISO:  period.FormatISO(r.BucketStartMs),
		Side:          r.Side,
		CumulativeUSD: json.Number(r.CumulativeUSD.String()),
	})
}

func (r *AggregatedRow) UnmarshalJSON(data []byte) error {
	var raw aggregatedRowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sum, err := decimal.NewFromString(raw.CumulativeUSD.String())
	if err != nil {
		return err
	}
	r.BucketStartMs = raw.Timestamp
	r.Side = raw.Side
	r.CumulativeUSD = sum
	return nil
}

// Fill - сырая строка ликвидации, нужная для агрегации в процессе
type Fill struct {
	TradeTimeMs    int64           `db:"order_trade_time"`
	Side           string          `db:"side"`
	AveragePrice   decimal.Decimal `db:"average_price"`
	FilledQuantity decimal.Decimal `db:"order_filled_accumulated_quantity"`
}

// Order - ордер ликвидации в том виде, в каком его отдает API
type Order struct {
	Symbol                         string   `db:"symbol" json:"symbol"`
	Side                           string   `db:"side" json:"side"`
	OrderType                      *string  `db:"order_type" json:"order_type"`
	TimeInForce                    *string  `db:"time_in_force" json:"time_in_force"`
	OriginalQuantity               *float64 `db:"original_quantity" json:"original_quantity"`
	Price                          *float64 `db:"price" json:"price"`
	AveragePrice                   *float64 `db:"average_price" json:"average_price"`
	OrderStatus                    *string  `db:"order_status" json:"order_status"`
	OrderLastFilledQuantity        *float64 `db:"order_last_filled_quantity" json:"order_last_filled_quantity"`
	OrderFilledAccumulatedQuantity *float64 `db:"order_filled_accumulated_quantity" json:"order_filled_accumulated_quantity"`
	OrderTradeTime                 int64    `db:"order_trade_time" json:"order_trade_time"`
}

// Pagination - описание страницы для запросов по диапазону
type Pagination struct {
	Page          int  `json:"page"`
	PageSize      int  `json:"page_size"`
	TotalReturned int  `json:"total_returned"`
	HasMore       bool `json:"has_more"`
}

// OrdersResult - ответ по ордерам; Pagination заполняется только в режиме диапазона
type OrdersResult struct {
	Orders     []Order     `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
