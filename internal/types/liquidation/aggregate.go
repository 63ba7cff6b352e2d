package liquidation

import (
	"sort"

	"github.com/lazy-geeek/liqui-api/pkg/period"
	"github.com/shopspring/decimal"
)

type bucketKey struct {
	start int64
	side  Side
}

// Aggregate группирует строки по (начало бакета, сторона) и суммирует price*qty.
// Пустые комбинации не выдаются, порядок - по бакету, затем по стороне.
// Строки с неизвестной стороной пропускаются.
func Aggregate(fills []Fill, timeframeMs int64) []AggregatedRow {
	sums := make(map[bucketKey]decimal.Decimal)
	for _, f := range fills {
		side, ok := ParseSide(f.Side)
		if !ok {
			continue
		}
		k := bucketKey{start: period.BucketStart(f.TradeTimeMs, timeframeMs), side: side}
		sums[k] = sums[k].Add(f.AveragePrice.Mul(f.FilledQuantity))
	}

	rows := make([]AggregatedRow, 0, len(sums))
	for k, sum := range sums {
		rows = append(rows, AggregatedRow{BucketStartMs: k.start, Side: k.side, CumulativeUSD: sum})
	}
	SortRows(rows)
	return rows
}

// SortRows упорядочивает строки по бакету, затем по стороне
func SortRows(rows []AggregatedRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BucketStartMs != rows[j].BucketStartMs {
			return rows[i].BucketStartMs < rows[j].BucketStartMs
		}
		return rows[i].Side < rows[j].Side
	})
}
