package liquidation

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(ts int64, side string, qty, price int64) Fill {
	return Fill{
		TradeTimeMs:    ts,
		Side:           side,
		AveragePrice:   decimal.NewFromInt(price),
		FilledQuantity: decimal.NewFromInt(qty),
	}
}

func TestAggregateBuckets(t *testing.T) {
	rows := Aggregate([]Fill{
		fill(2000, "SELL", 2, 50),
		fill(1000, "buy", 1, 100),
		fill(1999, "Buy", 1, 100),
	}, 1000)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(1000), rows[0].BucketStartMs)
	assert.Equal(t, SideBuy, rows[0].Side)
	assert.True(t, decimal.NewFromInt(200).Equal(rows[0].CumulativeUSD))
	assert.Equal(t, int64(2000), rows[1].BucketStartMs)
	assert.Equal(t, SideSell, rows[1].Side)
	assert.True(t, decimal.NewFromInt(100).Equal(rows[1].CumulativeUSD))
}

func TestAggregateOrdersSidesWithinBucket(t *testing.T) {
	rows := Aggregate([]Fill{
		fill(10, "sell", 1, 1),
		fill(20, "buy", 1, 1),
		fill(30, "unknown", 1, 1),
	}, 1000)

	require.Len(t, rows, 2)
	assert.Equal(t, SideBuy, rows[0].Side)
	assert.Equal(t, SideSell, rows[1].Side)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, 60_000))
}

func TestAggregatedRowJSON(t *testing.T) {
	row := AggregatedRow{BucketStartMs: 1700000000000, Side: SideBuy, CumulativeUSD: decimal.RequireFromString("1234.5")}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":1700000000000,"timestamp_iso":"2023-11-14T22:13:20.000Z","side":"buy","cumulated_usd_size":1234.5}`, string(data))

	var back AggregatedRow
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, row.BucketStartMs, back.BucketStartMs)
	assert.True(t, row.CumulativeUSD.Equal(back.CumulativeUSD))
}
