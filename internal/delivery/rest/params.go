// internal/delivery/rest/params.go
package rest

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
	"github.com/lazy-geeek/liqui-api/pkg/period"
)

// Ограничения потоковой выгрузки
const (
	DefaultStreamBatchSize = 1000
	MaxStreamBatchSize     = 5000
)

// parseQuery собирает QueryParameters из строки запроса
func parseQuery(q url.Values) (liquidation.QueryParameters, error) {
	p := liquidation.QueryParameters{
		Symbol:    q.Get("symbol"),
		Timeframe: q.Get("timeframe"),
	}

	var err error
	if p.Start, err = optionalTimestamp(q, "start_timestamp"); err != nil {
		return p, err
	}
	if p.End, err = optionalTimestamp(q, "end_timestamp"); err != nil {
		return p, err
	}
	if p.Limit, err = optionalInt(q, "limit", 0); err != nil {
		return p, err
	}
	if p.Page, err = optionalInt(q, "page", 0); err != nil {
		return p, err
	}
	if p.PageSize, err = optionalInt(q, "page_size", 0); err != nil {
		return p, err
	}
	return p, nil
}

func optionalTimestamp(q url.Values, name string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	ms, err := period.ParseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &ms, nil
}

func optionalInt(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", liquidation.ErrInvalidParameters, name)
	}
	return v, nil
}

// parseBatchSize проверяет batch_size потоковой выгрузки
func parseBatchSize(q url.Values, def int) (int, error) {
	if def <= 0 || def > MaxStreamBatchSize {
		def = DefaultStreamBatchSize
	}
	size, err := optionalInt(q, "batch_size", def)
	if err != nil {
		return 0, err
	}
	if size < 1 || size > MaxStreamBatchSize {
		return 0, fmt.Errorf("%w: batch_size must be between 1 and %d", liquidation.ErrInvalidParameters, MaxStreamBatchSize)
	}
	return size, nil
}
