// application/services/orchestrator/stats.go
package orchestrator

import (
	"context"
	"math"
)

// Stats - статистика кеша
type Stats struct {
	HitCount           int64       `json:"hit_count"`
	MissCount          int64       `json:"miss_count"`
	HitRate            float64     `json:"hit_rate"`
	Backend            string      `json:"backend,omitempty"`
	BackendKeys        int64       `json:"backend_keys"`
	BackendMemoryUsed  int64       `json:"backend_memory_used"`
	BackendMemoryHuman string      `json:"backend_memory_human"`
	BackendAvailable   bool        `json:"backend_available"`
	BreakerState       string      `json:"breaker_state"`
	BreakerFailures    int         `json:"breaker_failures"`
	LastWarm           *WarmReport `json:"last_warm,omitempty"`
}

// Stats собирает счетчики попаданий, сведения о бэкенде и состояние предохранителя
func (o *Orchestrator) Stats(ctx context.Context) Stats {
	hits := o.hits.Load()
	misses := o.misses.Load()

	stats := Stats{
		HitCount:  hits,
		MissCount: misses,
		HitRate:   hitRate(hits, misses),
		LastWarm:  o.LastWarm(),
	}

	if info, err := o.store.Info(ctx); err == nil {
		stats.Backend = info.Backend
		stats.BackendKeys = info.Keys
		stats.BackendMemoryUsed = info.MemoryUsedBytes
		stats.BackendMemoryHuman = info.MemoryUsedHuman
		stats.BackendAvailable = true
	}

	if o.breaker != nil {
		snap := o.breaker.Snapshot()
		stats.BreakerState = snap.State.String()
		stats.BreakerFailures = snap.Failures
	}

	return stats
}

// hitRate в процентах с двумя знаками
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*10000) / 100
}
