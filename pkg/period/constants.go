// pkg/period/constants.go
package period

// Длительности единиц таймфрейма в миллисекундах
const (
	MillisPerMinute int64 = 60 * 1000
	MillisPerHour         = 60 * MillisPerMinute
	MillisPerDay          = 24 * MillisPerHour
)

const (
	Period1m  = "1m"
	Period5m  = "5m"
	Period15m = "15m"
	Period1h  = "1h"
	Period4h  = "4h"
	Period1d  = "1d"
)

// PopularPeriods - таймфреймы для прогрева кеша по умолчанию
var PopularPeriods = []string{Period1m, Period5m, Period15m, Period1h, Period4h, Period1d}
