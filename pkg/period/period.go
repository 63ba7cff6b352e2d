// pkg/period/period.go
package period

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidTimeframe возвращается для токенов вне формата <N><m|h|d>
var ErrInvalidTimeframe = errors.New("invalid timeframe")

var timeframePattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// Canonical приводит токен таймфрейма к нижнему регистру без пробелов
func Canonical(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// ToMillis конвертирует токен таймфрейма ("5m", "1h", "1d") в миллисекунды.
// Результат строго положительный и монотонный по N.
func ToMillis(token string) (int64, error) {
	m := timeframePattern.FindStringSubmatch(Canonical(token))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, token)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, token)
	}

	var unit int64
	switch m[2] {
	case "m":
		unit = MillisPerMinute
	case "h":
		unit = MillisPerHour
	case "d":
		unit = MillisPerDay
	}

	if n > math.MaxInt64/unit {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidTimeframe, token)
	}
	return n * unit, nil
}

// IsValidPeriod проверяет, является ли таймфрейм валидным
func IsValidPeriod(token string) bool {
	_, err := ToMillis(token)
	return err == nil
}

// MillisToString переводит длительность обратно в самый крупный точный токен
func MillisToString(ms int64) string {
	switch {
	case ms <= 0:
		return ""
	case ms%MillisPerDay == 0:
		return fmt.Sprintf("%dd", ms/MillisPerDay)
	case ms%MillisPerHour == 0:
		return fmt.Sprintf("%dh", ms/MillisPerHour)
	case ms%MillisPerMinute == 0:
		return fmt.Sprintf("%dm", ms/MillisPerMinute)
	default:
		return fmt.Sprintf("%dms", ms)
	}
}

// BucketStart возвращает начало бакета floor(ts/span)*span.
// Для отрицательных меток округление идет вниз, а не к нулю.
func BucketStart(tsMs, spanMs int64) int64 {
	if spanMs <= 0 {
		return tsMs
	}
	q := tsMs / spanMs
	if tsMs%spanMs != 0 && tsMs < 0 {
		q--
	}
	return q * spanMs
}
