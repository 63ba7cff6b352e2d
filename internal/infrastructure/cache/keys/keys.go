// internal/infrastructure/cache/keys/keys.go
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/lazy-geeek/liqui-api/internal/types/liquidation"
)

const (
	// DefaultMaxKeyLength - порог, после которого ключ сокращается хешем
	DefaultMaxKeyLength = 200

	hashHexLen       = 32
	symbolTagHexLen  = 16
	maxPlainSymbol   = 64
	symbolsListKey   = "symbols:all"
	hashedMarker     = "h"
	hashedSymbolMark = "~"
)

// MinKeyLength - наименьший допустимый порог: самый длинный класс, хешированный
// тег символа и хеш ключа должны влезать в него целиком
const MinKeyLength = len(liquidation.ClassOrders) + 1 + len(hashedSymbolMark) + symbolTagHexLen + 1 + len(hashedMarker) + 1 + hashHexLen

// Codec строит детерминированные ключи кеша из канонических параметров
type Codec struct {
	maxLen int
}

// NewCodec создает кодек. 0 означает порог по умолчанию; порог ниже MinKeyLength
// поднимается до него, конфигурация такие значения отклоняет заранее
func NewCodec(maxLen int) *Codec {
	if maxLen <= 0 {
		maxLen = DefaultMaxKeyLength
	}
	if maxLen < MinKeyLength {
		maxLen = MinKeyLength
	}
	return &Codec{maxLen: maxLen}
}

// MaxLength возвращает действующий порог длины ключа
func (c *Codec) MaxLength() int {
	return c.maxLen
}

// Liquidations - ключ агрегированных ликвидаций
func (c *Codec) Liquidations(symbol string, timeframeMs, startMs, endMs int64) string {
	sym := canonicalSymbol(symbol)
	canonical := join(string(liquidation.ClassLiquidations), sym,
		strconv.FormatInt(timeframeMs, 10),
		strconv.FormatInt(startMs, 10),
		strconv.FormatInt(endMs, 10))
	return c.shorten(liquidation.ClassLiquidations, sym, canonical)
}

// Symbols - единственный ключ списка символов
func (c *Codec) Symbols() string {
	return symbolsListKey
}

// LatestOrders - ключ последних N ордеров символа
func (c *Codec) LatestOrders(symbol string, limit int) string {
	sym := canonicalSymbol(symbol)
	canonical := join(string(liquidation.ClassOrders), sym, "latest", strconv.Itoa(limit))
	return c.shorten(liquidation.ClassOrders, sym, canonical)
}

// OrdersPage - ключ страницы ордеров в диапазоне
func (c *Codec) OrdersPage(symbol string, startMs, endMs int64, page, pageSize int) string {
	sym := canonicalSymbol(symbol)
	canonical := join(string(liquidation.ClassOrders), sym,
		strconv.FormatInt(startMs, 10),
		strconv.FormatInt(endMs, 10),
		"page", strconv.Itoa(page),
		"size", strconv.Itoa(pageSize))
	return c.shorten(liquidation.ClassOrders, sym, canonical)
}

// Build строит ключ по классу и нормализованным параметрам запроса
func (c *Codec) Build(class liquidation.DataClass, p liquidation.QueryParameters) (string, error) {
	switch class {
	case liquidation.ClassSymbols:
		return c.Symbols(), nil
	case liquidation.ClassLiquidations:
		tf, err := p.TimeframeMillis()
		if err != nil {
			return "", err
		}
		return c.Liquidations(p.Symbol, tf, deref(p.Start), deref(p.End)), nil
	case liquidation.ClassOrders:
		if p.Limit > 0 {
			return c.LatestOrders(p.Symbol, p.Limit), nil
		}
		p = p.WithPageDefaults()
		return c.OrdersPage(p.Symbol, deref(p.Start), deref(p.End), p.Page, p.PageSize), nil
	default:
		return "", liquidation.ErrInvalidParameters
	}
}

// SymbolPattern - glob-шаблон всех ключей символа в классе, включая сокращенные.
// Второй сегмент любого ключа символа совпадает с его тегом
func (c *Codec) SymbolPattern(class liquidation.DataClass, symbol string) string {
	tag := c.symbolTag(class, canonicalSymbol(symbol))
	return EscapePattern(string(class)) + ":" + EscapePattern(tag) + ":*"
}

// EscapePattern экранирует glob-метасимволы Redis
func EscapePattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// shorten оставляет канонический ключ, только если символ в нем стоит как есть
// и ключ влезает в порог; иначе ключ - класс, тег символа и хеш канонической формы
func (c *Codec) shorten(class liquidation.DataClass, symbol, canonical string) string {
	tag := c.symbolTag(class, symbol)
	if tag == symbol && len(canonical) <= c.maxLen {
		return canonical
	}
	sum := sha256.Sum256([]byte(canonical))
	return join(string(class), tag, hashedMarker, hex.EncodeToString(sum[:])[:hashHexLen])
}

// symbolTag - символ как есть, если с ним влезает сокращенный ключ класса, иначе "~" и хеш символа
func (c *Codec) symbolTag(class liquidation.DataClass, symbol string) string {
	if len(symbol) <= maxPlainSymbol && c.hashedLen(class, len(symbol)) <= c.maxLen {
		return symbol
	}
	sum := sha256.Sum256([]byte(symbol))
	return hashedSymbolMark + hex.EncodeToString(sum[:])[:symbolTagHexLen]
}

func (c *Codec) hashedLen(class liquidation.DataClass, tagLen int) int {
	return len(class) + 1 + tagLen + 1 + len(hashedMarker) + 1 + hashHexLen
}

func canonicalSymbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

func join(parts ...string) string {
	return strings.Join(parts, ":")
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
