// internal/infrastructure/cache/pattern.go
package cache

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern - скомпилированный glob-шаблон в правилах Redis (KEYS/SCAN MATCH):
// "*" и "?" совпадают с любыми символами, включая "/", "[...]" и "[^...]" - классы
// с диапазонами, "\" экранирует следующий символ
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern разбирает glob-шаблон
func CompilePattern(pattern string) (*Pattern, error) {
	var b strings.Builder
	b.WriteString(`\A(?s:`)

	for i := 0; i < len(pattern); {
		r, size := utf8.DecodeRuneInString(pattern[i:])
		i += size
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i < len(pattern) {
				r, size = utf8.DecodeRuneInString(pattern[i:])
				i += size
			}
			b.WriteString(regexp.QuoteMeta(string(r)))
		case '[':
			i = writeClass(&b, pattern, i)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString(`)\z`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Pattern{re: re}, nil
}

// Match сообщает, подходит ли ключ под шаблон
func (p *Pattern) Match(key string) bool {
	return p.re.MatchString(key)
}

// MatchPattern компилирует шаблон и проверяет ключ
func MatchPattern(pattern, key string) (bool, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return false, err
	}
	return p.Match(key), nil
}

// writeClass переводит "[...]" начиная с позиции после "[" и возвращает позицию за ним.
// Незакрытый класс тянется до конца шаблона, как в Redis
func writeClass(b *strings.Builder, pattern string, i int) int {
	negate := false
	if i < len(pattern) && pattern[i] == '^' {
		negate = true
		i++
	}

	var items []string
	for i < len(pattern) && pattern[i] != ']' {
		lo, size := utf8.DecodeRuneInString(pattern[i:])
		i += size
		if lo == '\\' && i < len(pattern) {
			lo, size = utf8.DecodeRuneInString(pattern[i:])
			i += size
		}

		if i+1 < len(pattern) && pattern[i] == '-' && pattern[i+1] != ']' {
			hi, size := utf8.DecodeRuneInString(pattern[i+1:])
			i += 1 + size
			if hi < lo {
				lo, hi = hi, lo
			}
			items = append(items, fmt.Sprintf(`\x{%x}-\x{%x}`, lo, hi))
			continue
		}
		items = append(items, fmt.Sprintf(`\x{%x}`, lo))
	}
	if i < len(pattern) {
		i++
	}

	switch {
	case len(items) == 0 && negate:
		b.WriteString(".")
	case len(items) == 0:
		b.WriteString(`[^\x00-\x{10FFFF}]`)
	case negate:
		b.WriteString("[^" + strings.Join(items, "") + "]")
	default:
		b.WriteString("[" + strings.Join(items, "") + "]")
	}
	return i
}
