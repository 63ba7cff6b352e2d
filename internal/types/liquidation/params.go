package liquidation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lazy-geeek/liqui-api/pkg/period"
)

// ErrInvalidParameters - ошибка валидации входных параметров
var ErrInvalidParameters = errors.New("invalid parameters")

// Ограничения запросов
const (
	MaxLimit        = 1000
	MaxPageSize     = 1000
	DefaultPage     = 1
	DefaultPageSize = 100
)

// QueryParameters - логические параметры запроса после разбора HTTP
type QueryParameters struct {
	Symbol    string `json:"symbol" validate:"required,max=128,printascii"`
	Timeframe string `json:"timeframe" validate:"omitempty,timeframe"`
	Start     *int64 `json:"start_timestamp"`
	End       *int64 `json:"end_timestamp" validate:"required_with=Start"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=1000"`
	Page      int    `json:"page" validate:"omitempty,min=1"`
	PageSize  int    `json:"page_size" validate:"omitempty,min=1,max=1000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("timeframe", func(fl validator.FieldLevel) bool {
		return period.IsValidPeriod(fl.Field().String())
	})
	return v
}

// Normalize приводит символ и таймфрейм к каноническому виду
func (p *QueryParameters) Normalize() {
	p.Symbol = strings.ToLower(strings.TrimSpace(p.Symbol))
	p.Timeframe = period.Canonical(p.Timeframe)
}

// HasRange сообщает, задан ли временной диапазон
func (p QueryParameters) HasRange() bool {
	return p.Start != nil && p.End != nil
}

// TimeframeMillis возвращает длительность таймфрейма в мс
func (p QueryParameters) TimeframeMillis() (int64, error) {
	return period.ToMillis(p.Timeframe)
}

// ValidateAggregation проверяет параметры запроса агрегированных ликвидаций
func (p QueryParameters) ValidateAggregation() error {
	if err := p.validateFields(); err != nil {
		return err
	}
	if p.Timeframe == "" {
		return fmt.Errorf("%w: timeframe is required", ErrInvalidParameters)
	}
	if _, err := p.TimeframeMillis(); err != nil {
		return err
	}
	if !p.HasRange() {
		return fmt.Errorf("%w: start_timestamp and end_timestamp are required", ErrInvalidParameters)
	}
	return p.validateRange()
}

// ValidateOrders проверяет параметры запроса ордеров: либо limit, либо диапазон
func (p QueryParameters) ValidateOrders() error {
	if err := p.validateFields(); err != nil {
		return err
	}
	hasRange := p.Start != nil || p.End != nil
	switch {
	case p.Limit > 0 && hasRange:
		return fmt.Errorf("%w: cannot use limit together with start_timestamp/end_timestamp", ErrInvalidParameters)
	case p.Limit == 0 && !hasRange:
		return fmt.Errorf("%w: either limit or both start_timestamp and end_timestamp are required", ErrInvalidParameters)
	case p.Limit == 0 && !p.HasRange():
		return fmt.Errorf("%w: both start_timestamp and end_timestamp are required", ErrInvalidParameters)
	}
	if hasRange {
		return p.validateRange()
	}
	return nil
}

// ValidateStream проверяет параметры потоковой выгрузки ордеров
func (p QueryParameters) ValidateStream() error {
	if err := p.validateFields(); err != nil {
		return err
	}
	if !p.HasRange() {
		return fmt.Errorf("%w: start_timestamp and end_timestamp are required", ErrInvalidParameters)
	}
	return p.validateRange()
}

// WithPageDefaults подставляет страницу и размер страницы по умолчанию
func (p QueryParameters) WithPageDefaults() QueryParameters {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p QueryParameters) validateRange() error {
	if *p.Start < 0 || *p.End < 0 {
		return fmt.Errorf("%w: timestamps must be non-negative", ErrInvalidParameters)
	}
	if *p.Start > *p.End {
		return fmt.Errorf("%w: start_timestamp must be before end_timestamp", ErrInvalidParameters)
	}
	return nil
}

func (p QueryParameters) validateFields() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if e.Tag() == "timeframe" {
			return fmt.Errorf("%w: %q", period.ErrInvalidTimeframe, e.Value())
		}
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_with":
		return fmt.Sprintf("%s is required when start_timestamp is set", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
