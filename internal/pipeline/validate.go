package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest is returned when a request fails validation.
var ErrInvalidRequest = errors.New("invalid request")

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateChartRequest, ChartRequest{})
	return v
}

// validateChartRequest requires the column fields each chart kind reads.
func validateChartRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(ChartRequest)
	require := func(value, field string) {
		if value == "" {
			sl.ReportError(value, field, field, "required_for_kind", string(req.Kind))
		}
	}
	switch req.Kind {
	case chart.KindBox, chart.KindHistogram, chart.KindZScore:
		require(req.Column, "Column")
	case chart.KindTimeSeries:
		require(req.Column, "Column")
		require(req.Timestamp, "Timestamp")
	case chart.KindWindRose:
		require(req.Speed, "Speed")
		require(req.Direction, "Direction")
	case chart.KindScatter:
		require(req.X, "X")
		require(req.Y, "Y")
	case chart.KindBubble:
		require(req.X, "X")
		require(req.Y, "Y")
		require(req.Size, "Size")
		require(req.Hue, "Hue")
	}
}

// check validates req and flattens field errors into one ErrInvalidRequest.
func (p *Pipeline) check(req any) error {
	err := p.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_for_kind":
		return fmt.Sprintf("%s is required for %s charts", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
