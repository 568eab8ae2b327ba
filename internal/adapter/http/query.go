package http

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var errPartialPeriod = errors.New("year and month must be given together")

// periodQuery is the ?year=&month= selector shared by the per-month routes.
type periodQuery struct {
	Year  int `query:"year" validate:"gte=1940,lte=2100"`
	Month int `query:"month" validate:"gte=1,lte=12"`
}

// yearQuery is the ?year= selector of the trend route.
type yearQuery struct {
	Year int `query:"year" validate:"gte=1940,lte=2100"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("query") })
	return v
}

// parsePeriod reads year and month. ok is false when both are absent, in
// which case the caller picks a default.
func parsePeriod(q url.Values, v *validator.Validate) (year int, month time.Month, ok bool, err error) {
	ys, ms := q.Get("year"), q.Get("month")
	if ys == "" && ms == "" {
		return 0, 0, false, nil
	}
	if ys == "" || ms == "" {
		return 0, 0, false, errPartialPeriod
	}

	var p periodQuery
	if p.Year, err = atoi("year", ys); err != nil {
		return 0, 0, false, err
	}
	if p.Month, err = atoi("month", ms); err != nil {
		return 0, 0, false, err
	}
	if err := v.Struct(p); err != nil {
		return 0, 0, false, validationError(err)
	}
	return p.Year, time.Month(p.Month), true, nil
}

// parseYear reads an optional year. ok is false when it is absent.
func parseYear(q url.Values, v *validator.Validate) (year int, ok bool, err error) {
	ys := q.Get("year")
	if ys == "" {
		return 0, false, nil
	}
	var y yearQuery
	if y.Year, err = atoi("year", ys); err != nil {
		return 0, false, err
	}
	if err := v.Struct(y); err != nil {
		return 0, false, validationError(err)
	}
	return y.Year, true, nil
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, s)
	}
	return n, nil
}

// validationError names the offending query parameter.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid %s %v: must satisfy %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
	return err
}
