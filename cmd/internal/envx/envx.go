// Package envx wraps caarlos0/env with the parsers tasker's config needs.
package envx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Parse fills v (a pointer to struct) from the process environment.
// time.Duration fields accept Go syntax plus a "d" (days) suffix, e.g. "7d".
func Parse(v any) error {
	return env.ParseWithOptions(v, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(s string) (any, error) {
				return ParseDuration(s)
			},
		},
	})
}

// ParseDuration parses "15m", "1h30m", "7d" or a bare number of seconds ("900").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
