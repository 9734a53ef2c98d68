// Package timex parses human-friendly durations used in configuration.
package timex

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ttlPattern = regexp.MustCompile(`^(\d+)\s*(ms|s|m|h|d)$`)

var ttlUnits = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
}

// ParseTTL converts a TTL string into a time.Duration.
//
// Accepted forms:
//
//	"7d", "12h", "30m", "45s", "5000ms"  number + unit (case-insensitive)
//	"3600"                               bare number, interpreted as seconds
//	"1h30m"                              anything time.ParseDuration accepts
//
// An empty string yields zero.
func ParseTTL(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	if m := ttlPattern.FindStringSubmatch(strings.ToLower(s)); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid TTL format: %s", v)
		}
		return time.Duration(n) * ttlUnits[m[2]], nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL format: %s", v)
	}
	return d, nil
}

// Duration wraps time.Duration for JSON configs. It unmarshals from either
// a TTL string (see ParseTTL) or an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := ParseTTL(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}
