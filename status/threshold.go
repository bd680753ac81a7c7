package status

import (
	"fmt"
	"strconv"
	"strings"
)

// byteUnits maps a human-byte suffix to its power-of-1024 multiplier, in the
// order they're tried when formatting (largest first).
var byteUnits = []struct {
	suffix string
	mult   float64
}{
	{"T", 1 << 40},
	{"G", 1 << 30},
	{"M", 1 << 20},
	{"K", 1 << 10},
}

// ParseBytes parses an integer, or an integer followed by a K/M/G/T suffix
// (base 1024, case-insensitive), into a raw byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("status: empty byte value")
	}

	upper := strings.ToUpper(s)
	for _, u := range byteUnits {
		if strings.HasSuffix(upper, u.suffix) {
			numPart := strings.TrimSpace(s[:len(s)-1])
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, fmt.Errorf("status: invalid byte value %q: %w", s, err)
			}
			return int64(n * u.mult), nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("status: invalid byte value %q: %w", s, err)
	}
	return n, nil
}

// FormatBytes renders a byte count using the largest unit not exceeding it,
// to one decimal place, matching sauna's config round-trip:
// 5*1024*1024 -> "5.0M".
func FormatBytes(n int64) string {
	v := float64(n)
	for _, u := range byteUnits {
		if v >= u.mult {
			return fmt.Sprintf("%.1f%s", v/u.mult, u.suffix)
		}
	}
	return strconv.FormatInt(n, 10)
}

// ParsePercent parses a percent string such as "80%" into the number before
// the '%' (80 here; the range is not checked). The trailing '%' is required; callers that accept either an
// integer or a percent (warn/crit thresholds) try ParsePercent first.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("status: not a percent value: %q", s)
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("status: invalid percent value %q: %w", s, err)
	}
	return n, nil
}

// Threshold is a parsed warn/crit bound: either a raw integer/byte count, or
// a percentage. A plugin evaluates one of the two depending on what kind of
// measurement it produces.
type Threshold struct {
	set     bool
	percent bool
	value   float64
}

// ParseThreshold parses a warn/crit config value: a number is taken as is;
// a string is tried as a percent first, then as a human-byte size.
func ParseThreshold(raw any) (Threshold, error) {
	switch v := raw.(type) {
	case nil:
		return Threshold{}, nil
	case int:
		return Threshold{set: true, value: float64(v)}, nil
	case int64:
		return Threshold{set: true, value: float64(v)}, nil
	case float64:
		return Threshold{set: true, value: v}, nil
	case string:
		if v == "" {
			return Threshold{}, nil
		}
		if pct, err := ParsePercent(v); err == nil {
			return Threshold{set: true, percent: true, value: pct}, nil
		}
		b, err := ParseBytes(v)
		if err != nil {
			return Threshold{}, fmt.Errorf("status: invalid threshold %q: %w", v, err)
		}
		return Threshold{set: true, value: float64(b)}, nil
	default:
		return Threshold{}, fmt.Errorf("status: unsupported threshold type %T", raw)
	}
}

// Set reports whether the threshold was configured.
func (t Threshold) Set() bool { return t.set }

// Breached reports whether measured (as a raw value, or as a percentage of
// total when the threshold is itself a percent) crosses the threshold.
func (t Threshold) Breached(measured, total float64) bool {
	if !t.set {
		return false
	}
	if t.percent {
		if total == 0 {
			return false
		}
		return (measured/total)*100 >= t.value
	}
	return measured >= t.value
}

// Evaluate is the standard single-value threshold evaluator used by most
// plugins: CRIT if crit is breached, else WARN if warn is breached, else OK.
// UNKNOWN is never returned here; it is reserved for runner-level failures.
// Use this for measurements that should stay *below* their threshold (load,
// usage percentages): breach means "value rose to or past the bound".
func Evaluate(measured, total float64, warn, crit Threshold) Status {
	if crit.Breached(measured, total) {
		return CRIT
	}
	if warn.Breached(measured, total) {
		return WARN
	}
	return OK
}

// EvaluateMore is Evaluate's mirror for measurements that should stay
// *above* their threshold (available memory, free disk space): breach
// means "value fell to or below the bound".
func EvaluateMore(measured, total float64, warn, crit Threshold) Status {
	if crit.set && !crit.percent && measured <= crit.value {
		return CRIT
	}
	if crit.set && crit.percent && total != 0 && (measured/total)*100 <= crit.value {
		return CRIT
	}
	if warn.set && !warn.percent && measured <= warn.value {
		return WARN
	}
	if warn.set && warn.percent && total != 0 && (measured/total)*100 <= warn.value {
		return WARN
	}
	return OK
}
