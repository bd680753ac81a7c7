// Package status defines the result model shared by every check, the result
// store, and every delivery consumer: the four-valued Status enum, the
// ServiceCheck record, and the threshold/unit parsers used to turn a check's
// raw measurement into OK/WARN/CRIT.
package status

import "time"

// Status is the outcome of a single check, or the reduced outcome of the
// whole result store. Integer values match the wire-level NSCA/Nagios
// convention the daemon speaks downstream.
type Status int

const (
	OK Status = iota
	WARN
	CRIT
	UNKNOWN
)

// String returns the lowercase textual form used in logs.
func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case WARN:
		return "warn"
	case CRIT:
		return "crit"
	case UNKNOWN:
		return "unknown"
	default:
		return "unknown"
	}
}

// Text returns the textual form used on the wire (NSCA output, TCP status
// server, HTTP status JSON): upper case, CRIT spelled out as CRITICAL.
func (s Status) Text() string {
	switch s {
	case OK:
		return "OK"
	case WARN:
		return "WARNING"
	case CRIT:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// severity orders statuses for fan-in reduction. UNKNOWN sits between OK and
// WARN: a check that could not decide is less alarming than one that did
// decide something was wrong, but more alarming than one that came back
// clean.
var severity = map[Status]int{
	OK:      0,
	UNKNOWN: 1,
	WARN:    2,
	CRIT:    3,
}

// MoreSevere reports whether a is strictly more severe than b under the
// fan-in ordering OK < UNKNOWN < WARN < CRIT.
func MoreSevere(a, b Status) bool {
	return severity[a] > severity[b]
}

// Max returns whichever of a, b is more severe, preferring a on a tie.
func Max(a, b Status) Status {
	if MoreSevere(b, a) {
		return b
	}
	return a
}

// ParseStatus parses the upper-case wire form back into a Status. Used by
// the "status" CLI subcommand and by consumers that round-trip text.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "OK":
		return OK, true
	case "WARNING":
		return WARN, true
	case "CRITICAL":
		return CRIT, true
	case "UNKNOWN":
		return UNKNOWN, true
	default:
		return UNKNOWN, false
	}
}

// ServiceCheck is the result record produced by the runner for a single
// check execution and consumed by the store and every delivery consumer.
type ServiceCheck struct {
	Timestamp time.Time
	Hostname  string
	Name      string
	Status    Status
	Output    string
}
