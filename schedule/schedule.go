// Package schedule parses 5-field cron expressions and computes the
// instants that satisfy them. It is pure: no I/O, no clocks of its own.
//
// An Expression holds five sorted, de-duplicated integer sets (minute,
// hour, day-of-month, month, day-of-week). Next and Prev scan
// minute-by-minute from a reference instant, bounded so that
// unsatisfiable expressions (e.g. "0 0 31 2 *") terminate with
// ErrNoMatchingTime instead of spinning forever. Brute force is
// deliberate: cron field combinations are not trivially invertible,
// and the scan runs at most once per minute in steady state.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidExpression reports a malformed cron expression.
	ErrInvalidExpression = errors.New("schedule: invalid cron expression")

	// ErrNoMatchingTime reports that no instant satisfied the
	// expression within the scan limit.
	ErrNoMatchingTime = errors.New("schedule: no matching time within scan limit")
)

// DefaultScanLimit bounds Next and Prev to one year of minutes.
const DefaultScanLimit = 365 * 24 * 60

// Expression is a parsed 5-field cron expression.
type Expression struct {
	Minutes     []int
	Hours       []int
	DaysOfMonth []int
	Months      []int
	DaysOfWeek  []int

	// ScanLimit caps the number of minutes Next and Prev examine.
	// Zero means DefaultScanLimit.
	ScanLimit int

	raw string
}

// String returns the original expression text.
func (e *Expression) String() string { return e.raw }

type fieldSpec struct {
	name string
	min  int
	max  int
}

var fieldSpecs = [5]fieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

// Parse parses a cron expression with exactly five whitespace-separated
// fields: minute (0-59), hour (0-23), day-of-month (1-31), month (1-12)
// and day-of-week (0-6, Sunday = 0). Each field supports "*", comma
// lists, "a-b" ranges, and "a-b/c" or "*/c" steps. Values outside a
// field's valid range are clipped.
func Parse(expr string) (*Expression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d in %q", ErrInvalidExpression, len(fields), expr)
	}

	sets := [5][]int{}
	for i, field := range fields {
		set, err := parseField(field, fieldSpecs[i])
		if err != nil {
			return nil, err
		}
		sets[i] = set
	}

	return &Expression{
		Minutes:     sets[0],
		Hours:       sets[1],
		DaysOfMonth: sets[2],
		Months:      sets[3],
		DaysOfWeek:  sets[4],
		raw:         expr,
	}, nil
}

// parseField expands one cron field into a sorted, de-duplicated set
// clipped to [spec.min, spec.max].
func parseField(field string, spec fieldSpec) ([]int, error) {
	seen := make(map[int]struct{})

	for _, token := range strings.Split(field, ",") {
		lo, hi, step, err := parseToken(token, spec)
		if err != nil {
			return nil, err
		}
		for v := lo; v <= hi; v += step {
			if v < spec.min || v > spec.max {
				continue
			}
			seen[v] = struct{}{}
		}
	}

	set := make([]int, 0, len(seen))
	for v := range seen {
		set = append(set, v)
	}
	slices.Sort(set)
	return set, nil
}

// parseToken resolves a single sub-token ("*", "5", "1-5", "*/15",
// "10-50/10") into an inclusive range plus step.
func parseToken(token string, spec fieldSpec) (lo, hi, step int, err error) {
	step = 1
	base := token
	stepped := false

	if before, after, found := strings.Cut(token, "/"); found {
		base = before
		stepped = true
		step, err = strconv.Atoi(after)
		if err != nil || step <= 0 {
			return 0, 0, 0, fmt.Errorf("%w: bad step %q in %s field", ErrInvalidExpression, token, spec.name)
		}
	}

	switch {
	case base == "*":
		return spec.min, spec.max, step, nil
	case strings.Contains(base, "-"):
		before, after, _ := strings.Cut(base, "-")
		lo, err = strconv.Atoi(before)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: bad range %q in %s field", ErrInvalidExpression, token, spec.name)
		}
		hi, err = strconv.Atoi(after)
		if err != nil || hi < lo {
			return 0, 0, 0, fmt.Errorf("%w: bad range %q in %s field", ErrInvalidExpression, token, spec.name)
		}
		return lo, hi, step, nil
	default:
		v, convErr := strconv.Atoi(base)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: unrecognized token %q in %s field", ErrInvalidExpression, token, spec.name)
		}
		if stepped {
			// A step only makes sense over "*" or a range.
			return 0, 0, 0, fmt.Errorf("%w: step on single value %q in %s field", ErrInvalidExpression, token, spec.name)
		}
		return v, v, step, nil
	}
}

// Matches reports whether all five fields accept the given instant,
// evaluated in t's location.
func (e *Expression) Matches(t time.Time) bool {
	return slices.Contains(e.Minutes, t.Minute()) &&
		slices.Contains(e.Hours, t.Hour()) &&
		slices.Contains(e.DaysOfMonth, t.Day()) &&
		slices.Contains(e.Months, int(t.Month())) &&
		slices.Contains(e.DaysOfWeek, int(t.Weekday()))
}

// Next returns the smallest instant satisfying the expression that is
// strictly greater than after, at whole-minute precision, evaluated in
// after's location. Returns ErrNoMatchingTime once the scan limit is
// exhausted.
func (e *Expression) Next(after time.Time) (time.Time, error) {
	t := after.Truncate(time.Minute).Add(time.Minute)
	for range e.scanLimit() {
		if e.Matches(t) {
			return t, nil
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, fmt.Errorf("%w: %q after %s", ErrNoMatchingTime, e.raw, after.Format(time.RFC3339))
}

// Prev is the time-reversed counterpart of Next: the largest satisfying
// instant strictly smaller than before.
func (e *Expression) Prev(before time.Time) (time.Time, error) {
	t := before.Truncate(time.Minute)
	if !t.Before(before) {
		t = t.Add(-time.Minute)
	}
	for range e.scanLimit() {
		if e.Matches(t) {
			return t, nil
		}
		t = t.Add(-time.Minute)
	}
	return time.Time{}, fmt.Errorf("%w: %q before %s", ErrNoMatchingTime, e.raw, before.Format(time.RFC3339))
}

func (e *Expression) scanLimit() int {
	if e.ScanLimit > 0 {
		return e.ScanLimit
	}
	return DefaultScanLimit
}
