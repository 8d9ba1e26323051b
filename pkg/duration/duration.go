// Package duration resolves the free-form supply duration attached to order
// line items ("14 Days", "1 Month", "3 months") into a month count.
package duration

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the unit of a parsed duration.
type Kind int

const (
	Days Kind = iota + 1
	Months
)

func (k Kind) String() string {
	switch k {
	case Days:
		return "days"
	case Months:
		return "months"
	default:
		return "unknown"
	}
}

// Spec is a parsed duration.
type Spec struct {
	Kind  Kind
	Count int
}

// daysPerMonth is the divisor used to turn a day count into whole months.
const daysPerMonth = 30

var specRe = regexp.MustCompile(`^(\d+)\s*(days?|months?)$`)

// Parse reads "<count> <unit>" where unit is day(s) or month(s), case-insensitive.
func Parse(s string) (Spec, bool) {
	m := specRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Spec{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Spec{}, false
	}
	kind := Months
	if strings.HasPrefix(m[2], "day") {
		kind = Days
	}
	return Spec{Kind: kind, Count: n}, true
}

// Months returns the number of months covered by s, never less than 1.
func (s Spec) Months() int {
	n := s.Count
	if s.Kind == Days {
		n = int(math.Ceil(float64(s.Count) / daysPerMonth))
	}
	if n < 1 {
		return 1
	}
	return n
}

// ResolveMonths parses raw and returns its month count. Missing or
// unparseable specs resolve to 1.
func ResolveMonths(raw *string) int {
	if raw == nil {
		return 1
	}
	spec, ok := Parse(*raw)
	if !ok {
		return 1
	}
	return spec.Months()
}
