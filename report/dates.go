package report

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

// D, D-1, D+7 : relatif à la date de référence
var relativeDate = regexp.MustCompile(`^D(?:([+-])(\d+))?$`)

// ResolveDate interprète une date absolue (YYYY-MM-DD) ou relative à ref
// ("D", "D-1", "D+7"). Le résultat est à minuit, dans la zone de ref.
func ResolveDate(expr string, ref time.Time) (time.Time, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	if m := relativeDate.FindStringSubmatch(expr); m != nil {
		if m[1] == "" {
			return day, nil
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("bad date %q: %w", expr, err)
		}
		if m[1] == "-" {
			n = -n
		}
		return day.AddDate(0, 0, n), nil
	}
	t, err := time.ParseInLocation(DateLayout, expr, ref.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", expr, err)
	}
	return t, nil
}

func IsDateExpr(expr string) bool {
	_, err := ResolveDate(expr, time.Now())
	return err == nil
}

// ReferenceDate returns the reference_date param, or today when absent.
func ReferenceDate(params Params, now time.Time) (time.Time, error) {
	v, ok := params[ReferenceDateParam]
	if !ok || v == "" {
		return ResolveDate("D", now)
	}
	return ResolveDate(v, now)
}
