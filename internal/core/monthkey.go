package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthKey identifies the month a transaction is filed under. It is a
// structured (year, month) pair so keys sort and offset correctly; Label
// renders the pt-BR "janeiro de 2025" form the stored rows use, and
// ParseMonthLabel accepts exactly that form back. Two records belong to the
// same bucket iff their keys are equal.
type MonthKey struct {
	Year  int
	Month time.Month
}

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// MonthKeyOf returns the bucket for a calendar date.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// MonthKeyFor returns the bucket a Date files under.
func MonthKeyFor(d Date) MonthKey {
	return MonthKeyOf(d.Time)
}

func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

func (k MonthKey) Validate() error {
	if k.Year < 1 || k.Month < time.January || k.Month > time.December {
		return fmt.Errorf("%w: invalid month bucket %d-%d", ErrInvalidInput, k.Year, int(k.Month))
	}
	return nil
}

// AddMonths returns the key n months later (or earlier for negative n),
// normalizing across year boundaries. Pure month arithmetic: no day-of-month
// overflow is involved.
func (k MonthKey) AddMonths(n int) MonthKey {
	months := k.Year*12 + int(k.Month) - 1 + n
	return MonthKey{Year: months / 12, Month: time.Month(months%12 + 1)}
}

// Label renders the bucket as the locale string stored with every row,
// e.g. "março de 2025".
func (k MonthKey) Label() string {
	if k.Month < time.January || k.Month > time.December {
		return ""
	}
	return monthNames[k.Month-1] + " de " + strconv.Itoa(k.Year)
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// ParseMonthLabel parses a label produced by Label. Anything else is rejected;
// bucket labels are an internal wire format, not user input.
func ParseMonthLabel(s string) (MonthKey, error) {
	name, yearStr, ok := strings.Cut(strings.TrimSpace(s), " de ")
	if !ok {
		return MonthKey{}, fmt.Errorf("%w: malformed month label %q", ErrInvalidInput, s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 {
		return MonthKey{}, fmt.Errorf("%w: malformed month label %q", ErrInvalidInput, s)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for i, m := range monthNames {
		if m == name {
			return MonthKey{Year: year, Month: time.Month(i + 1)}, nil
		}
	}
	return MonthKey{}, fmt.Errorf("%w: unknown month name %q", ErrInvalidInput, name)
}
