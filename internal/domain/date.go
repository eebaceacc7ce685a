package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderDateLayout — человекочитаемый формат даты dd-Mon-yy (например, 17-Nov-20).
const OrderDateLayout = "02-Jan-06"

// ParseOrderDate разбирает дату формата dd-Mon-yy. Регистр месяца
// нормализуется: операторы вводят и 17-nov-20, и 17-NOV-20.
func ParseOrderDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)

	if parts := strings.Split(s, "-"); len(parts) == 3 && parts[1] != "" {
		month := strings.ToLower(parts[1])
		parts[1] = strings.ToUpper(month[:1]) + month[1:]
		s = strings.Join(parts, "-")
	}

	for _, layout := range []string{OrderDateLayout, "2-Jan-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (usage: dd-Mon-yy, e.g. 17-Nov-20)", ErrInvalidDate, raw)
}

// FormatOrderDate приводит дату к формату ввода оператора.
func FormatOrderDate(t time.Time) string {
	return t.Format(OrderDateLayout)
}
