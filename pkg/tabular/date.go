package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
}

// ParseDate accepts ISO dates, a handful of common spreadsheet layouts and
// Excel serial day numbers. The returned time is a UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 1 && serial <= 2958465 {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				return truncateDay(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("date %q out of range", raw)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
