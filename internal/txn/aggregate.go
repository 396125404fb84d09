package txn

import (
	"fmt"
	"strings"
	"time"
)

// TypeAll disables the type filter; otherwise pass string(KindChat) or
// string(KindCall).
const TypeAll = "all"

// DateRange selects the lower time bound of the date filter, computed
// from "now" truncated to local midnight.
type DateRange string

const (
	DateAll   DateRange = "all"
	DateToday DateRange = "today"
	DateWeek  DateRange = "week"
	DateMonth DateRange = "month"
	DateYear  DateRange = "year"
)

var monthNames = []string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Filter applies the three list filters conjunctively: case-insensitive
// substring match of query against the user name, exact type match, and a
// timestamp lower bound derived from dateRange and now. Empty query,
// TypeAll and DateAll each skip their filter. Input order is preserved and
// the input is never mutated.
func Filter(transactions []Transaction, query, typeFilter string, dateRange DateRange, now time.Time) []Transaction {
	query = strings.ToLower(strings.TrimSpace(query))
	bound, bounded := dateLowerBound(dateRange, now)

	filtered := make([]Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		if query != "" && !strings.Contains(strings.ToLower(transaction.UserName), query) {
			continue
		}
		if typeFilter != TypeAll && string(transaction.Type) != typeFilter {
			continue
		}
		if bounded && transaction.Timestamp.Before(bound) {
			continue
		}
		filtered = append(filtered, transaction)
	}
	return filtered
}

// dateLowerBound computes the inclusive lower bound for a date range. The
// second return value is false for DateAll.
func dateLowerBound(dateRange DateRange, now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch dateRange {
	case DateToday:
		return midnight, true
	case DateWeek:
		return midnight.AddDate(0, 0, -7), true
	case DateMonth:
		return midnight.AddDate(0, -1, 0), true
	case DateYear:
		return midnight.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// MonthKey renders the bucket key for a timestamp, e.g. "JAN 2025".
func MonthKey(timestamp time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[int(timestamp.Month())-1], timestamp.Year())
}

// GroupByMonth buckets transactions by month and year. Bucket order is
// first-encounter order while iterating the input (newest-first input
// therefore yields newest-first buckets); transactions within a bucket
// keep their relative input order.
func GroupByMonth(transactions []Transaction) (map[string][]Transaction, []string) {
	grouped := map[string][]Transaction{}
	order := []string{}
	for _, transaction := range transactions {
		key := MonthKey(transaction.Timestamp)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], transaction)
	}
	return grouped, order
}

// FormatDisplayDate renders a timestamp the way the transaction rows show
// it: "h:mmam/pm, Dth mon'YY" with a 12-hour clock, lowercase am/pm and
// zero-padded minutes. The day suffix is always "th" irrespective of the
// day, matching the shipped behaviour.
func FormatDisplayDate(timestamp time.Time) string {
	hours := timestamp.Hour()
	ampm := "am"
	if hours >= 12 {
		ampm = "pm"
	}
	displayHours := hours % 12
	if displayHours == 0 {
		displayHours = 12
	}
	month := strings.ToLower(monthNames[int(timestamp.Month())-1])
	year := timestamp.Year() % 100
	return fmt.Sprintf("%d:%02d%s, %dth %s'%02d", displayHours, timestamp.Minute(), ampm, timestamp.Day(), month, year)
}

// Totals sums completed and pending amounts for the earnings header.
func Totals(transactions []Transaction) (received, pending int64) {
	for _, transaction := range transactions {
		switch transaction.Status {
		case StatusPending:
			pending += transaction.Amount
		default:
			received += transaction.Amount
		}
	}
	return received, pending
}
