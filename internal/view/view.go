// Package view computes the presentation of the fee store: search filter,
// column sort, class grouping and aggregate totals. Everything here is pure;
// the store is never mutated.
package view

import (
	"sort"
	"strings"

	"github.com/noah-isme/sma-fee-sync/internal/collation"
	"github.com/noah-isme/sma-fee-sync/internal/models"
)

// Derive recomputes the full view from the given records, search term and
// sort state. Totals cover the search-filtered set, not the whole store.
func Derive(fees []models.FeeRecord, search string, sortState models.SortState) models.FeeView {
	filtered := filterBySearch(fees, search)
	sortFees(filtered, sortState)

	return models.FeeView{
		Fees:   filtered,
		Groups: groupByClass(filtered),
		Totals: sumTotals(filtered),
		Sort:   sortState,
	}
}

// Toggle returns the next sort state for a column click: a new column sorts
// ascending, clicking the active column flips the direction.
func Toggle(current models.SortState, column models.SortColumn) models.SortState {
	if current.Column == column {
		return models.SortState{Column: column, Descending: !current.Descending}
	}
	return models.SortState{Column: column}
}

func filterBySearch(fees []models.FeeRecord, search string) []models.FeeRecord {
	out := make([]models.FeeRecord, 0, len(fees))
	needle := strings.ToLower(strings.TrimSpace(search))
	for _, fee := range fees {
		if needle == "" || strings.Contains(strings.ToLower(fee.StudentName), needle) {
			out = append(out, fee)
		}
	}
	return out
}

// sortFees orders records by the chosen column. Records without a payment
// date always sort after dated ones, in either direction, so rows needing
// follow-up surface at the bottom rather than the top.
func sortFees(fees []models.FeeRecord, state models.SortState) {
	if state.Column == "" {
		return
	}

	sort.SliceStable(fees, func(i, j int) bool {
		a, b := fees[i], fees[j]

		if state.Column == models.SortByDateReceived {
			switch {
			case a.DateReceived == nil && b.DateReceived == nil:
				return false
			case a.DateReceived == nil:
				return false
			case b.DateReceived == nil:
				return true
			}
			if state.Descending {
				return a.DateReceived.After(*b.DateReceived)
			}
			return a.DateReceived.Before(*b.DateReceived)
		}

		c := compareColumn(a, b, state.Column)
		if state.Descending {
			return c > 0
		}
		return c < 0
	})
}

func compareColumn(a, b models.FeeRecord, column models.SortColumn) int {
	switch column {
	case models.SortByStudentName:
		return strings.Compare(strings.ToLower(a.StudentName), strings.ToLower(b.StudentName))
	case models.SortByStudentClass:
		return collation.Compare(a.StudentClass, b.StudentClass)
	case models.SortByTotalFee:
		return compareFloat(a.TotalFee, b.TotalFee)
	case models.SortByPaidAmount:
		return compareFloat(a.PaidAmount, b.PaidAmount)
	case models.SortByBalanceDue:
		return compareFloat(a.BalanceDue, b.BalanceDue)
	case models.SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func groupByClass(fees []models.FeeRecord) []models.ClassGroup {
	buckets := make(map[string][]models.FeeRecord)
	classes := make([]string, 0)
	for _, fee := range fees {
		if _, seen := buckets[fee.StudentClass]; !seen {
			classes = append(classes, fee.StudentClass)
		}
		buckets[fee.StudentClass] = append(buckets[fee.StudentClass], fee)
	}

	sort.SliceStable(classes, func(i, j int) bool {
		return collation.Less(classes[i], classes[j])
	})

	groups := make([]models.ClassGroup, 0, len(classes))
	for _, class := range classes {
		groups = append(groups, models.ClassGroup{
			StudentClass: class,
			Fees:         buckets[class],
			Subtotal:     sumTotals(buckets[class]),
		})
	}
	return groups
}

func sumTotals(fees []models.FeeRecord) models.Totals {
	totals := models.Totals{Count: len(fees)}
	for _, fee := range fees {
		totals.TotalFee += fee.TotalFee
		totals.PaidAmount += fee.PaidAmount
		totals.BalanceDue += fee.BalanceDue
	}
	return totals
}
