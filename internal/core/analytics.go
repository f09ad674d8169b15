package core

import (
	"math"
	"sort"
	"time"
)

type (
	// Summary holds the derived totals recomputed from the full
	// transaction list on every snapshot. Nothing here is persisted.
	Summary struct {
		TotalIncome  float64
		TotalExpense float64
		Balance      float64
		SavingsRate  float64 // percent, 0 when there is no income
		ExpenseRate  float64 // percent, 0 when there is no income
		Count        int
	}

	// MonthBucket is one calendar month of the income/expense series.
	MonthBucket struct {
		Label   string // e.g. "Jan 25"
		Year    int
		Month   time.Month
		Income  float64
		Expense float64
	}

	// CategoryTotal is one slice of a per-category breakdown.
	CategoryTotal struct {
		Category string
		Total    float64
	}

	// Breakdown holds per-category totals split by transaction type,
	// each side sorted descending by total.
	Breakdown struct {
		Income  []CategoryTotal
		Expense []CategoryTotal
	}
)

// Bucket counts used by the two chart views.
const (
	DashboardMonths  = 6
	AnalyticsMonths  = 8
	TopExpenseSlices = 6
)

// Summarize computes the aggregate totals for a transaction list.
func Summarize(txs []Transaction) Summary {
	s := Summary{Count: len(txs)}
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome += t.Amount
		case Expense:
			s.TotalExpense += t.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	if s.TotalIncome > 0 {
		s.SavingsRate = math.Round(s.Balance / s.TotalIncome * 100)
		s.ExpenseRate = math.Round(s.TotalExpense / s.TotalIncome * 100)
	}
	return s
}

// AverageAmount returns the mean absolute transaction amount, 0 for an
// empty list.
func AverageAmount(txs []Transaction) float64 {
	if len(txs) == 0 {
		return 0
	}
	s := Summarize(txs)
	return (s.TotalIncome + s.TotalExpense) / float64(len(txs))
}

// MonthlySeries groups transactions into calendar-month buckets keyed
// by the server creation timestamp and returns the most recent n
// buckets in chronological order. Buckets are sorted by an explicit
// (year, month) key rather than relying on the input being
// reverse-chronological. A transaction without a creation timestamp
// falls into the current month.
func MonthlySeries(txs []Transaction, n int) []MonthBucket {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthBucket)
	for _, t := range txs {
		ts := t.CreatedAt
		if ts.IsZero() {
			ts = time.Now()
		}
		k := key{ts.Year(), ts.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{
				Label: ts.Format("Jan 06"),
				Year:  k.year,
				Month: k.month,
			}
			buckets[k] = b
		}
		if t.Type == Income {
			b.Income += t.Amount
		} else {
			b.Expense += t.Amount
		}
	}

	series := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, *b)
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Year != series[j].Year {
			return series[i].Year < series[j].Year
		}
		return series[i].Month < series[j].Month
	})
	if n > 0 && len(series) > n {
		series = series[len(series)-n:]
	}
	return series
}

// CategoryBreakdown partitions transactions by type and sums amounts
// per category. Each side is sorted descending by total; ties keep
// their first-seen relative order.
func CategoryBreakdown(txs []Transaction) Breakdown {
	income := map[string]float64{}
	expense := map[string]float64{}
	var incomeOrder, expenseOrder []string
	for _, t := range txs {
		target, order := income, &incomeOrder
		if t.Type == Expense {
			target, order = expense, &expenseOrder
		}
		if _, seen := target[t.Category]; !seen {
			*order = append(*order, t.Category)
		}
		target[t.Category] += t.Amount
	}
	return Breakdown{
		Income:  sortedTotals(income, incomeOrder),
		Expense: sortedTotals(expense, expenseOrder),
	}
}

// TopExpenseCategories returns the n largest expense categories, as
// shown on the dashboard spending chart.
func TopExpenseCategories(txs []Transaction, n int) []CategoryTotal {
	expense := CategoryBreakdown(txs).Expense
	if n > 0 && len(expense) > n {
		expense = expense[:n]
	}
	return expense
}

func sortedTotals(sums map[string]float64, order []string) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(sums))
	for _, name := range order {
		out = append(out, CategoryTotal{Category: name, Total: sums[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}
