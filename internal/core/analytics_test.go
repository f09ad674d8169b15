package core

import (
	"math"
	"testing"
	"time"
)

func tx(typ TransactionType, amount float64, category string, created time.Time) Transaction {
	return Transaction{
		ID:        "id",
		UID:       "u1",
		Type:      typ,
		Title:     "t",
		Amount:    amount,
		Category:  category,
		CreatedAt: created,
	}
}

func TestSummarizeExampleScenario(t *testing.T) {
	now := time.Now()
	list := []Transaction{
		tx(Income, 5000, "Salary", now),
		tx(Expense, 1200, "Food", now),
		tx(Expense, 300, "Food", now),
	}

	s := Summarize(list)
	if s.TotalIncome != 5000 {
		t.Errorf("TotalIncome = %v, want 5000", s.TotalIncome)
	}
	if s.TotalExpense != 1500 {
		t.Errorf("TotalExpense = %v, want 1500", s.TotalExpense)
	}
	if s.Balance != 3500 {
		t.Errorf("Balance = %v, want 3500", s.Balance)
	}

	expense := CategoryBreakdown(list).Expense
	if len(expense) != 1 || expense[0].Category != "Food" || expense[0].Total != 1500 {
		t.Errorf("expense breakdown = %+v, want [{Food 1500}]", expense)
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	now := time.Now()
	lists := [][]Transaction{
		nil,
		{tx(Income, 1, "Salary", now)},
		{tx(Expense, 99.99, "Rent", now), tx(Income, 0.01, "Gift", now)},
		{
			tx(Income, 1234.56, "Freelance", now),
			tx(Expense, 78.9, "Transport", now),
			tx(Expense, 1000, "Rent", now),
			tx(Income, 5, "Bonus", now),
		},
	}
	for _, list := range lists {
		s := Summarize(list)
		if s.Balance != s.TotalIncome-s.TotalExpense {
			t.Errorf("balance %v != income %v - expense %v", s.Balance, s.TotalIncome, s.TotalExpense)
		}
	}
}

func TestSummarizeRates(t *testing.T) {
	now := time.Now()
	s := Summarize([]Transaction{
		tx(Income, 1000, "Salary", now),
		tx(Expense, 250, "Food", now),
	})
	if s.SavingsRate != 75 {
		t.Errorf("SavingsRate = %v, want 75", s.SavingsRate)
	}
	if s.ExpenseRate != 25 {
		t.Errorf("ExpenseRate = %v, want 25", s.ExpenseRate)
	}

	// No income: both rates are zero, never NaN.
	s = Summarize([]Transaction{tx(Expense, 10, "Food", now)})
	if s.SavingsRate != 0 || s.ExpenseRate != 0 {
		t.Errorf("rates without income = %v/%v, want 0/0", s.SavingsRate, s.ExpenseRate)
	}
}

func TestCategoryBreakdownPartitionsTotals(t *testing.T) {
	now := time.Now()
	list := []Transaction{
		tx(Income, 5000, "Salary", now),
		tx(Income, 800, "Freelance", now),
		tx(Expense, 1200, "Food", now),
		tx(Expense, 300, "Food", now),
		tx(Expense, 450.25, "Transport", now),
	}

	s := Summarize(list)
	b := CategoryBreakdown(list)

	sum := func(cts []CategoryTotal) float64 {
		var total float64
		for _, ct := range cts {
			total += ct.Total
		}
		return total
	}
	if got := sum(b.Income); math.Abs(got-s.TotalIncome) > 1e-9 {
		t.Errorf("income partition sums to %v, want %v", got, s.TotalIncome)
	}
	if got := sum(b.Expense); math.Abs(got-s.TotalExpense) > 1e-9 {
		t.Errorf("expense partition sums to %v, want %v", got, s.TotalExpense)
	}

	for i := 1; i < len(b.Expense); i++ {
		if b.Expense[i-1].Total < b.Expense[i].Total {
			t.Errorf("expense breakdown not descending at %d: %+v", i, b.Expense)
		}
	}
	for i := 1; i < len(b.Income); i++ {
		if b.Income[i-1].Total < b.Income[i].Total {
			t.Errorf("income breakdown not descending at %d: %+v", i, b.Income)
		}
	}
}

func TestTopExpenseCategoriesCap(t *testing.T) {
	now := time.Now()
	var list []Transaction
	for i, c := range ExpenseCategories {
		list = append(list, tx(Expense, float64(100+i), c, now))
	}
	top := TopExpenseCategories(list, TopExpenseSlices)
	if len(top) != TopExpenseSlices {
		t.Fatalf("len(top) = %d, want %d", len(top), TopExpenseSlices)
	}
	// Largest category first.
	if top[0].Category != ExpenseCategories[len(ExpenseCategories)-1] {
		t.Errorf("top[0] = %+v", top[0])
	}
}

func TestMonthlySeriesBucketsByCalendarMonth(t *testing.T) {
	jan1 := time.Date(2025, time.January, 1, 3, 0, 0, 0, time.UTC)
	jan28 := time.Date(2025, time.January, 28, 23, 59, 0, 0, time.UTC)
	feb2 := time.Date(2025, time.February, 2, 12, 0, 0, 0, time.UTC)

	series := MonthlySeries([]Transaction{
		tx(Income, 100, "Salary", jan1),
		tx(Expense, 40, "Food", jan28),
		tx(Expense, 10, "Food", feb2),
	}, AnalyticsMonths)

	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2", len(series))
	}
	if series[0].Label != "Jan 25" || series[0].Income != 100 || series[0].Expense != 40 {
		t.Errorf("january bucket = %+v", series[0])
	}
	if series[1].Label != "Feb 25" || series[1].Expense != 10 {
		t.Errorf("february bucket = %+v", series[1])
	}
}

func TestMonthlySeriesChronologicalRegardlessOfInputOrder(t *testing.T) {
	mk := func(y int, m time.Month) Transaction {
		return tx(Expense, 1, "Food", time.Date(y, m, 15, 0, 0, 0, 0, time.UTC))
	}
	// Shuffled input: the series must still come out oldest-to-newest.
	series := MonthlySeries([]Transaction{
		mk(2025, time.March), mk(2024, time.December), mk(2025, time.January), mk(2025, time.February),
	}, AnalyticsMonths)

	want := []string{"Dec 24", "Jan 25", "Feb 25", "Mar 25"}
	if len(series) != len(want) {
		t.Fatalf("len(series) = %d, want %d", len(series), len(want))
	}
	for i, label := range want {
		if series[i].Label != label {
			t.Errorf("series[%d].Label = %q, want %q", i, series[i].Label, label)
		}
	}
}

func TestMonthlySeriesKeepsTrailingBuckets(t *testing.T) {
	var list []Transaction
	for m := time.January; m <= time.December; m++ {
		list = append(list, tx(Expense, 1, "Food", time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC)))
	}
	series := MonthlySeries(list, DashboardMonths)
	if len(series) != DashboardMonths {
		t.Fatalf("len(series) = %d, want %d", len(series), DashboardMonths)
	}
	if series[0].Month != time.July || series[len(series)-1].Month != time.December {
		t.Errorf("unexpected window: %+v", series)
	}
}

func TestMonthlySeriesZeroCreatedAtFallsIntoCurrentMonth(t *testing.T) {
	series := MonthlySeries([]Transaction{tx(Expense, 5, "Food", time.Time{})}, DashboardMonths)
	if len(series) != 1 {
		t.Fatalf("len(series) = %d, want 1", len(series))
	}
	now := time.Now()
	if series[0].Year != now.Year() || series[0].Month != now.Month() {
		t.Errorf("bucket = %+v, want current month", series[0])
	}
}

func TestAverageAmount(t *testing.T) {
	now := time.Now()
	if AverageAmount(nil) != 0 {
		t.Error("average of empty list should be 0")
	}
	got := AverageAmount([]Transaction{
		tx(Income, 100, "Salary", now),
		tx(Expense, 50, "Food", now),
	})
	if got != 75 {
		t.Errorf("AverageAmount = %v, want 75", got)
	}
}
