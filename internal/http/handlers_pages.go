package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			log.FieldError, err)
	}
}

type (
	summaryView struct {
		Balance      string
		TotalIncome  string
		TotalExpense string
		SavingsRate  float64
		ExpenseRate  float64
		Count        int
	}

	monthView struct {
		Label         string
		Income        string
		Expense       string
		IncomeHeight  int // percent of the tallest bar
		ExpenseHeight int
	}

	categoryView struct {
		Category string
		Emoji    string
		Color    string
		Total    string
		Percent  int
	}

	transactionView struct {
		ID       string
		Type     string
		Title    string
		Emoji    string
		Category string
		Note     string
		Date     string
		Amount   string
		Signed   string
	}

	dashboardView struct {
		User     *auth.User
		Greeting string
		Summary  summaryView
		Months   []monthView
		Top      []categoryView
		Recent   []transactionView
	}

	transactionsView struct {
		User         *auth.User
		Search       string
		Type         string
		Category     string
		Categories   []string
		Transactions []transactionView
		Count        int
		Total        int

		// Static category sets for the add-transaction form.
		IncomeCategories  []string
		ExpenseCategories []string
	}

	analyticsView struct {
		User        *auth.User
		Summary     summaryView
		Average     string
		Months      []monthView
		Income      []categoryView
		Expense     []categoryView
		HasActivity bool
	}
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requirePageUser(w, r)
	if !ok {
		return
	}

	txs, err := s.listTransactions(r.Context(), user.UID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard load failed",
			log.FieldUID, user.UID,
			log.FieldError, err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	recent := txs
	if len(recent) > 5 {
		recent = recent[:5]
	}

	data := dashboardView{
		User:     user,
		Greeting: greeting(time.Now(), user),
		Summary:  toSummaryView(core.Summarize(txs)),
		Months:   toMonthViews(core.MonthlySeries(txs, core.DashboardMonths)),
		Top:      toCategoryViews(core.TopExpenseCategories(txs, core.TopExpenseSlices)),
		Recent:   toTransactionViews(recent),
	}
	s.render(w, r, "dashboard.html", data)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requirePageUser(w, r)
	if !ok {
		return
	}

	txs, err := s.listTransactions(r.Context(), user.UID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transactions load failed",
			log.FieldUID, user.UID,
			log.FieldError, err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	filter := parseFilter(r)
	if filter.Type == "all" {
		filter.Type = ""
	}
	filtered := filter.Apply(txs)

	data := transactionsView{
		User:         user,
		Search:       filter.Search,
		Type:         filter.Type.String(),
		Category:     filter.Category,
		Categories:   core.DistinctCategories(txs),
		Transactions: toTransactionViews(filtered),
		Count:        len(filtered),
		Total:        len(txs),

		IncomeCategories:  core.IncomeCategories,
		ExpenseCategories: core.ExpenseCategories,
	}
	s.render(w, r, "transactions.html", data)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requirePageUser(w, r)
	if !ok {
		return
	}

	txs, err := s.listTransactions(r.Context(), user.UID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Analytics load failed",
			log.FieldUID, user.UID,
			log.FieldError, err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	breakdown := core.CategoryBreakdown(txs)
	data := analyticsView{
		User:        user,
		Summary:     toSummaryView(core.Summarize(txs)),
		Average:     core.FormatCurrency(core.AverageAmount(txs)),
		Months:      toMonthViews(core.MonthlySeries(txs, core.AnalyticsMonths)),
		Income:      toCategoryViews(breakdown.Income),
		Expense:     toCategoryViews(breakdown.Expense),
		HasActivity: len(txs) > 0,
	}
	s.render(w, r, "analytics.html", data)
}

// greeting builds the dashboard salutation from the time of day and the
// user's display name.
func greeting(now time.Time, user *auth.User) string {
	var part string
	switch h := now.Hour(); {
	case h < 12:
		part = "Good morning"
	case h < 17:
		part = "Good afternoon"
	default:
		part = "Good evening"
	}
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		name = "there"
	} else if i := strings.IndexByte(name, ' '); i > 0 {
		name = name[:i]
	}
	return part + ", " + name
}

func toSummaryView(s core.Summary) summaryView {
	return summaryView{
		Balance:      core.FormatCurrency(s.Balance),
		TotalIncome:  core.FormatCurrency(s.TotalIncome),
		TotalExpense: core.FormatCurrency(s.TotalExpense),
		SavingsRate:  s.SavingsRate,
		ExpenseRate:  s.ExpenseRate,
		Count:        s.Count,
	}
}

func toMonthViews(series []core.MonthBucket) []monthView {
	var max float64
	for _, b := range series {
		if b.Income > max {
			max = b.Income
		}
		if b.Expense > max {
			max = b.Expense
		}
	}
	out := make([]monthView, 0, len(series))
	for _, b := range series {
		out = append(out, monthView{
			Label:         b.Label,
			Income:        core.FormatCurrency(b.Income),
			Expense:       core.FormatCurrency(b.Expense),
			IncomeHeight:  barSize(b.Income, max),
			ExpenseHeight: barSize(b.Expense, max),
		})
	}
	return out
}

func toCategoryViews(totals []core.CategoryTotal) []categoryView {
	var sum float64
	for _, c := range totals {
		sum += c.Total
	}
	out := make([]categoryView, 0, len(totals))
	for _, c := range totals {
		out = append(out, categoryView{
			Category: c.Category,
			Emoji:    core.CategoryEmoji(c.Category),
			Color:    core.CategoryColor(c.Category),
			Total:    core.FormatCurrency(c.Total),
			Percent:  barSize(c.Total, sum),
		})
	}
	return out
}

func toTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		amount := core.FormatCurrency(t.Amount)
		signed := "+" + amount
		if t.Type == core.Expense {
			signed = "-" + amount
		}
		date := core.FormatDate(t.Date.Time)
		if date == "" {
			date = core.FormatDate(t.CreatedAt)
		}
		out = append(out, transactionView{
			ID:       t.ID,
			Type:     t.Type.String(),
			Title:    t.Title,
			Emoji:    core.CategoryEmoji(t.Category),
			Category: t.Category,
			Note:     t.Note,
			Date:     date,
			Amount:   amount,
			Signed:   signed,
		})
	}
	return out
}

// barSize scales a value to a rounded percent of max, keeping tiny
// non-zero values visible.
func barSize(v, max float64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	p := int(v/max*100 + 0.5)
	if p < 2 {
		p = 2
	}
	if p > 100 {
		p = 100
	}
	return p
}
