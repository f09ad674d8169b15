package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// transactionJSON is the wire shape of a transaction.
type transactionJSON struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
	Note      string  `json:"note,omitempty"`
	Date      string  `json:"date,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:       t.ID,
		Type:     t.Type.String(),
		Title:    t.Title,
		Amount:   t.Amount,
		Category: t.Category,
		Note:     t.Note,
		Date:     t.Date.ISO(),
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339Nano)
	}
	if !t.UpdatedAt.IsZero() {
		out.UpdatedAt = t.UpdatedAt.Format(time.RFC3339Nano)
	}
	return out
}

func toTransactionListJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

// summaryJSON is the wire shape of the derived totals.
type summaryJSON struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
	SavingsRate  float64 `json:"savings_rate"`
	ExpenseRate  float64 `json:"expense_rate"`
	Count        int     `json:"count"`
}

func toSummaryJSON(s core.Summary) summaryJSON {
	return summaryJSON{
		TotalIncome:  s.TotalIncome,
		TotalExpense: s.TotalExpense,
		Balance:      s.Balance,
		SavingsRate:  s.SavingsRate,
		ExpenseRate:  s.ExpenseRate,
		Count:        s.Count,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store failures to HTTP statuses. Transactions
// owned by someone else look absent, same as ids that never existed.
func writeStoreError(w http.ResponseWriter, err error) {
	var we *store.WriteError
	if errors.As(err, &we) {
		switch {
		case errors.Is(we.Err, store.ErrNotFound),
			errors.Is(we.Err, store.ErrOwnershipMismatch):
			writeJSONError(w, http.StatusNotFound, "transaction not found")
		default:
			writeJSONError(w, http.StatusInternalServerError, "write failed")
		}
		return
	}
	// Anything else is a validation failure from the domain layer.
	writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
}
