package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// maxBodySize bounds API request bodies.
const maxBodySize = 1 << 20

// transactionPayload is the request body for create and update.
type transactionPayload struct {
	Type     string  `json:"type"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
	Date     string  `json:"date"`
}

// decodeTransactionPayload reads and decodes a transaction body.
func decodeTransactionPayload(r *http.Request) (transactionPayload, error) {
	var p transactionPayload
	body := io.LimitReader(r.Body, maxBodySize)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return transactionPayload{}, errors.New("invalid request body")
	}
	return p, nil
}

// toDraft converts the payload into a domain draft. The date is
// optional; when present it must be an ISO calendar date.
func (p transactionPayload) toDraft() (core.Draft, error) {
	draft := core.Draft{
		Type:     core.TransactionType(strings.TrimSpace(strings.ToLower(p.Type))),
		Title:    sanitizeInput(p.Title),
		Amount:   p.Amount,
		Category: strings.TrimSpace(p.Category),
		Note:     sanitizeInput(p.Note),
	}
	if strings.TrimSpace(p.Date) != "" {
		d, err := core.ParseDate(p.Date)
		if err != nil {
			return core.Draft{}, errors.New("invalid date, want YYYY-MM-DD")
		}
		draft.Date = d
	}
	return draft, nil
}

// parseFilter reads the list-view filter from query parameters.
func parseFilter(r *http.Request) core.Filter {
	q := r.URL.Query()
	return core.Filter{
		Search:   strings.TrimSpace(q.Get("search")),
		Type:     core.TransactionType(strings.TrimSpace(strings.ToLower(q.Get("type")))),
		Category: strings.TrimSpace(q.Get("category")),
	}
}

// sanitizeInput trims whitespace and removes control characters except
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
