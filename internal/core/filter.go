package core

import "strings"

// Filter describes the list-view controls: free-text search over title
// and category, a type filter and a category filter. Zero values mean
// "match everything".
type Filter struct {
	Search   string
	Type     TransactionType // empty = all
	Category string          // empty = all
}

// Apply returns the transactions matching the filter, preserving input
// order. It is a pure function of its inputs and always returns a
// subset of the input list.
func (f Filter) Apply(txs []Transaction) []Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Category), search) {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DistinctCategories returns the distinct categories present in the
// list, in first-seen order. The category filter offers these rather
// than the full static sets, so users only filter by values that
// actually occur.
func DistinctCategories(txs []Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range txs {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}
