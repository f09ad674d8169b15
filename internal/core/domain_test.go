package core

import (
	"errors"
	"testing"
)

func validDraft() Draft {
	return Draft{
		Type:     Expense,
		Title:    "Groceries",
		Amount:   42.50,
		Category: "Food",
		Date:     NewDate(2025, 6, 1),
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		wantErr error
	}{
		{"valid expense", func(d *Draft) {}, nil},
		{"valid income", func(d *Draft) {
			d.Type = Income
			d.Category = "Salary"
		}, nil},
		{"unknown type", func(d *Draft) { d.Type = "transfer" }, ErrInvalidType},
		{"empty title", func(d *Draft) { d.Title = "   " }, ErrEmptyTitle},
		{"zero amount", func(d *Draft) { d.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(d *Draft) { d.Amount = -10 }, ErrInvalidAmount},
		{"empty category", func(d *Draft) { d.Category = "" }, ErrEmptyCategory},
		{"income category on expense", func(d *Draft) { d.Category = "Salary" }, ErrUnknownCategory},
		{"expense category on income", func(d *Draft) {
			d.Type = Income
			d.Category = "Food"
		}, ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionValidateRequiresOwner(t *testing.T) {
	tx := Transaction{
		Type:     Expense,
		Title:    "Lunch",
		Amount:   12,
		Category: "Food",
	}
	if err := tx.Validate(); err == nil {
		t.Fatal("expected error for missing uid")
	}
	tx.UID = "u1"
	if err := tx.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestCategoryAllowed(t *testing.T) {
	if !CategoryAllowed(Income, "Salary") {
		t.Error("Salary should be a valid income category")
	}
	if CategoryAllowed(Income, "Food") {
		t.Error("Food should not be a valid income category")
	}
	if !CategoryAllowed(Expense, "Rent") {
		t.Error("Rent should be a valid expense category")
	}
	if CategoryAllowed("transfer", "Food") {
		t.Error("unknown type should have no categories")
	}
}

func TestCategoryMetadataFallbacks(t *testing.T) {
	if CategoryEmoji("Nope") != "💳" {
		t.Error("unknown category should fall back to the generic emoji")
	}
	if CategoryColor("Nope") != "#4F8EF7" {
		t.Error("unknown category should fall back to the default color")
	}
	if CategoryEmoji("Food") == "💳" {
		t.Error("known category should have its own emoji")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 6 || d.Day() != 1 {
		t.Errorf("unexpected date: %v", d)
	}
	if d.ISO() != "2025-06-01" {
		t.Errorf("ISO() = %q", d.ISO())
	}
	if _, err := ParseDate("01/06/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if (Date{}).ISO() != "" {
		t.Error("zero date should render as empty string")
	}
}
