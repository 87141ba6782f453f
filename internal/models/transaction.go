// Package models provides the data structures used throughout the application.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction represents a single transaction lifted from the app's history list.
type Transaction struct {
	Date             string          `csv:"Date"`             // Date label exactly as rendered by the UI (e.g. "SUN, 5 OCTOBER")
	Description      string          `csv:"Description"`      // Merchant or transfer label
	Amount           decimal.Decimal `csv:"Amount"`           // Signed amount, negative for spending
	Currency         string          `csv:"Currency"`         // Currency code (AED, USD, etc)
	Category         string          `csv:"Category"`         // Category label shown by the UI, empty when absent
	OriginalAmount   decimal.Decimal `csv:"OriginalAmount"`   // Amount in the original currency for foreign transactions
	OriginalCurrency string          `csv:"OriginalCurrency"` // Original currency code for foreign transactions
}

// Key returns the dedup identity of the transaction. Two records with the
// same key are the same transaction even when revealed on different scroll
// passes.
func (t *Transaction) Key() string {
	return fmt.Sprintf("%s|%s|%s", t.Date, t.Description, t.Amount.String())
}

// IsSpending reports whether the transaction is a spend (negative amount).
// Credits and refunds carry positive amounts.
func (t *Transaction) IsSpending() bool {
	return t.Amount.IsNegative()
}

// HasOriginalAmount reports whether a secondary foreign-currency amount was
// captured alongside the account-currency amount.
func (t *Transaction) HasOriginalAmount() bool {
	return t.OriginalCurrency != "" && !t.OriginalAmount.IsZero()
}

// NormalizeScale pins the decimal fields to two decimal places so CSV output
// is stable regardless of how the amounts were computed.
func (t *Transaction) NormalizeScale() {
	t.Amount = rescale(t.Amount)
	if t.HasOriginalAmount() {
		t.OriginalAmount = rescale(t.OriginalAmount)
	}
}

func rescale(d decimal.Decimal) decimal.Decimal {
	rescaled, err := decimal.NewFromString(d.StringFixed(2))
	if err != nil {
		return d
	}
	return rescaled
}
