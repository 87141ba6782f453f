// Package currencyutils provides amount and currency-code extraction for the
// amount fragments the app renders, e.g. "-151,000.00 AED" or "(47.24) USD".
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// Three-letter currency code standing alone in the fragment.
	currencyCodePattern = regexp.MustCompile(`(?:^|[\s(])([A-Z]{3})(?:[\s)]|$)`)

	// A number wrapped in parentheses denotes a negative amount.
	parenthesesPattern = regexp.MustCompile(`\(\s*[^)]*\d[^)]*\)`)

	// Signed decimal number after separators have been standardized.
	numberPattern = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)

	// Currency symbols and codes stripped before numeric parsing.
	symbolPattern = regexp.MustCompile(`[€$£¥₣₹₺₽₩฿₫] ?|[A-Za-z]+`)
)

// ContainsAmount reports whether the fragment is a monetary amount with an
// explicit currency code: a number and a standalone three-letter code, and no
// other words. Amount rows in the history list always carry the code, which is
// what separates them from labels, but the code must stand alone with the
// number: "THU, 1 MAY" and "Gift 4 YOU" carry a trigram and a digit without
// being amounts.
func ContainsAmount(fragment string) bool {
	code := ExtractCurrencyCode(fragment)
	if code == "" {
		return false
	}
	rest := strings.Replace(fragment, code, "", 1)
	for _, r := range rest {
		if unicode.IsLetter(r) {
			return false
		}
	}
	_, _, err := ParseAmountWithCurrency(fragment)
	return err == nil
}

// ExtractCurrencyCode returns the first standalone three-letter currency code
// in the fragment, or empty when none is present.
func ExtractCurrencyCode(fragment string) string {
	matches := currencyCodePattern.FindStringSubmatch(fragment)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// ParseAmountWithCurrency normalizes one amount fragment into a signed
// decimal and its currency code. It handles currency symbols and codes,
// thousands separators (commas and apostrophes), decimal commas, a leading
// sign, and the parenthesis-as-negative convention.
func ParseAmountWithCurrency(fragment string) (decimal.Decimal, string, error) {
	if strings.TrimSpace(fragment) == "" {
		return decimal.Zero, "", fmt.Errorf("empty amount fragment")
	}

	currency := ExtractCurrencyCode(fragment)
	negative := parenthesesPattern.MatchString(fragment)

	standardized := StandardizeAmount(fragment)
	number := numberPattern.FindString(standardized)
	if number == "" {
		return decimal.Zero, "", fmt.Errorf("no numeric amount in %q", fragment)
	}

	amount, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("failed to parse amount %q: %w", fragment, err)
	}

	if negative && !amount.IsNegative() {
		amount = amount.Neg()
	}

	return amount, currency, nil
}

// StandardizeAmount strips currency symbols and codes and converts the
// remaining number to a form decimal.NewFromString accepts. Handles
// "1,234.56", "1.234,56", "1'234.56" and plain "1234,56".
func StandardizeAmount(amountStr string) string {
	// Keep the leading sign before stripping letters and symbols.
	amountStr = strings.TrimSpace(amountStr)
	amountStr = symbolPattern.ReplaceAllString(amountStr, "")
	amountStr = strings.ReplaceAll(amountStr, "(", "")
	amountStr = strings.ReplaceAll(amountStr, ")", "")
	amountStr = strings.ReplaceAll(amountStr, " ", "")
	amountStr = strings.ReplaceAll(amountStr, " ", "")

	// European format (1.234,56) -> (1234.56)
	if strings.Contains(amountStr, ",") && strings.Contains(amountStr, ".") {
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// Comma is the thousands separator (151,000.00)
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	} else if strings.Contains(amountStr, ",") {
		parts := strings.Split(amountStr, ",")
		if len(parts) > 1 && len(parts[len(parts)-1]) <= 2 {
			// Comma used as decimal separator (1234,56)
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// Comma used as thousands separator (151,000)
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	// Apostrophes used as thousands separators (1'234.56)
	amountStr = strings.ReplaceAll(amountStr, "'", "")

	return amountStr
}

// FormatAmount renders a decimal with two decimal places and its currency
// code, e.g. "AED -45.50".
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}
