// Package labelparser converts the text fragments of one history-list item
// into a transaction record, a date-header marker, or a skip. Parsing is a
// pure function: a malformed item never produces an error, only a skip, so a
// single bad UI row cannot abort a collection run.
package labelparser

import (
	"regexp"

	"wio-csv/internal/currencyutils"
	"wio-csv/internal/dateutils"
	"wio-csv/internal/models"
	"wio-csv/internal/textutils"
)

// Kind discriminates the three parse outcomes.
type Kind int

const (
	// KindSkip marks an item that is not a transaction: a banner, a loading
	// placeholder, or an unrecognized layout.
	KindSkip Kind = iota
	// KindRecord marks a parsed transaction record.
	KindRecord
	// KindDateHeader marks a section header establishing date context for
	// the rows below it on the same screen.
	KindDateHeader
)

// Result is the tagged outcome of parsing one list item.
type Result struct {
	Kind   Kind
	Record models.Transaction // populated when Kind is KindRecord
	Date   string             // populated when Kind is KindDateHeader
	Reason string             // diagnostic for KindSkip
}

var digitPattern = regexp.MustCompile(`\d`)

// Parse classifies the ordered text fragments of one list item. Fragments
// are whitespace-normalized before any rule applies; fields that are absent
// from the item come back as empty strings, never missing.
func Parse(fragments []string) Result {
	cleaned := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if c := textutils.CleanText(fragment); c != "" {
			cleaned = append(cleaned, c)
		}
	}

	if len(cleaned) == 0 {
		return Result{Kind: KindSkip, Reason: "empty item"}
	}

	amountIdx := -1
	for i, fragment := range cleaned {
		if currencyutils.ContainsAmount(fragment) {
			amountIdx = i
			break
		}
	}

	// A date-header row carries the weekday pattern and no amount.
	if amountIdx == -1 {
		for _, fragment := range cleaned {
			if dateutils.IsDateHeader(fragment) {
				return Result{Kind: KindDateHeader, Date: dateutils.NormalizeHeader(fragment)}
			}
		}
		return Result{Kind: KindSkip, Reason: "no amount fragment"}
	}

	amount, currency, err := currencyutils.ParseAmountWithCurrency(cleaned[amountIdx])
	if err != nil {
		return Result{Kind: KindSkip, Reason: "unparseable amount: " + err.Error()}
	}

	record := models.Transaction{
		Amount:   amount,
		Currency: currency,
	}

	if amountIdx > 0 {
		record.Description = cleaned[0]
	}

	// The fragment between description and amount is the category label when
	// it looks like one (a plain word without digits).
	if amountIdx > 1 {
		candidate := cleaned[amountIdx-1]
		if !digitPattern.MatchString(candidate) {
			record.Category = candidate
		}
	}

	// A second amount in a different currency right after the primary one is
	// the original foreign-currency amount.
	rest := cleaned[amountIdx+1:]
	if len(rest) > 0 {
		original, originalCurrency, err := currencyutils.ParseAmountWithCurrency(rest[0])
		if err == nil && originalCurrency != "" && originalCurrency != currency {
			record.OriginalAmount = original
			record.OriginalCurrency = originalCurrency
			rest = rest[1:]
		}
	}

	// Some layouts render the category below the amount instead of above it.
	if record.Category == "" {
		for _, fragment := range rest {
			if !currencyutils.ContainsAmount(fragment) && !digitPattern.MatchString(fragment) {
				record.Category = fragment
				break
			}
		}
	}

	return Result{Kind: KindRecord, Record: record}
}
