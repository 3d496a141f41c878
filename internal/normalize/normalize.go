package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dvloznov/bank-sync/internal/aggregator"
)

// Transaction is the canonical record derived from a raw aggregator
// transaction: signed decimal amount and a cleaned description label.
type Transaction struct {
	BookingDate           string
	TotalAmount           string
	RemittanceInformation string
}

// UnknownLabel is the placeholder for descriptions that are absent or
// empty after cleaning.
const UnknownLabel = "Unknown"

// removalPatterns are stripped from the upper-cased description in order:
// a merchant-category purchase prefix, the contactless marker, and a small
// set of country-code suffixes the issuing banks append.
var removalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^COMPRA\s\d{4}\s`),
	regexp.MustCompile(`(?i)CONTACTLESS`),
	regexp.MustCompile(`(?i)\sEE$`),
	regexp.MustCompile(`(?i)\sLI$`),
	regexp.MustCompile(`(?i)\sE LI$`),
	regexp.MustCompile(`(?i)\sES$`),
	regexp.MustCompile(`(?i)\sNL$`),
}

// Normalize maps a raw transaction to its canonical form. It is a pure
// function: the amount magnitude string is kept verbatim and only a sign
// prefix is applied for debits.
func Normalize(raw aggregator.RawTransaction) Transaction {
	amount := raw.TransactionAmount.Amount
	if raw.CreditDebitIndicator == aggregator.IndicatorDebit {
		amount = "-" + amount
	}
	return Transaction{
		BookingDate:           raw.BookingDate,
		TotalAmount:           amount,
		RemittanceInformation: CleanRemittanceInfo(raw.RemittanceInformation),
	}
}

// CleanRemittanceInfo derives a best-effort merchant label from the first
// remittance line. The pipeline is a lossy heuristic over free-text bank
// descriptors: upper-case, strip the removal patterns, title-case the
// remaining words. Empty input or an empty result yields UnknownLabel.
func CleanRemittanceInfo(lines []string) string {
	if len(lines) == 0 {
		return UnknownLabel
	}

	cleaned := strings.ToUpper(lines[0])
	for _, re := range removalPatterns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = capitalize(w)
	}

	result := strings.Join(words, " ")
	if result == "" {
		return UnknownLabel
	}
	return result
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
