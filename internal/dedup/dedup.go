// Package dedup suppresses statement rows that are already in the ledger.
package dedup

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/sift/internal/model"
)

// Fingerprint identifies a transaction by calendar day, amount and
// normalized description.
func Fingerprint(date time.Time, amount float64, description string) string {
	return date.Format("2006-01-02") + "|" + decimal.NewFromFloat(amount).String() + "|" + normalize(description)
}

// OfParsed is the fingerprint of a parsed statement row.
func OfParsed(p model.ParsedTransaction) string {
	return Fingerprint(p.Date, p.Amount, p.Description)
}

// OfTransaction is the fingerprint of a ledger entry.
func OfTransaction(t model.Transaction) string {
	return Fingerprint(t.Date, t.Amount, t.Description)
}

// Filter returns the parsed rows whose fingerprint is not in the ledger, in
// input order, and the number of rows dropped. Identical rows within the
// same statement are all kept.
func Filter(parsed []model.ParsedTransaction, ledger []model.Transaction) ([]model.ParsedTransaction, int) {
	seen := make(map[string]struct{}, len(ledger))
	for _, t := range ledger {
		seen[OfTransaction(t)] = struct{}{}
	}

	fresh := make([]model.ParsedTransaction, 0, len(parsed))
	for _, p := range parsed {
		if _, dup := seen[OfParsed(p)]; dup {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh, len(parsed) - len(fresh)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(s))), " ")
}
