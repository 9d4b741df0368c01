package statement

import (
	"encoding/csv"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/sift/internal/model"
)

// Header keywords in priority order. A header cell matches when it contains
// the keyword anywhere.
var (
	dateKeywords        = []string{"date"}
	descriptionKeywords = []string{"description", "narrative", "memo", "details", "payee"}
	amountKeywords      = []string{"amount"}
	creditKeywords      = []string{"credit"}
	debitKeywords       = []string{"debit"}
)

// amountNoise is everything that is not part of a number.
var amountNoise = regexp.MustCompile(`[^0-9.\-+]`)

type csvColumns struct {
	date, description, amount, credit, debit int
}

func (c csvColumns) hasAmount() bool {
	return c.amount >= 0 || (c.credit >= 0 && c.debit >= 0)
}

func (p *Parser) parseCSV(content string, opts Options) ([]model.ParsedTransaction, error) {
	lines := nonBlankLines(content)
	if len(lines) < 2 {
		return nil, parseErrorf("CSV needs a header and at least one row")
	}

	header := splitCSVLine(lines[0])
	for i, cell := range header {
		header[i] = strings.ToLower(strings.Trim(strings.TrimSpace(cell), `"'`))
	}

	cols := csvColumns{
		date:        findColumn(header, dateKeywords),
		description: findColumn(header, descriptionKeywords),
		amount:      findColumn(header, amountKeywords),
		credit:      findColumn(header, creditKeywords),
		debit:       findColumn(header, debitKeywords),
	}
	switch {
	case cols.date < 0:
		return nil, parseErrorf("no date column in CSV header")
	case cols.description < 0:
		return nil, parseErrorf("no description column in CSV header")
	case !cols.hasAmount():
		return nil, parseErrorf("no amount column or credit/debit pair in CSV header")
	}

	var txns []model.ParsedTransaction
	for lineNo, line := range lines[1:] {
		fields := splitCSVLine(line)
		if len(fields) < len(header) {
			p.logger.Debug("skipping short CSV row", "line", lineNo+2, "fields", len(fields))
			continue
		}

		rawDate := strings.TrimSpace(fields[cols.date])
		date, ok := p.resolver.Resolve(rawDate, opts.DateHint)
		if !ok {
			p.logger.Debug("skipping CSV row with unreadable date", "line", lineNo+2, "date", rawDate)
			continue
		}

		description := strings.TrimSpace(fields[cols.description])
		if description == "" {
			p.logger.Debug("skipping CSV row without description", "line", lineNo+2)
			continue
		}

		txns = append(txns, model.ParsedTransaction{
			Date:        date,
			RawDate:     rawDate,
			Description: description,
			Amount:      rowAmount(fields, cols),
		})
	}

	return txns, nil
}

func rowAmount(fields []string, cols csvColumns) float64 {
	if cols.amount >= 0 {
		return parseAmount(fields[cols.amount]).InexactFloat64()
	}
	credit := parseAmount(fields[cols.credit])
	debit := parseAmount(fields[cols.debit]).Abs()
	return credit.Sub(debit).InexactFloat64()
}

// parseAmount reads a money value, ignoring currency symbols, thousands
// separators and whitespace. Unparseable values are zero.
func parseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = amountNoise.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d
}

// findColumn returns the first header cell containing the highest-priority
// keyword, or -1.
func findColumn(header []string, keywords []string) int {
	for _, kw := range keywords {
		for i, cell := range header {
			if strings.Contains(cell, kw) {
				return i
			}
		}
	}
	return -1
}

func nonBlankLines(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines
}

// splitCSVLine splits one line on commas, keeping quoted commas intact.
// Cells are trimmed and unquoted.
func splitCSVLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		fields = splitOutsideQuotes(line)
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// splitOutsideQuotes cuts line at commas preceded by an even number of
// double quotes and strips the quotes from each cell.
func splitOutsideQuotes(line string) []string {
	var (
		fields []string
		cell   strings.Builder
		quoted bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			fields = append(fields, cell.String())
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}
	return append(fields, cell.String())
}
