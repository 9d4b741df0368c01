package statement

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/sift/internal/model"
)

var (
	severityFix = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags on their own line that lost their closing bracket.
	unclosedTag = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	ofxDate     = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)
)

// preprocessOFX fixes common formatting issues in OFX exports.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityFix.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTag.ReplaceAllString(content, "$1>")
}

func (p *Parser) parseOFX(content string) ([]model.ParsedTransaction, error) {
	processed := preprocessOFX(content)

	txns, err := p.parseOFXStrict(processed)
	if err == nil {
		return txns, nil
	}
	p.logger.Debug("ofx parser rejected document, scanning leniently", "error", err)

	txns, scanErr := p.scanOFX(processed)
	if scanErr != nil {
		return nil, &ParseError{Reason: "unreadable OFX", Err: errors.Join(err, scanErr)}
	}
	return txns, nil
}

func (p *Parser) parseOFXStrict(content string) ([]model.ParsedTransaction, error) {
	resp, err := ofxgo.ParseResponse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	// ofxgo drops the source text of dates and zero-fills a missing TRNAMT,
	// so the raw elements are read alongside it and matched by FITID.
	raw := map[string]map[string]string{}
	if records, err := scanOFXRecords(content); err == nil {
		for _, fields := range records {
			if id := fields["FITID"]; id != "" {
				raw[id] = fields
			}
		}
	} else {
		p.logger.Debug("could not read raw OFX fields", "error", err)
	}

	var (
		txns             []model.ParsedTransaction
		bankStmts, cards int
	)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			txns = append(txns, p.convertOFX(stmt.BankTranList.Transactions, raw)...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			cards++
			txns = append(txns, p.convertOFX(stmt.BankTranList.Transactions, raw)...)
		}
	}

	p.logger.Debug("parsed OFX document",
		"transactions", len(txns),
		"bank_statements", bankStmts,
		"cc_statements", cards)

	return txns, nil
}

func (p *Parser) convertOFX(list []ofxgo.Transaction, raw map[string]map[string]string) []model.ParsedTransaction {
	txns := make([]model.ParsedTransaction, 0, len(list))
	for _, t := range list {
		memo := strings.TrimSpace(string(t.Memo))
		if memo == "" || t.DtPosted.IsZero() {
			p.logger.Debug("skipping OFX transaction without memo or date", "fitid", t.FiTID)
			continue
		}

		rawDate := t.DtPosted.String()
		if fields, ok := raw[string(t.FiTID)]; ok {
			if fields["TRNAMT"] == "" {
				p.logger.Debug("skipping OFX transaction without amount", "fitid", t.FiTID)
				continue
			}
			if d := fields["DTPOSTED"]; d != "" {
				rawDate = d
			}
		}

		amount, _ := t.TrnAmt.Float64()
		posted := t.DtPosted.Time
		txns = append(txns, model.ParsedTransaction{
			Date:        time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
			RawDate:     rawDate,
			Description: memo,
			Amount:      amount,
		})
	}
	return txns
}

// scanOFX extracts transactions without ofxgo, for documents it rejects.
func (p *Parser) scanOFX(content string) ([]model.ParsedTransaction, error) {
	records, err := scanOFXRecords(content)
	if err != nil {
		return nil, err
	}
	txns := make([]model.ParsedTransaction, 0, len(records))
	for _, fields := range records {
		if txn, ok := scannedTransaction(fields); ok {
			txns = append(txns, txn)
		} else {
			p.logger.Debug("skipping incomplete OFX transaction", "fields", len(fields))
		}
	}
	return txns, nil
}

// scanOFXRecords walks the document as loosely structured markup and returns
// the leaf values of every STMTTRN element, keyed by upper-case tag. SGML
// files that never close leaf tags are read with the leaf tags auto-closed;
// XML files are read as they are.
func scanOFXRecords(content string) ([]map[string]string, error) {
	if i := strings.Index(strings.ToUpper(content), "<OFX>"); i >= 0 {
		content = content[i:]
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false
	if !strings.Contains(strings.ToUpper(content), "</TRNAMT>") {
		dec.AutoClose = ofxLeafTags
	}

	var (
		records []map[string]string
		inTxn   bool
		current string // most recently opened element; leaf values follow it
		fields  map[string]string
		sawAny  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if sawAny {
				break
			}
			return nil, err
		}
		sawAny = true

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToUpper(t.Name.Local)
			if name == "STMTTRN" {
				inTxn = true
				fields = map[string]string{}
			}
			current = name
		case xml.CharData:
			if inTxn && current != "" {
				if v := strings.TrimSpace(string(t)); v != "" {
					fields[current] = v
				}
			}
		case xml.EndElement:
			if strings.ToUpper(t.Name.Local) == "STMTTRN" && inTxn {
				records = append(records, fields)
				inTxn = false
			}
		}
	}
	return records, nil
}

func scannedTransaction(fields map[string]string) (model.ParsedTransaction, bool) {
	rawDate, amountText, memo := fields["DTPOSTED"], fields["TRNAMT"], fields["MEMO"]
	if rawDate == "" || amountText == "" || memo == "" {
		return model.ParsedTransaction{}, false
	}
	m := ofxDate.FindStringSubmatch(rawDate)
	if m == nil {
		return model.ParsedTransaction{}, false
	}
	date, err := time.Parse("20060102", m[1]+m[2]+m[3])
	if err != nil {
		return model.ParsedTransaction{}, false
	}
	return model.ParsedTransaction{
		Date:        date,
		RawDate:     rawDate,
		Description: memo,
		Amount:      parseAmount(amountText).InexactFloat64(),
	}, true
}

// ofxLeafTags are the SGML elements that carry a value and are never closed.
var ofxLeafTags = []string{
	"CODE", "SEVERITY", "DTSERVER", "LANGUAGE", "TRNUID", "CURDEF",
	"BANKID", "ACCTID", "ACCTTYPE", "DTSTART", "DTEND", "TRNTYPE",
	"DTPOSTED", "DTUSER", "DTAVAIL", "TRNAMT", "FITID", "NAME", "MEMO",
	"CHECKNUM", "REFNUM", "SIC", "PAYEEID", "BALAMT", "DTASOF", "MESSAGE",
}
