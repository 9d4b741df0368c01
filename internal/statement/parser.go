// Package statement parses raw bank-statement exports into parsed transactions.
package statement

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/dates"
	"github.com/Veraticus/sift/internal/model"
)

// FileType identifies a statement export format.
type FileType string

// Supported statement formats.
const (
	FileTypeCSV FileType = "csv"
	FileTypeOFX FileType = "ofx"
)

// ParseError reports why a statement could not be read at all. Row-level
// defects never produce a ParseError; those rows are skipped.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse statement: %s: %v", e.Reason, e.Err)
	}
	return "parse statement: " + e.Reason
}

// Unwrap lets errors.Is match common.ErrParse as well as the cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{common.ErrParse, e.Err}
	}
	return []error{common.ErrParse}
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// IsParseError reports whether err is, or wraps, a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// DetectFileType maps a file name to its statement format by extension.
func DetectFileType(path string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FileTypeCSV, nil
	case ".ofx", ".qfx":
		return FileTypeOFX, nil
	}
	return "", parseErrorf("unsupported file type %q", filepath.Ext(path))
}

// Options controls how a statement is read.
type Options struct {
	// DateHint selects the field order for ambiguous numeric dates.
	DateHint dates.Hint
}

// Parser reads CSV and OFX statements.
type Parser struct {
	logger   *slog.Logger
	resolver dates.Resolver
}

// NewParser returns a parser that resolves ambiguous dates with the system locale.
func NewParser(logger *slog.Logger) *Parser {
	return NewParserWithResolver(logger, dates.NewResolver(dates.SystemOrder()))
}

// NewParserWithResolver returns a parser with an explicit date resolver.
func NewParserWithResolver(logger *slog.Logger, resolver dates.Resolver) *Parser {
	return &Parser{
		logger:   common.LoggerOrDefault(logger),
		resolver: resolver,
	}
}

// Parse converts a raw statement into parsed transactions in file order.
func (p *Parser) Parse(content []byte, fileType FileType, opts Options) ([]model.ParsedTransaction, error) {
	if opts.DateHint == "" {
		opts.DateHint = dates.HintAuto
	}

	var (
		txns []model.ParsedTransaction
		err  error
	)
	switch fileType {
	case FileTypeCSV:
		txns, err = p.parseCSV(string(content), opts)
	case FileTypeOFX:
		txns, err = p.parseOFX(string(content))
	default:
		return nil, parseErrorf("unsupported file type %q", fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(txns) == 0 {
		return nil, parseErrorf("no transactions found in %s statement", fileType)
	}

	p.logger.Debug("parsed statement",
		"type", fileType,
		"transactions", len(txns))

	return txns, nil
}
