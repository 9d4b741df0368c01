package statement

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sift/internal/common"
	"github.com/Veraticus/sift/internal/dates"
)

func newTestParser() *Parser {
	return NewParserWithResolver(nil, dates.NewResolver(dates.DayFirst))
}

func TestParseCSV_BasicColumns(t *testing.T) {
	content := "Date,Description,Amount\n" +
		"01/02/2024,\"WOOLWORTHS 123\",-45.20\n" +
		"01/02/2024,\"SALARY PTY LTD\",2500.00\n"

	txns, err := newTestParser().Parse([]byte(content), FileTypeCSV, Options{})
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "01/02/2024", txns[0].RawDate)
	assert.Equal(t, "WOOLWORTHS 123", txns[0].Description)
	assert.InDelta(t, -45.20, txns[0].Amount, 0.0001)
	assert.Equal(t, "SALARY PTY LTD", txns[1].Description)
	assert.InDelta(t, 2500.00, txns[1].Amount, 0.0001)
}

func TestParseCSV_QuotedCellAfterSpace(t *testing.T) {
	content := "Date, Description, Amount\n" +
		"2024-01-05, \"ACME, INC\", -5.00\n"

	txns, err := newTestParser().Parse([]byte(content), FileTypeCSV, Options{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "ACME, INC", txns[0].Description)
	assert.InDelta(t, -5.00, txns[0].Amount, 0.0001)
	assert.Equal(t, "2024-01-05", txns[0].RawDate)
}

func TestSplitCSVLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `a,"b, c",d`, []string{"a", "b, c", "d"}},
		{"space before quote", `a, "b, c", d`, []string{"a", "b, c", "d"}},
		{"empty cells", "a,,", []string{"a", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCSVLine(tt.line))
		})
	}
}

func TestParseCSV_HeaderDetection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []float64
		desc    []string
	}{
		{
			name:    "narrative column and currency noise",
			content: "Transaction Date,Narrative,Amount (AUD)\n2024-03-01,Coffee,\"$1,234.50\"\n",
			want:    []float64{1234.50},
			desc:    []string{"Coffee"},
		},
		{
			name:    "description wins over memo",
			content: "Memo,Posting Date,Description,Amount\nignored,2024-03-01,Chosen,-3\n",
			want:    []float64{-3},
			desc:    []string{"Chosen"},
		},
		{
			name:    "credit and debit pair",
			content: "Date,Details,Debit,Credit\n2024-03-01,Rent,1200.00,\n2024-03-02,Refund,,15.00\n",
			want:    []float64{-1200, 15},
			desc:    []string{"Rent", "Refund"},
		},
		{
			name:    "accounting negative",
			content: "Date,Payee,Amount\n2024-03-01,Fee,(45.20)\n",
			want:    []float64{-45.20},
			desc:    []string{"Fee"},
		},
		{
			name:    "unparseable amount is zero",
			content: "Date,Description,Amount\n2024-03-01,Odd,n/a\n",
			want:    []float64{0},
			desc:    []string{"Odd"},
		},
		{
			name:    "quoted comma stays in description",
			content: "Date,Description,Amount\n2024-03-01,\"SMITH, JOHN\",-10\n",
			want:    []float64{-10},
			desc:    []string{"SMITH, JOHN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := newTestParser().Parse([]byte(tt.content), FileTypeCSV, Options{})
			require.NoError(t, err)
			require.Len(t, txns, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], txns[i].Amount, 0.0001)
				assert.Equal(t, tt.desc[i], txns[i].Description)
			}
		})
	}
}

func TestParseCSV_SkipsBadRows(t *testing.T) {
	content := "Date,Description,Amount\n" +
		"2024-03-01,Good,-1\n" +
		"\n" +
		"not a date,Bad date,-2\n" +
		"2024-03-02,,-3\n" +
		"2024-03-03\n" +
		"2024-03-04,Also good,4\n"

	txns, err := newTestParser().Parse([]byte(content), FileTypeCSV, Options{})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "Good", txns[0].Description)
	assert.Equal(t, "Also good", txns[1].Description)
}

func TestParseCSV_DateHint(t *testing.T) {
	content := "Date,Description,Amount\n05/12/2025,Thing,-1\n"

	txns, err := newTestParser().Parse([]byte(content), FileTypeCSV, Options{DateHint: dates.HintMDY})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC), txns[0].Date)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"header only":          "Date,Description,Amount\n",
		"no date column":       "When,Description,Amount\nx,y,1\n",
		"no description":       "Date,Reference,Amount\n2024-01-01,y,1\n",
		"no amount":            "Date,Description,Balance\n2024-01-01,y,1\n",
		"credit without debit": "Date,Description,Credit\n2024-01-01,y,1\n",
		"no valid rows":        "Date,Description,Amount\nnope,y,1\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestParser().Parse([]byte(content), FileTypeCSV, Options{})
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.True(t, errors.Is(err, common.ErrParse))
		})
	}
}

func TestDetectFileType(t *testing.T) {
	tests := map[string]FileType{
		"statement.csv": FileTypeCSV,
		"STATEMENT.CSV": FileTypeCSV,
		"bank.ofx":      FileTypeOFX,
		"card.qfx":      FileTypeOFX,
	}
	for path, want := range tests {
		got, err := DetectFileType(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := DetectFileType("statement.pdf")
	assert.True(t, IsParseError(err))

	_, err = newTestParser().Parse([]byte("x"), FileType("pdf"), Options{})
	assert.True(t, IsParseError(err))
}
