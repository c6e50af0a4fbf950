package bankcsv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/hometab/hometab/internal/encoding"
	"github.com/hometab/hometab/internal/expense"
)

// Parser reads bank CSV exports and produces expense params.
// It auto-detects which export format is being used by matching
// column headers against known profiles. Only outflows become
// expenses; credits and refunds are skipped.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]expense.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching export format found: expected a header with date, description, and amount columns")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// detectDelimiter picks the field separator by comparing separator counts
// in the raw input. Semicolon-delimited exports are common in European banks.
func detectDelimiter(data []byte) rune {
	if bytes.Count(data, []byte(";")) > bytes.Count(data, []byte(",")) {
		return ';'
	}

	return ','
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts outflows from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]expense.CreateParams, error) {
	dateIdx := cols[p.DateCol]
	descIdx := cols[p.DescCol]

	var params []expense.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(row, dateIdx)
		if !ok {
			continue
		}

		merchant := cellValue(row, descIdx)
		if merchant == "" {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		amount, ok := parseOutflow(p, cols, row)
		if !ok {
			continue
		}

		params = append(params, expense.CreateParams{
			Merchant: merchant,
			Amount:   amount,
			Date:     date,
		})
	}

	return params, nil
}

// dateLayouts are tried in order. Banks are not consistent about this.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
}

// parseDate tries to parse a date from the given cell index.
// Returns false for empty cells or unparseable values (footer rows, etc).
func parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseOutflow extracts a positive outflow amount in cents from a row.
// Inflows (deposits, refunds) return false and are skipped by the caller.
func parseOutflow(p *Profile, cols colIndex, row []string) (int64, bool) {
	switch p.AmountMode {
	case amountSingle:
		return parseSingleOutflow(row, cols[p.AmountCol])
	case amountSplit:
		return parseSplitOutflow(row, cols[p.DebitCol])
	}

	return 0, false
}

// parseSingleOutflow handles a single signed amount column. Negative
// values are outflows and are returned as absolute cents.
func parseSingleOutflow(row []string, idx int) (int64, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return 0, false
	}

	cents, err := parseAmount(s)
	if err != nil || cents >= 0 {
		return 0, false
	}

	return -cents, true
}

// parseSplitOutflow handles separate debit/credit columns. Only the
// debit column is read; credits are never expenses.
func parseSplitOutflow(row []string, debitIdx int) (int64, bool) {
	s := cellValue(row, debitIdx)
	if s == "" {
		return 0, false
	}

	cents, err := parseAmount(s)
	if err != nil || cents == 0 {
		return 0, false
	}

	return abs(cents), true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}

	return n
}
