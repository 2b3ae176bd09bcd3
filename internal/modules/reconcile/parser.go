package reconcile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column header aliases. Consolidated holdings exports differ across
// providers; each required column accepts a few common spellings.
var (
	fundNameHeaders   = []string{"fund name", "scheme name", "fund", "scheme"}
	stockNameHeaders  = []string{"stock name", "company name", "stock", "security name", "instrument"}
	symbolHeaders     = []string{"symbol", "stock symbol", "ticker", "nse symbol"}
	isinHeaders       = []string{"isin", "isin code"}
	percentageHeaders = []string{"percentage", "holding %", "% of net assets", "weight", "weight %", "holding percentage"}
	valueHeaders      = []string{"value", "holding value", "market value", "value (inr)", "amount"}
	quantityHeaders   = []string{"quantity", "units", "shares", "no of shares"}
)

// columnIndexes maps the logical columns to their position in the header row.
// Optional columns are -1 when absent.
type columnIndexes struct {
	fundName   int
	stockName  int
	symbol     int
	isin       int
	percentage int
	value      int
	quantity   int
}

// SpreadsheetParser extracts fund blocks from an uploaded consolidated
// holdings spreadsheet. Parsing is pure: either the whole file parses or
// ErrMalformedFile is returned and nothing else happens.
type SpreadsheetParser struct{}

// NewSpreadsheetParser creates a new spreadsheet parser
func NewSpreadsheetParser() *SpreadsheetParser {
	return &SpreadsheetParser{}
}

// Parse decodes the uploaded bytes into ordered fund blocks.
//
// Expected layout: the first sheet, a header row naming the fund, stock,
// percentage, value and quantity columns (symbol and ISIN optional), then
// one row per stock holding. Rows belonging to the same fund are grouped;
// an empty fund-name cell continues the previous fund (merged-cell style
// exports do this).
func (p *SpreadsheetParser) Parse(data []byte) ([]FundBlock, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrMalformedFile, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMalformedFile, sheets[0])
	}

	cols, headerRow, err := findHeaderRow(rows)
	if err != nil {
		return nil, err
	}

	var order []string
	blocks := make(map[string]*FundBlock)
	currentFund := ""

	for _, row := range rows[headerRow+1:] {
		fundName := cellAt(row, cols.fundName)
		if fundName != "" {
			currentFund = fundName
		}
		if currentFund == "" {
			// Stock rows before any fund name are unattributable
			continue
		}

		stockName := cellAt(row, cols.stockName)
		if stockName == "" {
			continue
		}

		holding := HoldingRow{
			StockName:   stockName,
			StockSymbol: cellAt(row, cols.symbol),
			ISIN:        cellAt(row, cols.isin),
			Percentage:  parseNumeric(cellAt(row, cols.percentage)),
			Value:       parseNumeric(cellAt(row, cols.value)),
			Quantity:    parseNumeric(cellAt(row, cols.quantity)),
		}

		block, ok := blocks[currentFund]
		if !ok {
			block = &FundBlock{RawFundName: currentFund}
			blocks[currentFund] = block
			order = append(order, currentFund)
		}
		block.Rows = append(block.Rows, holding)
	}

	result := make([]FundBlock, 0, len(order))
	for _, name := range order {
		result = append(result, *blocks[name])
	}

	return result, nil
}

// findHeaderRow scans the first few rows for one containing all required
// columns. Provider exports often put a title or export date above the
// real header.
func findHeaderRow(rows [][]string) (columnIndexes, int, error) {
	maxScan := 10
	if len(rows) < maxScan {
		maxScan = len(rows)
	}

	for i := 0; i < maxScan; i++ {
		cols := columnIndexes{
			fundName:   indexOfHeader(rows[i], fundNameHeaders),
			stockName:  indexOfHeader(rows[i], stockNameHeaders),
			symbol:     indexOfHeader(rows[i], symbolHeaders),
			isin:       indexOfHeader(rows[i], isinHeaders),
			percentage: indexOfHeader(rows[i], percentageHeaders),
			value:      indexOfHeader(rows[i], valueHeaders),
			quantity:   indexOfHeader(rows[i], quantityHeaders),
		}
		if cols.fundName >= 0 && cols.stockName >= 0 &&
			cols.percentage >= 0 && cols.value >= 0 && cols.quantity >= 0 {
			return cols, i, nil
		}
	}

	return columnIndexes{}, 0, fmt.Errorf(
		"%w: required columns not found (need fund name, stock name, percentage, value, quantity)",
		ErrMalformedFile)
}

// indexOfHeader returns the column index whose header matches one of the
// aliases, or -1
func indexOfHeader(row []string, aliases []string) int {
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, alias := range aliases {
			if normalized == alias {
				return i
			}
		}
	}
	return -1
}

// cellAt returns the trimmed cell value at index, tolerating short rows
// and absent optional columns
func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// parseNumeric parses a spreadsheet numeric cell, tolerating currency
// symbols, thousands separators and a trailing percent sign. Unparseable
// cells become 0 rather than failing the whole file.
func parseNumeric(cell string) float64 {
	if cell == "" {
		return 0
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-':
			return r
		default:
			return -1
		}
	}, cell)

	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}
