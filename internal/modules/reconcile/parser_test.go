package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook creates an in-memory xlsx file from rows
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func holdingsHeader() []interface{} {
	return []interface{}{"Fund Name", "Stock Name", "Symbol", "ISIN", "Percentage", "Value", "Quantity"}
}

func TestParse_ExtractsFundBlocks(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		holdingsHeader(),
		{"HDFC Top 100 Direct Growth", "Reliance Industries", "RELIANCE", "INE002A01018", "5", "50000", "10"},
		{"HDFC Top 100 Direct Growth", "Infosys", "INFY", "INE009A01021", "3.5", "35000", "20"},
		{"Axis Bluechip Direct Growth", "HDFC Bank", "HDFCBANK", "INE040A01034", "8", "80000", "50"},
	})

	p := NewSpreadsheetParser()
	blocks, err := p.Parse(data)
	require.NoError(t, err)

	require.Len(t, blocks, 2)
	assert.Equal(t, "HDFC Top 100 Direct Growth", blocks[0].RawFundName)
	require.Len(t, blocks[0].Rows, 2)
	assert.Equal(t, "Reliance Industries", blocks[0].Rows[0].StockName)
	assert.Equal(t, "RELIANCE", blocks[0].Rows[0].StockSymbol)
	assert.Equal(t, "INE002A01018", blocks[0].Rows[0].ISIN)
	assert.Equal(t, 5.0, blocks[0].Rows[0].Percentage)
	assert.Equal(t, 50000.0, blocks[0].Rows[0].Value)
	assert.Equal(t, 10.0, blocks[0].Rows[0].Quantity)

	assert.Equal(t, "Axis Bluechip Direct Growth", blocks[1].RawFundName)
	assert.Len(t, blocks[1].Rows, 1)
}

func TestParse_EmptyFundCellContinuesPreviousFund(t *testing.T) {
	// Merged-cell style export: fund name appears only on the first row
	data := buildWorkbook(t, [][]interface{}{
		holdingsHeader(),
		{"SBI Small Cap Regular", "Stock A", "", "", "1", "1000", "5"},
		{"", "Stock B", "", "", "2", "2000", "6"},
		{"", "Stock C", "", "", "3", "3000", "7"},
	})

	p := NewSpreadsheetParser()
	blocks, err := p.Parse(data)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Rows, 3)
}

func TestParse_HeaderAfterTitleRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Consolidated Holdings Statement"},
		{"Exported 2026-08-31"},
		holdingsHeader(),
		{"UTI Nifty 50 Direct", "TCS", "TCS", "", "4", "40000", "12"},
	})

	p := NewSpreadsheetParser()
	blocks, err := p.Parse(data)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Equal(t, "UTI Nifty 50 Direct", blocks[0].RawFundName)
}

func TestParse_NumericCellsTolerateFormatting(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		holdingsHeader(),
		{"HDFC Top 100", "Reliance Industries", "", "", "5.2%", "₹1,50,000.50", "1,000"},
	})

	p := NewSpreadsheetParser()
	blocks, err := p.Parse(data)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	row := blocks[0].Rows[0]
	assert.Equal(t, 5.2, row.Percentage)
	assert.Equal(t, 150000.50, row.Value)
	assert.Equal(t, 1000.0, row.Quantity)
}

func TestParse_MissingRequiredColumnIsMalformed(t *testing.T) {
	// No fund name column
	data := buildWorkbook(t, [][]interface{}{
		{"Stock Name", "Percentage", "Value", "Quantity"},
		{"Reliance Industries", "5", "50000", "10"},
	})

	p := NewSpreadsheetParser()
	_, err := p.Parse(data)
	assert.ErrorIs(t, err, ErrMalformedFile)
}

func TestParse_GarbageBytesIsMalformed(t *testing.T) {
	p := NewSpreadsheetParser()
	_, err := p.Parse([]byte("this is not a spreadsheet"))
	assert.ErrorIs(t, err, ErrMalformedFile)
}

func TestParse_HeaderOnlyFileYieldsNoBlocks(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{holdingsHeader()})

	p := NewSpreadsheetParser()
	blocks, err := p.Parse(data)
	require.NoError(t, err)
	assert.Empty(t, blocks, "a file with headers but no rows is empty, not malformed")
}

func TestParse_AlternateHeaderSpellings(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Scheme Name", "Company Name", "Holding %", "Market Value", "Units"},
		{"Parag Parikh Flexi Cap", "Alphabet Inc", "6", "60000", "3"},
	})

	p := NewSpreadsheetParser()
	blocks, err := p.Parse(data)
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Equal(t, "Parag Parikh Flexi Cap", blocks[0].RawFundName)
	assert.Equal(t, 6.0, blocks[0].Rows[0].Percentage)
}
