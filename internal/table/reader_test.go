package table

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadDelimited(t *testing.T) {
	input := "\xEF\xBB\xBFcity,pop\n\nOslo,700000\nBergen,\n"

	tbl, err := ReadDelimited(strings.NewReader(input), ',', "cities.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "pop"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows())

	pop, _ := tbl.Column("pop")
	assert.Equal(t, KindNumeric, pop.Kind)
	assert.True(t, pop.Cells[1].Missing)
}

func TestReadDelimited_Tabs(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("a\tb\n1\tx\n"), '\t', "t.tsv")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "x"}}, tbl.Records())
}

func TestReadDelimited_InvalidUTF8(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("name\nab\xffc\n"), ',', "bad.csv")
	require.NoError(t, err)
	assert.Equal(t, "ab�c", tbl.Records()[0][0])
}

func TestReadDelimited_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantParse bool
		wantEmpty bool
	}{
		{name: "empty input", input: "", wantEmpty: true},
		{name: "only blank lines", input: "\n\n", wantEmpty: true},
		{name: "bare quote", input: "a,b\n1,x\"y\n", wantParse: true},
		{name: "unterminated quote", input: "a,b\n1,\"open\n", wantParse: true},
		{name: "too many fields", input: "a,b\n1,2,3\n", wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDelimited(strings.NewReader(tt.input), ',', "in.csv")
			require.Error(t, err)

			var pe *ParseError
			var ee *EmptyInputError
			assert.Equal(t, tt.wantParse, errors.As(err, &pe))
			assert.Equal(t, tt.wantEmpty, errors.As(err, &ee))
		})
	}
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"item", "qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Bolt", 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Nut"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	tbl, err := Read(&buf, FormatXLSX, "stock.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"item", "qty"}, tbl.Names())
	qty, _ := tbl.Column("qty")
	assert.Equal(t, KindNumeric, qty.Kind)
	assert.Equal(t, 12.0, qty.Cells[0].Num)
	assert.True(t, qty.Cells[1].Missing)
}

func TestRead_XLSXNotAWorkbook(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2\n"), FormatXLSX, "fake.xlsx")

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", FormatCSV, false},
		{"DATA.CSV", FormatCSV, false},
		{"notes.txt", FormatCSV, false},
		{"data.tsv", FormatTSV, false},
		{"book.xlsx", FormatXLSX, false},
		{"book.xls", 0, true},
		{"noext", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
