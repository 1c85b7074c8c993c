package simpleexcel

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type row struct {
	Name     string
	Price    float64
	Category string
}

func openBook(t *testing.T, e *DataExporter) *excelize.File {
	t.Helper()
	b, err := e.ToBytes()
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFluentExport(t *testing.T) {
	data := []row{{"Laptop", 1200.5, "electronics"}, {"Mouse", 25, "ELECTRONICS"}}

	e := NewDataExporter().
		RegisterFormatter("upper", func(v interface{}) interface{} { return strings.ToUpper(fmt.Sprint(v)) }).
		AddSheet("Products").
		AddSection(&SectionConfig{
			Title:      "Catalog",
			ShowHeader: true,
			HasFilter:  true,
			Data:       data,
			Columns: []ColumnConfig{
				{FieldName: "Name", Header: "Product", Width: 30},
				{FieldName: "Price", Header: "Price", Formatter: func(v interface{}) interface{} {
					return fmt.Sprintf("$%.2f", v.(float64))
				}},
				{FieldName: "Category", Header: "Category", FormatterName: "upper"},
			},
		}).
		Build()

	f := openBook(t, e)
	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Catalog", rows[0][0])
	assert.Equal(t, []string{"Product", "Price", "Category"}, rows[1])
	assert.Equal(t, []string{"Laptop", "$1200.50", "ELECTRONICS"}, rows[2])
	assert.Equal(t, []string{"Mouse", "$25.00", "ELECTRONICS"}, rows[3])

	merged, err := f.GetMergeCells("Products")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "C1", merged[0].GetEndAxis())
}

func TestColumnsDerivedFromData(t *testing.T) {
	e := NewDataExporter().
		AddSheet("Auto").
		AddSection(&SectionConfig{ShowHeader: true, Data: []row{{"Pen", 1, "office"}}}).
		AddSection(&SectionConfig{ShowHeader: true, Data: []map[string]interface{}{{"b": 2, "a": 1}}}).
		Build()

	f := openBook(t, e)
	rows, err := f.GetRows("Auto")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Price", "Category"}, rows[0])
	assert.Equal(t, []string{"Pen", "1", "office"}, rows[1])
	assert.Equal(t, []string{"a", "b"}, rows[3])
	assert.Equal(t, []string{"1", "2"}, rows[4])
}

const reportYAML = `
sheets:
  - name: Report
    sections:
      - id: heading
        type: title
        title: Quarterly
        col_span: 2
      - id: items
        show_header: true
        columns:
          - field_name: Name
            header: Item
          - field_name: Price
            header: Cost
            formatter: cents
`

func TestYAMLTemplate(t *testing.T) {
	e, err := NewDataExporterFromYAML(reportYAML)
	require.NoError(t, err)
	e.RegisterFormatter("cents", func(v interface{}) interface{} { return int(v.(float64) * 100) }).
		BindSectionData("items", []row{{Name: "Pen", Price: 1.5}})

	require.NotNil(t, e.Section("items"))
	assert.Nil(t, e.Section("missing"))

	f := openBook(t, e)
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly", rows[0][0])
	assert.Equal(t, []string{"Item", "Cost"}, rows[2])
	assert.Equal(t, []string{"Pen", "150"}, rows[3])
}

func TestYAMLTemplateErrors(t *testing.T) {
	_, err := NewDataExporterFromYAML("")
	assert.Error(t, err)
	_, err = NewDataExporterFromYAML("sheets: [")
	assert.Error(t, err)
	_, err = NewDataExporterFromYAML("sheets: []")
	assert.Error(t, err)

	_, err = NewDataExporter().ToBytes()
	assert.Error(t, err)
}

func TestToCSV(t *testing.T) {
	e := NewDataExporter().
		AddSheet("S").
		AddSection(&SectionConfig{
			Title:      "T",
			ShowHeader: true,
			Data:       []row{{"Pen", 1.5, "office"}},
			Columns:    []ColumnConfig{{FieldName: "Name", Header: "Name"}, {FieldName: "Price", Header: "Price"}},
		}).
		Build()

	var buf bytes.Buffer
	require.NoError(t, e.ToCSV(&buf))
	assert.Equal(t, "T\nName,Price\nPen,1.5\n\n", buf.String())
}
