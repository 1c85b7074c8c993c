// Package simpleexcel renders slices of structs or maps into xlsx workbooks.
// Layout is described either fluently (AddSheet/AddSection) or by a YAML
// report template whose sections receive their data through BindSectionData.
package simpleexcel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v2"
)

const (
	SectionTypeFull      = "full"  // title, header and data rows
	SectionTypeTitleOnly = "title" // a single merged title row

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Formatter converts a raw field value into the value written to the cell.
type Formatter func(interface{}) interface{}

// ReportTemplate is the YAML layout of a workbook.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig describes a block of rows. Sections stack vertically with a
// blank row between them.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Type        string         `yaml:"type"`
	ColSpan     int            `yaml:"col_span"`
	ShowHeader  bool           `yaml:"show_header"`
	HasFilter   bool           `yaml:"has_filter"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	DataStyle   *StyleTemplate `yaml:"data_style"`
	Columns     []ColumnConfig `yaml:"columns"`
	Data        interface{}    `yaml:"-"`
}

type ColumnConfig struct {
	FieldName     string    `yaml:"field_name"`
	Header        string    `yaml:"header"`
	Width         float64   `yaml:"width"`
	FormatterName string    `yaml:"formatter"`
	Formatter     Formatter `yaml:"-"`
}

type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"`
}

type FillTemplate struct {
	Color string `yaml:"color"`
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"`
	Vertical   string `yaml:"vertical"`
}

// DataExporter builds a workbook from sheets, sections and bound data.
type DataExporter struct {
	sheets     []*SheetBuilder
	data       map[string]interface{}
	formatters map[string]Formatter
	styleCache map[string]int
}

func NewDataExporter() *DataExporter {
	return &DataExporter{
		data:       make(map[string]interface{}),
		formatters: make(map[string]Formatter),
		styleCache: make(map[string]int),
	}
}

// NewDataExporterFromYAML parses a report template.
func NewDataExporterFromYAML(yamlConfig string) (*DataExporter, error) {
	if strings.TrimSpace(yamlConfig) == "" {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(yamlConfig), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("template has no sheets")
	}

	e := NewDataExporter()
	for i := range tmpl.Sheets {
		sb := e.AddSheet(tmpl.Sheets[i].Name)
		for j := range tmpl.Sheets[i].Sections {
			sb.AddSection(&tmpl.Sheets[i].Sections[j])
		}
	}
	return e, nil
}

// AddSheet appends a sheet and returns its builder.
func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	sb := &SheetBuilder{exporter: e, name: name}
	e.sheets = append(e.sheets, sb)
	return sb
}

// BindSectionData attaches data to the section with the given id.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// RegisterFormatter makes f available to columns by name.
func (e *DataExporter) RegisterFormatter(name string, f Formatter) *DataExporter {
	e.formatters[name] = f
	return e
}

// Section returns the section with the given id, or nil.
func (e *DataExporter) Section(id string) *SectionConfig {
	for _, sb := range e.sheets {
		for _, sec := range sb.sections {
			if sec.ID == id {
				return sec
			}
		}
	}
	return nil
}

type SheetBuilder struct {
	exporter *DataExporter
	name     string
	sections []*SectionConfig
}

func (sb *SheetBuilder) AddSection(sec *SectionConfig) *SheetBuilder {
	sb.sections = append(sb.sections, sec)
	return sb
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}

// BuildExcel renders every sheet into a new workbook.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	if len(e.sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}
	f := excelize.NewFile()
	for i, sb := range e.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sb.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet %q: %w", sb.name, err)
			}
		} else if _, err := f.NewSheet(sb.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", sb.name, err)
		}
		if err := e.renderSheet(f, sb); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// ToBytes renders the workbook into memory.
func (e *DataExporter) ToBytes() ([]byte, error) {
	f, err := e.BuildExcel()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter renders the workbook straight into w.
func (e *DataExporter) ToWriter(w io.Writer) error {
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ToCSV writes the sections of the first sheet as CSV, one blank line
// between sections.
func (e *DataExporter) ToCSV(w io.Writer) error {
	if len(e.sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	cw := csv.NewWriter(w)
	for _, sec := range e.sheets[0].sections {
		e.bind(sec)
		cols := mergeColumns(sec.Data, sec.Columns)
		if sec.Title != "" {
			if err := cw.Write([]string{sec.Title}); err != nil {
				return err
			}
		}
		if sec.sectionType() == SectionTypeFull {
			if sec.ShowHeader && len(cols) > 0 {
				header := make([]string, len(cols))
				for i, col := range cols {
					header[i] = col.Header
				}
				if err := cw.Write(header); err != nil {
					return err
				}
			}
			rows := rowsOf(sec.Data)
			for i := 0; i < rows.Len(); i++ {
				record := make([]string, len(cols))
				for j, col := range cols {
					record[j] = fmt.Sprintf("%v", e.cellValue(rows.Index(i), col))
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
		if err := cw.Write([]string{""}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *DataExporter) bind(sec *SectionConfig) {
	if sec.ID == "" {
		return
	}
	if data, ok := e.data[sec.ID]; ok {
		sec.Data = data
	}
}

func (sec *SectionConfig) sectionType() string {
	if sec.Type == "" {
		return SectionTypeFull
	}
	return sec.Type
}

func (e *DataExporter) renderSheet(f *excelize.File, sb *SheetBuilder) error {
	sheet := sb.name
	row := 1
	for _, sec := range sb.sections {
		e.bind(sec)
		cols := mergeColumns(sec.Data, sec.Columns)
		span := len(cols)
		if sec.ColSpan > span {
			span = sec.ColSpan
		}
		if span < 1 {
			span = 1
		}

		if sec.Title != "" {
			cell := cellName(1, row)
			if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
				return err
			}
			styleID, err := e.style(f, resolveStyle(sec.TitleStyle, &StyleTemplate{
				Font:      &FontTemplate{Bold: true},
				Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
			}))
			if err != nil {
				return err
			}
			end := cellName(span, row)
			if span > 1 {
				if err := f.MergeCell(sheet, cell, end); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, end, styleID); err != nil {
				return err
			}
			row++
		}
		if sec.sectionType() == SectionTypeTitleOnly {
			row++
			continue
		}

		headerRow := 0
		if sec.ShowHeader && len(cols) > 0 {
			headerRow = row
			styleID, err := e.style(f, resolveStyle(sec.HeaderStyle, &StyleTemplate{
				Font:      &FontTemplate{Bold: true},
				Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
			}))
			if err != nil {
				return err
			}
			for i, col := range cols {
				cell := cellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				if col.Width > 0 {
					name, _ := excelize.ColumnNumberToName(i + 1)
					if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
						return err
					}
				}
			}
			row++
		}

		dataStyle := 0
		if sec.DataStyle != nil {
			id, err := e.style(f, sec.DataStyle)
			if err != nil {
				return err
			}
			dataStyle = id
		}
		rows := rowsOf(sec.Data)
		for i := 0; i < rows.Len(); i++ {
			item := rows.Index(i)
			for j, col := range cols {
				cell := cellName(j+1, row)
				if err := f.SetCellValue(sheet, cell, e.cellValue(item, col)); err != nil {
					return err
				}
				if dataStyle != 0 {
					if err := f.SetCellStyle(sheet, cell, cell, dataStyle); err != nil {
						return err
					}
				}
			}
			row++
		}

		if sec.HasFilter && headerRow > 0 {
			ref := fmt.Sprintf("%s:%s", cellName(1, headerRow), cellName(len(cols), max(row-1, headerRow)))
			if err := f.AutoFilter(sheet, ref, nil); err != nil {
				return err
			}
		}
		row++
	}
	return nil
}

func (e *DataExporter) cellValue(item reflect.Value, col ColumnConfig) interface{} {
	val := extractValue(item, col.FieldName)
	if col.Formatter != nil {
		return col.Formatter(val)
	}
	if col.FormatterName != "" {
		if fn, ok := e.formatters[col.FormatterName]; ok {
			return fn(val)
		}
	}
	return val
}

func (e *DataExporter) style(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	var sb strings.Builder
	if tmpl.Font != nil {
		fmt.Fprintf(&sb, "f:%v:%s|", tmpl.Font.Bold, tmpl.Font.Color)
	}
	if tmpl.Fill != nil {
		fmt.Fprintf(&sb, "i:%s|", tmpl.Fill.Color)
	}
	if tmpl.Alignment != nil {
		fmt.Fprintf(&sb, "a:%s:%s|", tmpl.Alignment.Horizontal, tmpl.Alignment.Vertical)
	}
	key := sb.String()
	if id, ok := e.styleCache[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{Bold: tmpl.Font.Bold, Color: strings.TrimPrefix(tmpl.Font.Color, "#")}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(tmpl.Fill.Color, "#")}}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{Horizontal: tmpl.Alignment.Horizontal, Vertical: tmpl.Alignment.Vertical}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	e.styleCache[key] = id
	return id, nil
}

// resolveStyle fills the parts base leaves unset from def.
func resolveStyle(base, def *StyleTemplate) *StyleTemplate {
	if base == nil {
		return def
	}
	s := *base
	if s.Font == nil {
		s.Font = def.Font
	}
	if s.Fill == nil {
		s.Fill = def.Fill
	}
	if s.Alignment == nil {
		s.Alignment = def.Alignment
	}
	return &s
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// rowsOf returns data as a slice value; anything else is an empty slice.
func rowsOf(data interface{}) reflect.Value {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return reflect.ValueOf([]interface{}{})
	}
	return v
}

func extractValue(item reflect.Value, field string) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}
	switch item.Kind() {
	case reflect.Struct:
		if f := item.FieldByName(field); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Map:
		if item.Type().Key().Kind() != reflect.String {
			return ""
		}
		if v := item.MapIndex(reflect.ValueOf(field).Convert(item.Type().Key())); v.IsValid() {
			return v.Interface()
		}
	}
	return ""
}

// mergeColumns keeps the configured columns and, when none are configured,
// derives them from the exported fields of the data.
func mergeColumns(data interface{}, configured []ColumnConfig) []ColumnConfig {
	if len(configured) > 0 {
		return configured
	}
	var cols []ColumnConfig
	for _, name := range fieldsOf(data) {
		cols = append(cols, ColumnConfig{FieldName: name, Header: name, Width: 20})
	}
	return cols
}

func fieldsOf(data interface{}) []string {
	rows := rowsOf(data)
	if rows.Len() == 0 {
		return nil
	}
	elem := rows.Index(0)
	for elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Interface {
		elem = elem.Elem()
	}
	switch elem.Kind() {
	case reflect.Struct:
		var fields []string
		t := elem.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath == "" {
				fields = append(fields, t.Field(i).Name)
			}
		}
		return fields
	case reflect.Map:
		var keys []string
		for _, k := range elem.MapKeys() {
			keys = append(keys, fmt.Sprint(k.Interface()))
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}
