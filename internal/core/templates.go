package core

// templates.go generates downloadable example import files.
//
// Each file has the full header row followed by one example row per notice
// type. The examples are valid input: a generated file ingests and validates
// without errors.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TemplateSheetName is the sheet name used in the XLSX template.
const TemplateSheetName = "Notices"

// TemplateRows returns the header row followed by one example row per
// notice type.
func TemplateRows() [][]string {
	fields := TemplateFields()
	rows := [][]string{TemplateHeaders()}

	for _, def := range noticeTypes {
		row := make([]string, len(fields))
		for i, f := range fields {
			if f == FieldNoticeType {
				row[i] = def.Label
				continue
			}
			row[i] = def.Example[f]
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSVTemplate writes the template as CSV.
func WriteCSVTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(TemplateRows()); err != nil {
		return fmt.Errorf("write csv template: %w", err)
	}
	return nil
}

// WriteXLSXTemplate writes the template as an XLSX workbook.
func WriteXLSXTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TemplateSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for r, row := range TemplateRows() {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(TemplateSheetName, cell, &values); err != nil {
			return fmt.Errorf("write template row %d: %w", r+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx template: %w", err)
	}
	return nil
}

// TemplateBytes renders the template in the given format.
func TemplateBytes(format FileFormat) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = WriteCSVTemplate(&buf)
	case FormatXLSX:
		err = WriteXLSXTemplate(&buf)
	default:
		return nil, fmt.Errorf("%w: template format %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFailedRowsCSV writes records in template layout with an extra "Row"
// column in front and an "Errors" column at the end. Import ignores unknown
// columns, so a corrected export can be imported again as is.
func WriteFailedRowsCSV(w io.Writer, records []NoticeRecord) error {
	cw := csv.NewWriter(w)
	fields := TemplateFields()

	header := append([]string{"Row"}, TemplateHeaders()...)
	header = append(header, "Errors")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := make([]string, 0, len(fields)+2)
		row = append(row, fmt.Sprintf("%d", rec.RowNumber))
		for _, f := range fields {
			if f == FieldNoticeType {
				row = append(row, rec.NoticeTypeLabel)
				continue
			}
			row = append(row, rec.Value(f))
		}
		row = append(row, rec.Reasons())
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
