package core

// ingest.go turns an uploaded file into a Sheet of numbered rows.
//
// Checks run in a fixed order so bad input fails as early as possible:
//  1. Extension: unknown extensions are rejected before reading.
//  2. Size: the declared size is checked before reading, and the read is
//     capped so an undeclared oversize stream still fails.
//  3. Parse: CSV through the Tokenizer, .xlsx through excelize and legacy
//     .xls (BIFF) through extrame/xls.
//  4. Empty: a file without a header or without data rows is rejected.

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// DefaultMaxFileSize is the largest accepted upload (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// FileFormat is the detected input format.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
	FormatXLS  FileFormat = "xls"
)

// Sheet is the ingested content of one file.
type Sheet struct {
	FileName string
	Format   FileFormat
	Headers  []string
	Rows     []RawRow
}

// DetectFormat returns the format implied by a file name's extension.
func DetectFormat(name string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	return "", fmt.Errorf("%w: %q (expected .csv, .xlsx or .xls)", ErrUnsupportedFormat, filepath.Ext(name))
}

// Ingestor reads CSV and workbook files into sheets.
type Ingestor struct {
	maxSize   int64
	tokenizer *Tokenizer
}

// NewIngestor creates an ingestor that rejects files larger than maxSize
// bytes. A non-positive maxSize uses DefaultMaxFileSize.
func NewIngestor(maxSize int64) *Ingestor {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Ingestor{maxSize: maxSize, tokenizer: NewTokenizer()}
}

// MaxSize returns the size limit in bytes.
func (in *Ingestor) MaxSize() int64 {
	return in.maxSize
}

// Ingest reads the file. size is the declared size in bytes, or -1 when
// unknown.
func (in *Ingestor) Ingest(name string, size int64, r io.Reader) (*Sheet, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if size > in.maxSize {
		return nil, in.tooLarge(size)
	}

	data, err := io.ReadAll(io.LimitReader(r, in.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > in.maxSize {
		return nil, in.tooLarge(-1)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s has no content", ErrEmptyFile, name)
	}

	var (
		records [][]string
		lines   []int
	)
	switch format {
	case FormatCSV:
		records, lines = in.tokenizer.TokenizeLines(string(sanitizeUTF8(data)))
	case FormatXLS:
		records, err = readLegacyWorkbook(data)
	default:
		records, err = readWorkbook(data)
	}
	if err != nil {
		return nil, err
	}

	sheet, err := buildSheet(records, lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	sheet.FileName = name
	sheet.Format = format
	return sheet, nil
}

func (in *Ingestor) tooLarge(size int64) error {
	limitMB := in.maxSize / (1024 * 1024)
	if size > 0 {
		return fmt.Errorf("%w: %d bytes exceeds the %dMB limit", ErrFileTooLarge, size, limitMB)
	}
	return fmt.Errorf("%w: exceeds the %dMB limit", ErrFileTooLarge, limitMB)
}

// readWorkbook returns the rows of the first sheet. Row i of the result is
// sheet row i+1, including blank rows between data.
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidWorkbook, sheets[0], err)
	}
	return rows, nil
}

// xlsMaxColumns is the BIFF8 column limit.
const xlsMaxColumns = 256

// readLegacyWorkbook returns the rows of the first sheet of a BIFF (.xls)
// workbook, with the same row positions as readWorkbook. The BIFF reader
// panics on some malformed input, so panics become ErrInvalidWorkbook.
func readLegacyWorkbook(data []byte) (records [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrInvalidWorkbook)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	sheet := wb.GetSheet(0)
	width := xlsMaxColumns
	records = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := legacyRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, 0, width)
		for c := 0; c < width || c <= row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		cells = trimTrailingBlanks(cells)
		if i == 0 {
			// Data rows never need more columns than the header or
			// their own ROW record declares.
			width = len(cells)
		}
		records = append(records, cells)
	}
	return records, nil
}

// legacyRow returns row i of the sheet, or nil when the sheet has no
// record for it.
func legacyRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func trimTrailingBlanks(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}

// buildSheet takes the first record as the header. Each later record is
// numbered by the line it starts on when lines is given, and by its
// position (header = 1) otherwise. Blank records keep their number but
// produce no row.
func buildSheet(records [][]string, lines []int) (*Sheet, error) {
	if len(records) == 0 || isEmptyRow(records[0]) {
		return nil, fmt.Errorf("%w: missing header row", ErrEmptyFile)
	}

	headers := cleanHeaders(records[0])
	sheet := &Sheet{Headers: headers}

	for i := 1; i < len(records); i++ {
		if isEmptyRow(records[i]) {
			continue
		}
		number := i + 1
		if lines != nil {
			number = lines[i]
		}
		sheet.Rows = append(sheet.Rows, NewRawRow(number, headers, records[i]))
	}

	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows after header", ErrEmptyFile)
	}
	return sheet, nil
}
