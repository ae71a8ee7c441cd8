package core

// tokenizer.go splits delimited text into records.
//
// Rules:
//   - A field that starts with a double quote is quoted; inside it the
//     delimiter and line breaks are literal and "" is one quote character.
//   - A quote appearing mid-field in an unquoted field is kept as text.
//   - Records end at \n, \r\n or \r outside quotes.
//   - An unterminated quoted field runs to the end of input.
//
// Each record is one logical row regardless of how many physical lines its
// quoted fields span. TokenizeLines also reports the line each record starts
// on, so messages can point at the line a user sees in an editor.

import "strings"

// Tokenizer splits text into records of fields.
type Tokenizer struct {
	Delimiter rune
}

// NewTokenizer returns a comma-delimited tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{Delimiter: ','}
}

// Tokenize returns every record in text. Empty lines produce a record with a
// single empty field so callers can keep row numbering aligned.
func (t *Tokenizer) Tokenize(text string) [][]string {
	records, _ := t.TokenizeLines(text)
	return records
}

// TokenizeLines returns the records of text and, for each, the 1-based line
// it starts on. \r\n counts as one line break inside quotes as well.
func (t *Tokenizer) TokenizeLines(text string) ([][]string, []int) {
	var (
		records  [][]string
		lines    []int
		record   []string
		field    strings.Builder
		inQuotes bool
		quoted   bool // current field opened with a quote
		pending  bool // something has been read since the last record ended
	)
	line, start := 1, 1

	endField := func() {
		record = append(record, field.String())
		field.Reset()
		quoted = false
	}
	endRecord := func() {
		endField()
		records = append(records, record)
		lines = append(lines, start)
		record = nil
		pending = false
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		pending = true

		if inQuotes {
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			if c == '\n' || (c == '\r' && (i+1 == len(runes) || runes[i+1] != '\n')) {
				line++
			}
			field.WriteRune(c)
			continue
		}

		switch c {
		case '"':
			if field.Len() == 0 && !quoted {
				inQuotes = true
				quoted = true
				continue
			}
			field.WriteRune(c)
		case t.Delimiter:
			endField()
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRecord()
			line++
			start = line
		case '\n':
			endRecord()
			line++
			start = line
		default:
			field.WriteRune(c)
		}
	}

	if pending {
		endRecord()
	}
	return records, lines
}
