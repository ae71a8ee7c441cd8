package core

import (
	"fmt"
	"strings"
	"testing"
)

func benchmarkCSV(rows int) string {
	var b strings.Builder
	b.WriteString("Notice Type *,Current/New Name *,Old Name,Alias Names (separate with semicolon),Gazette Date (YYYY-MM-DD),Remarks\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "Change of name,Person %d,Old Person %d,\"Alias A; Alias B\",2024-05-01,\"note, with comma\"\n", i, i)
	}
	return b.String()
}

// BenchmarkTokenize measures the tokenizer on a 500-row file, the typical
// upper end of a gazette import.
func BenchmarkTokenize(b *testing.B) {
	text := benchmarkCSV(500)
	tok := NewTokenizer()

	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok.Tokenize(text)
	}
}

// BenchmarkPrepareSheet measures ingest, mapping and validation together.
func BenchmarkPrepareSheet(b *testing.B) {
	text := benchmarkCSV(500)
	in := NewIngestor(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sheet, err := in.Ingest("bench.csv", int64(len(text)), strings.NewReader(text))
		if err != nil {
			b.Fatal(err)
		}
		PrepareSheet(sheet)
	}
}
