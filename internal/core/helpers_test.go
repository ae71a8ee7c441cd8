package core

import (
	"bytes"
	"testing"
)

// ============================================================================
// sanitizeUTF8 Tests
// ============================================================================

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"valid UTF-8 unchanged", []byte("Kwame Owusu"), []byte("Kwame Owusu")},
		{"BOM stripped", []byte("\xEF\xBB\xBFNotice Type"), []byte("Notice Type")},
		{"accents preserved", []byte("Ad\xc3\xa8le"), []byte("Ad\xc3\xa8le")},
		{"invalid byte replaced", []byte("Ama\x80"), []byte("Ama�")},
		{"truncated sequence", []byte{0xc3}, []byte("�")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeUTF8(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("sanitizeUTF8(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Row helpers
// ============================================================================

func TestIsEmptyRow(t *testing.T) {
	if !isEmptyRow(nil) || !isEmptyRow([]string{"", "  ", "\t"}) {
		t.Error("blank rows should be empty")
	}
	if isEmptyRow([]string{"", "x"}) {
		t.Error("row with a value should not be empty")
	}
}

func TestRawRow(t *testing.T) {
	headers := []string{"Notice Type", "Current Name"}
	r := NewRawRow(3, headers, []string{" Other ", " Abena ", "extra"})

	if r.At(0) != "Other" || r.At(1) != "Abena" {
		t.Errorf("values not trimmed: %q %q", r.At(0), r.At(1))
	}
	if r.At(2) != "" || r.At(-1) != "" {
		t.Error("out of range cells should be empty")
	}
	if v, ok := r.Get("current name"); !ok || v != "Abena" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
	if _, ok := r.Get("Remarks"); ok {
		t.Error("Get() of unknown header should report false")
	}
	if r.IsBlank() {
		t.Error("row should not be blank")
	}

	h := r.Headers()
	h[0] = "changed"
	if r.Headers()[0] != "Notice Type" {
		t.Error("Headers() must return a copy")
	}
}
