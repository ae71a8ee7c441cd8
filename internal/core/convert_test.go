package core

import (
	"reflect"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseDate / ToPgDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2024-01-31", false},
		{" 2024-02-29 ", false},
		{"2023-02-29", true},
		{"2024-13-01", true},
		{"31/01/2024", true},
		{"2024-1-5", true},
		{"Jan 31, 2024", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestToPgDate(t *testing.T) {
	d := ToPgDate("1990-03-21")
	if !d.Valid || !d.Time.Equal(time.Date(1990, 3, 21, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ToPgDate() = %+v", d)
	}
	if ToPgDate("21/03/1990").Valid {
		t.Error("non-ISO date should be invalid")
	}
	if ToPgDate("").Valid {
		t.Error("empty date should be invalid")
	}
}

// ----------------------------------------------------------------------------
// Text / UUID Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	if got := ToPgText("  Accra "); !got.Valid || got.String != "Accra" {
		t.Errorf("ToPgText() = %+v", got)
	}
	if ToPgText("   ").Valid {
		t.Error("blank text should be invalid")
	}
}

func TestPgUUIDRoundTrip(t *testing.T) {
	const id = "6f1c2f9e-8d55-4c1b-9a53-2f4f7c1f2b10"
	if got := PgUUIDToString(ToPgUUID(id)); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
	if ToPgUUID("not-a-uuid").Valid {
		t.Error("invalid uuid should be invalid")
	}
}

// ----------------------------------------------------------------------------
// CleanCell / SplitAliases Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Notice Type  ", "Notice Type"},
		{`="Gazette Number"`, "Gazette Number"},
		{"=Remarks", "Remarks"},
		{`"Address"`, "Address"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitAliases(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Ama; Serwaa", []string{"Ama", "Serwaa"}},
		{" ; Ama ;; ", []string{"Ama"}},
		{"", nil},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		if got := SplitAliases(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitAliases(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
