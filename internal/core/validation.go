package core

// validation.go applies the per-type rules from registry.go to mapped records.
//
// Every check runs; a record collects all of its defects so a user can fix a
// row in one pass. Rows that failed mapping are passed through unchanged.

import "fmt"

// Validate returns rec with its validation status and errors set.
func Validate(rec NoticeRecord) NoticeRecord {
	if rec.MappingFailed() {
		rec.ValidationStatus = StatusInvalid
		return rec
	}

	def, ok := GetNoticeType(rec.NoticeType)
	if !ok {
		rec.ValidationStatus = StatusInvalid
		rec.ValidationErrors = []RowError{{
			Row:     rec.RowNumber,
			Kind:    KindMapping,
			Field:   FieldNoticeType,
			Value:   string(rec.NoticeType),
			Message: fmt.Sprintf("unknown notice type %q", rec.NoticeType),
		}}
		return rec
	}

	var errs []RowError
	for _, f := range def.requiredFields() {
		if rec.Value(f) == "" {
			errs = append(errs, RowError{
				Row:     rec.RowNumber,
				Kind:    KindValidation,
				Field:   f,
				Message: fmt.Sprintf("required field %s is empty", FieldLabel(f)),
			})
		}
	}

	for _, f := range dateFields {
		v := rec.Value(f)
		if v == "" {
			continue
		}
		if _, err := ParseDate(v); err != nil {
			errs = append(errs, RowError{
				Row:     rec.RowNumber,
				Kind:    KindValidation,
				Field:   f,
				Value:   v,
				Message: fmt.Sprintf("invalid date %q for %s, use YYYY-MM-DD", v, FieldLabel(f)),
			})
		}
	}

	rec.ValidationErrors = errs
	if len(errs) > 0 {
		rec.ValidationStatus = StatusInvalid
	} else {
		rec.ValidationStatus = StatusValid
	}
	return rec
}

// ValidateAll validates records in place and returns the number of valid ones.
func ValidateAll(records []NoticeRecord) int {
	valid := 0
	for i := range records {
		records[i] = Validate(records[i])
		if records[i].Valid() {
			valid++
		}
	}
	return valid
}

// PrepareSheet maps and validates every row of a sheet.
func PrepareSheet(sheet *Sheet) []NoticeRecord {
	records := NewRecordMapper(sheet.Headers).MapAll(sheet.Rows)
	ValidateAll(records)
	return records
}
