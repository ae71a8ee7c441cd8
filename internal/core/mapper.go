package core

import (
	"errors"
	"fmt"
	"strings"
)

// HeaderIndex maps canonical fields to their column position in a sheet.
type HeaderIndex map[Field]int

// ResolveHeaders builds the index for a header row. When two columns resolve
// to the same field the first one wins. Unknown headers are ignored.
func ResolveHeaders(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for i, h := range headers {
		f, ok := FieldForHeader(h)
		if !ok {
			continue
		}
		if _, seen := idx[f]; !seen {
			idx[f] = i
		}
	}
	return idx
}

// RecordMapper converts raw rows of one file into notice records. It is built
// once per file so header resolution happens once.
type RecordMapper struct {
	index HeaderIndex
}

// NewRecordMapper resolves the headers of a file.
func NewRecordMapper(headers []string) *RecordMapper {
	return &RecordMapper{index: ResolveHeaders(headers)}
}

// Index returns the resolved header index.
func (m *RecordMapper) Index() HeaderIndex {
	return m.index
}

func (m *RecordMapper) cell(row RawRow, f Field) string {
	pos, ok := m.index[f]
	if !ok {
		return ""
	}
	return row.At(pos)
}

// Map converts one row. A row whose notice type is missing or unknown comes
// back Invalid with a single mapping error. Its cells are still copied so
// the failed-rows export can return them for correction.
func (m *RecordMapper) Map(row RawRow) NoticeRecord {
	rec := NoticeRecord{
		RowNumber:    row.Number,
		UploadStatus: UploadPending,
	}

	label := m.cell(row, FieldNoticeType)
	rec.NoticeTypeLabel = label

	def, err := m.resolveType(label)
	if err != nil {
		rec.ValidationStatus = StatusInvalid
		rec.ValidationErrors = []RowError{{
			Row:     row.Number,
			Kind:    KindMapping,
			Field:   FieldNoticeType,
			Value:   label,
			Message: err.Error(),
		}}
		for _, f := range TemplateFields() {
			if f != FieldNoticeType {
				m.assign(&rec, row, f)
			}
		}
		return rec
	}
	rec.NoticeType = def.Type

	for _, f := range commonFields {
		m.assign(&rec, row, f)
	}
	for _, f := range def.Subject {
		m.assign(&rec, row, f)
	}
	return rec
}

// MapAll converts every row of a sheet.
func (m *RecordMapper) MapAll(rows []RawRow) []NoticeRecord {
	out := make([]NoticeRecord, len(rows))
	for i, row := range rows {
		out[i] = m.Map(row)
	}
	return out
}

func (m *RecordMapper) resolveType(label string) (NoticeTypeDefinition, error) {
	if strings.TrimSpace(label) == "" {
		return NoticeTypeDefinition{}, errors.New("notice type is required")
	}
	def, ok := LookupNoticeType(label)
	if !ok {
		return NoticeTypeDefinition{}, fmt.Errorf("unknown notice type %q", label)
	}
	return def, nil
}

func (m *RecordMapper) assign(rec *NoticeRecord, row RawRow, f Field) {
	v := m.cell(row, f)
	switch f {
	case FieldGazetteNumber:
		rec.GazetteNumber = v
	case FieldGazetteDate:
		rec.GazetteDate = v
	case FieldItemNumber:
		rec.ItemNumber = v
	case FieldPageNumber:
		rec.PageNumber = v
	case FieldCurrentName:
		rec.CurrentName = v
	case FieldOldName:
		rec.OldName = v
	case FieldAliasNames:
		rec.AliasNames = SplitAliases(v)
	case FieldOldDateOfBirth:
		rec.OldDateOfBirth = v
	case FieldNewDateOfBirth:
		rec.NewDateOfBirth = v
	case FieldOldPlaceOfBirth:
		rec.OldPlaceOfBirth = v
	case FieldNewPlaceOfBirth:
		rec.NewPlaceOfBirth = v
	case FieldProfession:
		rec.Profession = v
	case FieldAddress:
		rec.Address = v
	case FieldEffectiveDateOfChange:
		rec.EffectiveDateOfChange = v
	case FieldRemarks:
		rec.Remarks = v
	case FieldDescription:
		rec.Description = v
	case FieldReferenceNumber:
		rec.ReferenceNumber = v
	}
}
