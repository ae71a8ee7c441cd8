package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NoticeType identifies the kind of gazette notice a row describes.
type NoticeType string

const (
	ChangeOfName                  NoticeType = "CHANGE_OF_NAME"
	ChangeOfDateOfBirth           NoticeType = "CHANGE_OF_DATE_OF_BIRTH"
	ChangeOfPlaceOfBirth          NoticeType = "CHANGE_OF_PLACE_OF_BIRTH"
	AppointmentOfMarriageOfficers NoticeType = "APPOINTMENT_OF_MARRIAGE_OFFICERS"
	LegalNotice                   NoticeType = "LEGAL_NOTICE"
	PersonalNotice                NoticeType = "PERSONAL_NOTICE"
	OtherNotice                   NoticeType = "OTHER"
)

// Field is the canonical name of a notice attribute, independent of the
// header text used in a particular file.
type Field string

const (
	FieldNoticeType            Field = "noticeType"
	FieldGazetteNumber         Field = "gazetteNumber"
	FieldGazetteDate           Field = "gazetteDate"
	FieldItemNumber            Field = "itemNumber"
	FieldPageNumber            Field = "pageNumber"
	FieldCurrentName           Field = "currentName"
	FieldOldName               Field = "oldName"
	FieldAliasNames            Field = "aliasNames"
	FieldOldDateOfBirth        Field = "oldDateOfBirth"
	FieldNewDateOfBirth        Field = "newDateOfBirth"
	FieldOldPlaceOfBirth       Field = "oldPlaceOfBirth"
	FieldNewPlaceOfBirth       Field = "newPlaceOfBirth"
	FieldProfession            Field = "profession"
	FieldAddress               Field = "address"
	FieldEffectiveDateOfChange Field = "effectiveDateOfChange"
	FieldRemarks               Field = "remarks"
	FieldDescription           Field = "description"
	FieldReferenceNumber       Field = "referenceNumber"
)

// ValidationStatus is the outcome of validating a record.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusInvalid ValidationStatus = "invalid"
)

// UploadStatus is the per-record submission state within one upload pass.
type UploadStatus string

const (
	UploadPending UploadStatus = "pending"
	UploadSuccess UploadStatus = "success"
	UploadFailed  UploadStatus = "failed"
)

// ErrorKind classifies a row-level defect by the pipeline stage that found it.
type ErrorKind string

const (
	KindMapping    ErrorKind = "mapping"
	KindValidation ErrorKind = "validation"
	KindUpload     ErrorKind = "upload"
)

// RowError is a single defect attached to one source row.
type RowError struct {
	Row     int       `json:"row"`
	Kind    ErrorKind `json:"kind"`
	Field   Field     `json:"field,omitempty"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message"`
}

func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// RawRow is one data row of an ingested file. Values are trimmed and keyed by
// the header labels of the file they came from. Number is the 1-based source
// row (the header row is 1).
type RawRow struct {
	Number  int
	headers []string
	values  []string
}

// NewRawRow builds a row aligned to headers. Missing trailing cells read as
// empty strings and extra cells beyond the header are dropped.
func NewRawRow(number int, headers, values []string) RawRow {
	aligned := make([]string, len(headers))
	for i := range aligned {
		if i < len(values) {
			aligned[i] = strings.TrimSpace(values[i])
		}
	}
	return RawRow{Number: number, headers: headers, values: aligned}
}

// Headers returns the header labels in file order.
func (r RawRow) Headers() []string {
	return append([]string(nil), r.headers...)
}

// At returns the value in column i, or "" when out of range.
func (r RawRow) At(i int) string {
	if i < 0 || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Get returns the value under the given header label (case-insensitive).
func (r RawRow) Get(header string) (string, bool) {
	for i, h := range r.headers {
		if strings.EqualFold(h, header) {
			return r.values[i], true
		}
	}
	return "", false
}

// IsBlank reports whether every cell of the row is empty.
func (r RawRow) IsBlank() bool {
	return isEmptyRow(r.values)
}

// NoticeRecord is the canonical form of one row, produced by the mapper and
// annotated by the validator and the uploader.
type NoticeRecord struct {
	RowNumber       int        `json:"rowNumber"`
	NoticeType      NoticeType `json:"noticeType,omitempty"`
	NoticeTypeLabel string     `json:"noticeTypeLabel,omitempty"`

	// Subject fields, populated according to the notice type.
	CurrentName     string   `json:"currentName,omitempty"`
	OldName         string   `json:"oldName,omitempty"`
	AliasNames      []string `json:"aliasNames,omitempty"`
	OldDateOfBirth  string   `json:"oldDateOfBirth,omitempty"`
	NewDateOfBirth  string   `json:"newDateOfBirth,omitempty"`
	OldPlaceOfBirth string   `json:"oldPlaceOfBirth,omitempty"`
	NewPlaceOfBirth string   `json:"newPlaceOfBirth,omitempty"`

	Profession            string `json:"profession,omitempty"`
	Address               string `json:"address,omitempty"`
	EffectiveDateOfChange string `json:"effectiveDateOfChange,omitempty"`
	Remarks               string `json:"remarks,omitempty"`
	Description           string `json:"description,omitempty"`
	ReferenceNumber       string `json:"referenceNumber,omitempty"`

	GazetteNumber string `json:"gazetteNumber,omitempty"`
	GazetteDate   string `json:"gazetteDate,omitempty"`
	ItemNumber    string `json:"itemNumber,omitempty"`
	PageNumber    string `json:"pageNumber,omitempty"`

	ValidationStatus ValidationStatus `json:"validationStatus"`
	ValidationErrors []RowError       `json:"validationErrors,omitempty"`
	UploadStatus     UploadStatus     `json:"uploadStatus"`
	UploadError      string           `json:"uploadError,omitempty"`
}

// MappingFailed reports whether the row could not be resolved to a notice type.
func (r NoticeRecord) MappingFailed() bool {
	return r.NoticeType == ""
}

// Valid reports whether the record passed mapping and validation.
func (r NoticeRecord) Valid() bool {
	return r.ValidationStatus == StatusValid
}

// Value returns the string form of a canonical field. Alias names are joined
// with "; ".
func (r NoticeRecord) Value(f Field) string {
	switch f {
	case FieldNoticeType:
		return string(r.NoticeType)
	case FieldGazetteNumber:
		return r.GazetteNumber
	case FieldGazetteDate:
		return r.GazetteDate
	case FieldItemNumber:
		return r.ItemNumber
	case FieldPageNumber:
		return r.PageNumber
	case FieldCurrentName:
		return r.CurrentName
	case FieldOldName:
		return r.OldName
	case FieldAliasNames:
		return strings.Join(r.AliasNames, "; ")
	case FieldOldDateOfBirth:
		return r.OldDateOfBirth
	case FieldNewDateOfBirth:
		return r.NewDateOfBirth
	case FieldOldPlaceOfBirth:
		return r.OldPlaceOfBirth
	case FieldNewPlaceOfBirth:
		return r.NewPlaceOfBirth
	case FieldProfession:
		return r.Profession
	case FieldAddress:
		return r.Address
	case FieldEffectiveDateOfChange:
		return r.EffectiveDateOfChange
	case FieldRemarks:
		return r.Remarks
	case FieldDescription:
		return r.Description
	case FieldReferenceNumber:
		return r.ReferenceNumber
	}
	return ""
}

// Reasons joins all validation messages and the upload error for display.
func (r NoticeRecord) Reasons() string {
	var parts []string
	for _, e := range r.ValidationErrors {
		if e.Field != "" {
			parts = append(parts, string(e.Field)+": "+e.Message)
		} else {
			parts = append(parts, e.Message)
		}
	}
	if r.UploadError != "" {
		parts = append(parts, r.UploadError)
	}
	return strings.Join(parts, "; ")
}

func (r NoticeRecord) clone() NoticeRecord {
	c := r
	c.AliasNames = append([]string(nil), r.AliasNames...)
	c.ValidationErrors = append([]RowError(nil), r.ValidationErrors...)
	return c
}

// RecordStore is the create-record contract of the downstream notice store.
// A nil error means the store accepted the record; any error text is
// recorded verbatim on the row.
type RecordStore interface {
	Submit(ctx context.Context, rec NoticeRecord) error
}

// Outcome summarises how an upload pass ended.
type Outcome string

const (
	OutcomeCleanSuccess   Outcome = "clean_success"
	OutcomePartialFailure Outcome = "partial_failure"
	OutcomeCancelled      Outcome = "cancelled"
)

// UploadSummary is the result of one upload pass.
type UploadSummary struct {
	TotalAttempted int           `json:"totalAttempted"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	PerRowErrors   []RowError    `json:"perRowErrors"`
	Outcome        Outcome       `json:"outcome"`
	Duration       time.Duration `json:"durationNs"`
}

// Progress is a point-in-time view of a batch, broadcast after every row.
type Progress struct {
	BatchID    string     `json:"batchId"`
	Phase      BatchPhase `json:"phase"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	FileName   string     `json:"fileName,omitempty"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	CurrentRow int        `json:"currentRow,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Percent returns the progress as a percentage (0-100).
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Processed * 100) / p.Total
}
