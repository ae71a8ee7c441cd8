package core

// registry.go holds the static notice-type and header vocabulary tables.
//
// Both tables are declarative: adding a notice type or a header variant is a
// table edit, never a code change in the mapper or validator.

import "strings"

// NoticeTypeDefinition describes one notice type: the label used in import
// templates, the subject fields extracted for it and the fields a row of this
// type must carry.
type NoticeTypeDefinition struct {
	Type     NoticeType
	Label    string
	Subject  []Field
	Required []Field
	Example  map[Field]string // example row for template export
}

// commonFields are extracted for every notice type.
var commonFields = []Field{
	FieldCurrentName,
	FieldProfession,
	FieldAddress,
	FieldEffectiveDateOfChange,
	FieldRemarks,
	FieldDescription,
	FieldReferenceNumber,
	FieldGazetteNumber,
	FieldGazetteDate,
	FieldItemNumber,
	FieldPageNumber,
}

// dateFields must parse as YYYY-MM-DD when present.
var dateFields = []Field{
	FieldGazetteDate,
	FieldOldDateOfBirth,
	FieldNewDateOfBirth,
	FieldEffectiveDateOfChange,
}

var noticeTypes = []NoticeTypeDefinition{
	{
		Type:     ChangeOfName,
		Label:    "Change of name",
		Subject:  []Field{FieldOldName, FieldAliasNames},
		Required: []Field{FieldCurrentName},
		Example: map[Field]string{
			FieldCurrentName: "Ama Serwaa Mensah",
			FieldOldName:     "Ama Serwaa Boateng",
			FieldAliasNames:  "Ama Boateng; Serwaa Boateng",
			FieldProfession:  "Teacher",
			FieldAddress:     "P.O. Box 123, Accra",
		},
	},
	{
		Type:     ChangeOfDateOfBirth,
		Label:    "Date of birth correction",
		Subject:  []Field{FieldOldDateOfBirth, FieldNewDateOfBirth},
		Required: []Field{FieldNewDateOfBirth},
		Example: map[Field]string{
			FieldCurrentName:    "Kwame Owusu",
			FieldOldDateOfBirth: "1990-03-12",
			FieldNewDateOfBirth: "1990-03-21",
		},
	},
	{
		Type:     ChangeOfPlaceOfBirth,
		Label:    "Place of birth correction",
		Subject:  []Field{FieldOldPlaceOfBirth, FieldNewPlaceOfBirth},
		Required: []Field{FieldOldPlaceOfBirth, FieldNewPlaceOfBirth},
		Example: map[Field]string{
			FieldCurrentName:     "Efua Asante",
			FieldOldPlaceOfBirth: "Kumasi",
			FieldNewPlaceOfBirth: "Cape Coast",
		},
	},
	{
		Type:  AppointmentOfMarriageOfficers,
		Label: "Marriage officer appointment",
		Example: map[Field]string{
			FieldCurrentName: "Rev. Daniel Adjei",
			FieldDescription: "Appointed marriage officer for the Accra district",
		},
	},
	{
		Type:  LegalNotice,
		Label: "Company name change",
		Example: map[Field]string{
			FieldCurrentName: "Adom Logistics Limited",
			FieldDescription: "Formerly Adom Haulage Limited",
		},
	},
	{
		Type:  PersonalNotice,
		Label: "Address change",
		Example: map[Field]string{
			FieldCurrentName: "Yaw Boakye",
			FieldAddress:     "House 14, Ring Road, Accra",
		},
	},
	{
		Type:  OtherNotice,
		Label: "Other",
		Example: map[Field]string{
			FieldCurrentName: "Abena Darko",
			FieldRemarks:     "General notice",
		},
	},
}

// headerAlias lists the header texts accepted for one canonical field. The
// first entry is the label written by template export.
type headerAlias struct {
	field   Field
	headers []string
}

var headerAliases = []headerAlias{
	{FieldNoticeType, []string{"Notice Type *", "Notice Type"}},
	{FieldGazetteNumber, []string{"Gazette Number"}},
	{FieldGazetteDate, []string{"Gazette Date (YYYY-MM-DD)", "Gazette Date"}},
	{FieldItemNumber, []string{"Item Number"}},
	{FieldPageNumber, []string{"Page Number"}},
	{FieldCurrentName, []string{"Current/New Name *", "Current/New Name", "Current Name", "New Name"}},
	{FieldOldName, []string{"Old Name"}},
	{FieldAliasNames, []string{"Alias Names (separate with semicolon)", "Alias Names"}},
	{FieldOldDateOfBirth, []string{"Old Date of Birth (YYYY-MM-DD)", "Old Date of Birth"}},
	{FieldNewDateOfBirth, []string{"New Date of Birth (YYYY-MM-DD)", "New Date of Birth"}},
	{FieldOldPlaceOfBirth, []string{"Old Place of Birth"}},
	{FieldNewPlaceOfBirth, []string{"New Place of Birth"}},
	{FieldProfession, []string{"Profession"}},
	{FieldAddress, []string{"Address"}},
	{FieldEffectiveDateOfChange, []string{"Effective Date of Change (YYYY-MM-DD)", "Effective Date of Change"}},
	{FieldRemarks, []string{"Remarks"}},
	{FieldDescription, []string{"Description"}},
	{FieldReferenceNumber, []string{"Reference Number"}},
}

var (
	typesByLabel  = make(map[string]NoticeTypeDefinition)
	typesByName   = make(map[NoticeType]NoticeTypeDefinition)
	fieldByHeader = make(map[string]Field)
	fieldLabels   = make(map[Field]string)
)

func init() {
	for _, def := range noticeTypes {
		typesByLabel[normalizeLabel(def.Label)] = def
		typesByLabel[normalizeLabel(string(def.Type))] = def
		typesByName[def.Type] = def
	}
	for _, a := range headerAliases {
		for _, h := range a.headers {
			fieldByHeader[normalizeLabel(h)] = a.field
		}
		label, _, _ := strings.Cut(a.headers[0], " (")
		fieldLabels[a.field] = strings.TrimSuffix(label, " *")
	}
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// LookupNoticeType resolves a free-text label (template label or enum name,
// case-insensitive) to its definition.
func LookupNoticeType(label string) (NoticeTypeDefinition, bool) {
	def, ok := typesByLabel[normalizeLabel(label)]
	return def, ok
}

// GetNoticeType returns the definition of a notice type.
func GetNoticeType(t NoticeType) (NoticeTypeDefinition, bool) {
	def, ok := typesByName[t]
	return def, ok
}

// NoticeTypes returns all notice types in template order.
func NoticeTypes() []NoticeTypeDefinition {
	return append([]NoticeTypeDefinition(nil), noticeTypes...)
}

// FieldForHeader resolves a header label to its canonical field.
func FieldForHeader(header string) (Field, bool) {
	f, ok := fieldByHeader[normalizeLabel(CleanCell(header))]
	return f, ok
}

// FieldLabel returns the short human label of a field, e.g. "New Date of Birth".
func FieldLabel(f Field) string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// TemplateHeaders returns the full header row written by template export.
func TemplateHeaders() []string {
	headers := make([]string, len(headerAliases))
	for i, a := range headerAliases {
		headers[i] = a.headers[0]
	}
	return headers
}

// TemplateFields returns the canonical fields in template column order.
func TemplateFields() []Field {
	fields := make([]Field, len(headerAliases))
	for i, a := range headerAliases {
		fields[i] = a.field
	}
	return fields
}

// requiredFields returns the fields a record of the given type must carry.
// The subject name comes first and duplicates are removed.
func (d NoticeTypeDefinition) requiredFields() []Field {
	fields := []Field{FieldCurrentName}
	for _, f := range d.Required {
		if f != FieldCurrentName {
			fields = append(fields, f)
		}
	}
	return fields
}
