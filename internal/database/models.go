package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type GazetteNotice struct {
	ID                    pgtype.UUID
	BatchID               pgtype.UUID
	RowNumber             pgtype.Int4
	NoticeType            string
	CurrentName           string
	OldName               pgtype.Text
	AliasNames            []string
	OldDateOfBirth        pgtype.Date
	NewDateOfBirth        pgtype.Date
	OldPlaceOfBirth       pgtype.Text
	NewPlaceOfBirth       pgtype.Text
	Profession            pgtype.Text
	Address               pgtype.Text
	EffectiveDateOfChange pgtype.Date
	Remarks               pgtype.Text
	Description           pgtype.Text
	ReferenceNumber       pgtype.Text
	GazetteNumber         pgtype.Text
	GazetteDate           pgtype.Date
	ItemNumber            pgtype.Text
	PageNumber            pgtype.Text
	CreatedAt             pgtype.Timestamptz
}

type ImportBatch struct {
	ID             int64
	BatchID        pgtype.UUID
	FileName       string
	TotalRows      int32
	ValidRows      int32
	TotalAttempted int32
	Succeeded      int32
	Failed         int32
	Outcome        string
	DurationMs     int64
	ClientIp       pgtype.Text
	CompletedAt    pgtype.Timestamptz
}

type ImportFailedRow struct {
	ID         int64
	PassID     int64
	LineNumber int32
	Kind       string
	Reason     string
}
