package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertGazetteNotice = `-- name: InsertGazetteNotice :one
INSERT INTO gazette_notices (
    batch_id, row_number, notice_type, current_name, old_name, alias_names,
    old_date_of_birth, new_date_of_birth, old_place_of_birth, new_place_of_birth,
    profession, address, effective_date_of_change, remarks, description,
    reference_number, gazette_number, gazette_date, item_number, page_number
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
    $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
)
RETURNING id
`

type InsertGazetteNoticeParams struct {
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
}

func (q *Queries) InsertGazetteNotice(ctx context.Context, arg InsertGazetteNoticeParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertGazetteNotice,
		arg.BatchID,
		arg.RowNumber,
		arg.NoticeType,
		arg.CurrentName,
		arg.OldName,
		arg.AliasNames,
		arg.OldDateOfBirth,
		arg.NewDateOfBirth,
		arg.OldPlaceOfBirth,
		arg.NewPlaceOfBirth,
		arg.Profession,
		arg.Address,
		arg.EffectiveDateOfChange,
		arg.Remarks,
		arg.Description,
		arg.ReferenceNumber,
		arg.GazetteNumber,
		arg.GazetteDate,
		arg.ItemNumber,
		arg.PageNumber,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}
