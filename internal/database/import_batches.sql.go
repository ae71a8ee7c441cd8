package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertImportBatch = `-- name: InsertImportBatch :one
INSERT INTO import_batches (
    batch_id, file_name, total_rows, valid_rows, total_attempted,
    succeeded, failed, outcome, duration_ms, client_ip, completed_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING id
`

type InsertImportBatchParams struct {
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

func (q *Queries) InsertImportBatch(ctx context.Context, arg InsertImportBatchParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertImportBatch,
		arg.BatchID,
		arg.FileName,
		arg.TotalRows,
		arg.ValidRows,
		arg.TotalAttempted,
		arg.Succeeded,
		arg.Failed,
		arg.Outcome,
		arg.DurationMs,
		arg.ClientIp,
		arg.CompletedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const insertFailedRow = `-- name: InsertFailedRow :exec
INSERT INTO import_failed_rows (pass_id, line_number, kind, reason)
VALUES ($1, $2, $3, $4)
`

type InsertFailedRowParams struct {
	PassID     int64
	LineNumber int32
	Kind       string
	Reason     string
}

func (q *Queries) InsertFailedRow(ctx context.Context, arg InsertFailedRowParams) error {
	_, err := q.db.Exec(ctx, insertFailedRow,
		arg.PassID,
		arg.LineNumber,
		arg.Kind,
		arg.Reason,
	)
	return err
}

const listImportBatches = `-- name: ListImportBatches :many
SELECT id, batch_id, file_name, total_rows, valid_rows, total_attempted,
       succeeded, failed, outcome, duration_ms, client_ip, completed_at
FROM import_batches
ORDER BY completed_at DESC
LIMIT $1
`

func (q *Queries) ListImportBatches(ctx context.Context, limit int32) ([]ImportBatch, error) {
	rows, err := q.db.Query(ctx, listImportBatches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportBatch
	for rows.Next() {
		var i ImportBatch
		if err := rows.Scan(
			&i.ID,
			&i.BatchID,
			&i.FileName,
			&i.TotalRows,
			&i.ValidRows,
			&i.TotalAttempted,
			&i.Succeeded,
			&i.Failed,
			&i.Outcome,
			&i.DurationMs,
			&i.ClientIp,
			&i.CompletedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
