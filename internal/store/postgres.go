package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/gazette-import/internal/core"
	db "github.com/JonMunkholm/gazette-import/internal/database"
)

// TxBeginner is the subset of *pgxpool.Pool the Postgres store needs.
type TxBeginner interface {
	db.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore writes notices to gazette_notices and records import
// history. It implements both core.RecordStore and core.HistoryRecorder.
type PostgresStore struct {
	pool TxBeginner
}

func NewPostgresStore(pool TxBeginner) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Submit inserts one notice. Database errors raised by the statement
// (constraint violations, bad values) are rejections of the record;
// anything else means the database could not be reached.
func (s *PostgresStore) Submit(ctx context.Context, rec core.NoticeRecord) error {
	_, err := db.New(s.pool).InsertGazetteNotice(ctx, noticeParams(rec, core.BatchIDFromContext(ctx)))
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s", ErrStoreRejected, pgErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// RecordBatch stores one finished upload pass and its failed rows in a
// single transaction.
func (s *PostgresStore) RecordBatch(ctx context.Context, h core.BatchHistory) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	q := db.New(s.pool).WithTx(tx)

	passID, err := q.InsertImportBatch(ctx, batchParams(h))
	if err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}
	for _, row := range h.FailedRows {
		err := q.InsertFailedRow(ctx, db.InsertFailedRowParams{
			PassID:     passID,
			LineNumber: int32(row.LineNumber),
			Kind:       string(row.Kind),
			Reason:     row.Reason,
		})
		if err != nil {
			return fmt.Errorf("insert failed row %d: %w", row.LineNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import history: %w", err)
	}
	return nil
}

// RecentBatches lists the latest recorded upload passes, newest first.
func (s *PostgresStore) RecentBatches(ctx context.Context, limit int) ([]core.BatchHistory, error) {
	rows, err := db.New(s.pool).ListImportBatches(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}

	out := make([]core.BatchHistory, 0, len(rows))
	for _, r := range rows {
		out = append(out, historyFromRow(r))
	}
	return out, nil
}

func noticeParams(rec core.NoticeRecord, batchID string) db.InsertGazetteNoticeParams {
	aliases := rec.AliasNames
	if aliases == nil {
		aliases = []string{}
	}
	return db.InsertGazetteNoticeParams{
		BatchID:               core.ToPgUUID(batchID),
		RowNumber:             core.ToPgInt4(rec.RowNumber),
		NoticeType:            string(rec.NoticeType),
		CurrentName:           rec.CurrentName,
		OldName:               core.ToPgText(rec.OldName),
		AliasNames:            aliases,
		OldDateOfBirth:        core.ToPgDate(rec.OldDateOfBirth),
		NewDateOfBirth:        core.ToPgDate(rec.NewDateOfBirth),
		OldPlaceOfBirth:       core.ToPgText(rec.OldPlaceOfBirth),
		NewPlaceOfBirth:       core.ToPgText(rec.NewPlaceOfBirth),
		Profession:            core.ToPgText(rec.Profession),
		Address:               core.ToPgText(rec.Address),
		EffectiveDateOfChange: core.ToPgDate(rec.EffectiveDateOfChange),
		Remarks:               core.ToPgText(rec.Remarks),
		Description:           core.ToPgText(rec.Description),
		ReferenceNumber:       core.ToPgText(rec.ReferenceNumber),
		GazetteNumber:         core.ToPgText(rec.GazetteNumber),
		GazetteDate:           core.ToPgDate(rec.GazetteDate),
		ItemNumber:            core.ToPgText(rec.ItemNumber),
		PageNumber:            core.ToPgText(rec.PageNumber),
	}
}

func batchParams(h core.BatchHistory) db.InsertImportBatchParams {
	return db.InsertImportBatchParams{
		BatchID:        core.ToPgUUID(h.BatchID),
		FileName:       h.FileName,
		TotalRows:      int32(h.TotalRows),
		ValidRows:      int32(h.ValidRows),
		TotalAttempted: int32(h.Summary.TotalAttempted),
		Succeeded:      int32(h.Summary.Succeeded),
		Failed:         int32(h.Summary.Failed),
		Outcome:        string(h.Summary.Outcome),
		DurationMs:     h.Summary.Duration.Milliseconds(),
		ClientIp:       core.ToPgText(h.ClientIP),
		CompletedAt:    pgtype.Timestamptz{Time: h.CompletedAt, Valid: !h.CompletedAt.IsZero()},
	}
}

func historyFromRow(r db.ImportBatch) core.BatchHistory {
	return core.BatchHistory{
		BatchID:   core.PgUUIDToString(r.BatchID),
		FileName:  r.FileName,
		TotalRows: int(r.TotalRows),
		ValidRows: int(r.ValidRows),
		Summary: core.UploadSummary{
			TotalAttempted: int(r.TotalAttempted),
			Succeeded:      int(r.Succeeded),
			Failed:         int(r.Failed),
			Outcome:        core.Outcome(r.Outcome),
			Duration:       time.Duration(r.DurationMs) * time.Millisecond,
		},
		ClientIP:    r.ClientIp.String,
		CompletedAt: r.CompletedAt.Time,
	}
}
