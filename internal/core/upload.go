package core

// upload.go submits validated records to a RecordStore.
//
// Submission is strictly sequential: one record in flight at a time, in row
// order. A failed submission is recorded on its row and the loop moves on.
// Cancellation is checked between rows only; a submission that has already
// been dispatched runs to completion and its outcome is kept.

import (
	"context"
	"log/slog"
	"time"
)

// RowResult reports the outcome of one submission.
type RowResult struct {
	Index int // position in the records slice
	Row   int // source row number
	Err   error
}

// BatchUploader drives the per-row submission loop.
type BatchUploader struct {
	store  RecordStore
	logger *slog.Logger
}

// NewBatchUploader creates an uploader writing to store.
func NewBatchUploader(store RecordStore, logger *slog.Logger) *BatchUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchUploader{store: store, logger: logger}
}

// Attemptable returns the indexes of records an upload pass would submit:
// valid records that have not already been stored.
func Attemptable(records []NoticeRecord) []int {
	var idx []int
	for i, rec := range records {
		if rec.Valid() && rec.UploadStatus != UploadSuccess {
			idx = append(idx, i)
		}
	}
	return idx
}

// Upload submits every attemptable record and calls report after each one.
// It returns ErrNoValidEntries without submitting anything when there is
// nothing to attempt. records is read but never modified.
func (u *BatchUploader) Upload(ctx context.Context, records []NoticeRecord, report func(RowResult)) (UploadSummary, error) {
	targets := Attemptable(records)
	if len(targets) == 0 {
		return UploadSummary{}, ErrNoValidEntries
	}

	start := time.Now()
	summary := UploadSummary{PerRowErrors: []RowError{}}
	submitCtx := context.WithoutCancel(ctx)

	for _, i := range targets {
		if ctx.Err() != nil {
			summary.Outcome = OutcomeCancelled
			break
		}

		rec := records[i]
		err := u.store.Submit(submitCtx, rec)
		summary.TotalAttempted++

		if err != nil {
			summary.Failed++
			summary.PerRowErrors = append(summary.PerRowErrors, RowError{
				Row:     rec.RowNumber,
				Kind:    KindUpload,
				Message: err.Error(),
			})
			u.logger.Debug("row rejected", "row", rec.RowNumber, "error", err)
		} else {
			summary.Succeeded++
			u.logger.Debug("row stored", "row", rec.RowNumber)
		}

		if report != nil {
			report(RowResult{Index: i, Row: rec.RowNumber, Err: err})
		}
	}

	if summary.Outcome == "" {
		if summary.Failed == 0 {
			summary.Outcome = OutcomeCleanSuccess
		} else {
			summary.Outcome = OutcomePartialFailure
		}
	}
	summary.Duration = time.Since(start)

	u.logger.Info("upload finished",
		"outcome", summary.Outcome,
		"attempted", summary.TotalAttempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration_ms", summary.Duration.Milliseconds(),
	)
	return summary, nil
}
