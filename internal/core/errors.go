package core

import "errors"

// File-level errors. They abort ingestion before any row is mapped.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
	ErrInvalidWorkbook   = errors.New("invalid workbook")
)

// Batch-level errors.
var (
	ErrNoValidEntries    = errors.New("no valid entries to upload")
	ErrBatchBusy         = errors.New("batch is uploading")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrNoRecords         = errors.New("batch has no records")
	ErrNotUploading      = errors.New("batch is not uploading")
	ErrInvalidTransition = errors.New("invalid batch state transition")
)
