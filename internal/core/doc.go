// Package core provides the business logic for bulk gazette-notice imports.
//
// This package is the heart of the importer, containing all domain logic
// independent of any UI or transport layer. It is used by the web handlers,
// the gazette-import CLI and tests without modification.
//
// # Pipeline
//
// Data flows strictly in one direction:
//
//  1. [Ingestor] turns raw file bytes (CSV or workbook) into a [Sheet] of
//     [RawRow] values, numbered by their position in the source file.
//  2. [RecordMapper] resolves header aliases and the notice-type label of each
//     row into a [NoticeRecord].
//  3. [Validate] applies the per-type required-field and date rules and
//     attaches every defect to the record.
//  4. [BatchUploader] submits the valid records to a [RecordStore] one at a
//     time, recording per-row outcomes and continuing past failures.
//
// # Batches
//
// A [Batch] owns the record set of one file and a [BatchState] advanced only
// by its reducer. The [Service] keeps batches in memory, bounds the number of
// concurrently uploading batches with a [BatchLimiter], broadcasts
// [Progress] snapshots to subscribers after every row and evicts finished
// batches after a retention period.
//
// # Notice Types
//
// The closed set of notice types lives in a static table (see registry.go).
// Each entry names the template label, the subject fields extracted for that
// type and the fields a row of that type must carry.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL004: Validation errors (dates, required fields, notice types)
//   - FILE001-FILE005: File errors (size, format, unreadable workbooks, empty files)
//   - UPL001-UPL009: Upload errors (cancelled, busy, not found, no valid rows)
//   - STO001-STO002: Record store errors (rejected, unreachable)
package core
