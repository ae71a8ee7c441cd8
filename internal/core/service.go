package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryTimeout bounds the write of one batch history entry.
var HistoryTimeout = 10 * time.Second

// FailedRow is one rejected row as stored in batch history.
type FailedRow struct {
	LineNumber int       `json:"lineNumber"`
	Kind       ErrorKind `json:"kind"`
	Reason     string    `json:"reason"`
}

// BatchHistory describes a finished upload pass for persistent history.
type BatchHistory struct {
	BatchID     string        `json:"batchId"`
	FileName    string        `json:"fileName"`
	TotalRows   int           `json:"totalRows"`
	ValidRows   int           `json:"validRows"`
	Summary     UploadSummary `json:"summary"`
	FailedRows  []FailedRow   `json:"failedRows,omitempty"`
	ClientIP    string        `json:"clientIp,omitempty"`
	CompletedAt time.Time     `json:"completedAt"`
}

// HistoryRecorder persists finished upload passes.
type HistoryRecorder interface {
	RecordBatch(ctx context.Context, h BatchHistory) error
}

// ServiceOptions configures a Service. Zero values use package defaults.
type ServiceOptions struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	History       HistoryRecorder
	Logger        *slog.Logger
}

// Service is the entry point for imports: it holds batches in memory and
// runs their upload passes against one RecordStore.
type Service struct {
	ingestor *Ingestor
	uploader *BatchUploader
	limiter  *BatchLimiter
	history  HistoryRecorder
	logger   *slog.Logger

	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewService creates a service submitting records to store.
func NewService(store RecordStore, opts ServiceOptions) (*Service, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		ingestor: NewIngestor(opts.MaxFileSize),
		uploader: NewBatchUploader(store, logger),
		limiter:  NewBatchLimiter(opts.MaxConcurrent, opts.MaxWait),
		history:  opts.History,
		logger:   logger,
		batches:  make(map[string]*Batch),
	}, nil
}

// Preview summarises a freshly loaded file.
type Preview struct {
	BatchID     string     `json:"batchId"`
	FileName    string     `json:"fileName"`
	Format      FileFormat `json:"format"`
	TotalRows   int        `json:"totalRows"`
	ValidRows   int        `json:"validRows"`
	InvalidRows int        `json:"invalidRows"`
	Errors      []RowError `json:"errors"`
}

// MaxFileSize returns the accepted upload size in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.ingestor.MaxSize()
}

// LoadFile ingests, maps and validates a file. With an empty batchID a new
// batch is created; otherwise the existing batch's records are replaced.
// File-level errors leave any existing batch untouched.
func (s *Service) LoadFile(ctx context.Context, batchID, name string, size int64, r io.Reader) (*Preview, error) {
	var batch *Batch
	if batchID != "" {
		b, err := s.get(batchID)
		if err != nil {
			return nil, err
		}
		if b.Phase() == PhaseUploading {
			return nil, ErrBatchBusy
		}
		batch = b
	}

	sheet, err := s.ingestor.Ingest(name, size, r)
	if err != nil {
		return nil, err
	}
	records := PrepareSheet(sheet)

	if batch == nil {
		batch = NewBatch(uuid.NewString())
	}
	if err := batch.Load(name, records); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.batches[batch.ID] = batch
	s.mu.Unlock()

	state := batch.Snapshot()
	preview := &Preview{
		BatchID:     batch.ID,
		FileName:    name,
		Format:      sheet.Format,
		TotalRows:   len(state.Records),
		ValidRows:   state.ValidCount(),
		InvalidRows: state.InvalidCount(),
		Errors:      state.RowErrors(),
	}

	s.logger.InfoContext(ctx, "file loaded",
		"batch_id", batch.ID,
		"file", name,
		"format", sheet.Format,
		"rows", preview.TotalRows,
		"valid", preview.ValidRows,
		"invalid", preview.InvalidRows,
	)
	return preview, nil
}

// StartUpload begins the upload pass of a batch and returns once it is
// running. It waits up to MaxWait for an upload slot. The pass continues
// after ctx is done; use CancelUpload to stop it.
func (s *Service) StartUpload(ctx context.Context, batchID string) error {
	return s.startUpload(ctx, batchID, s.limiter.Acquire)
}

// TryStartUpload is StartUpload without the wait: it returns
// ErrTooManyBatches at once when every upload slot is taken.
func (s *Service) TryStartUpload(ctx context.Context, batchID string) error {
	return s.startUpload(ctx, batchID, func(context.Context) error {
		if !s.limiter.TryAcquire() {
			return ErrTooManyBatches
		}
		return nil
	})
}

func (s *Service) startUpload(ctx context.Context, batchID string, acquire func(context.Context) error) error {
	batch, err := s.get(batchID)
	if err != nil {
		return err
	}

	if err := acquire(ctx); err != nil {
		return err
	}

	before := batch.Snapshot()
	clientIP := GetIPAddressFromContext(ctx)
	logger := s.logger.With("batch_id", batchID, "file", before.FileName)

	err = batch.Start(context.WithoutCancel(ctx), s.uploader, func(sum UploadSummary) {
		defer s.limiter.Release()
		logger.Info("batch upload finished",
			"outcome", sum.Outcome,
			"succeeded", sum.Succeeded,
			"failed", sum.Failed,
		)
		s.recordHistory(batchID, before, sum, clientIP)
	})
	if err != nil {
		s.limiter.Release()
		return err
	}

	logger.Info("batch upload started", "valid", before.ValidCount())
	return nil
}

func (s *Service) recordHistory(batchID string, before BatchState, sum UploadSummary, clientIP string) {
	if s.history == nil {
		return
	}

	h := BatchHistory{
		BatchID:     batchID,
		FileName:    before.FileName,
		TotalRows:   len(before.Records),
		ValidRows:   before.ValidCount(),
		Summary:     sum,
		ClientIP:    clientIP,
		CompletedAt: time.Now(),
	}
	for _, e := range before.RowErrors() {
		h.FailedRows = append(h.FailedRows, FailedRow{LineNumber: e.Row, Kind: e.Kind, Reason: e.Message})
	}
	for _, e := range sum.PerRowErrors {
		h.FailedRows = append(h.FailedRows, FailedRow{LineNumber: e.Row, Kind: e.Kind, Reason: e.Message})
	}

	ctx, cancel := context.WithTimeout(context.Background(), HistoryTimeout)
	defer cancel()
	if err := s.history.RecordBatch(ctx, h); err != nil {
		s.logger.Error("record batch history", "batch_id", batchID, "error", err)
	}
}

// SubscribeProgress returns a channel of progress snapshots for a batch. The
// channel is closed when the running pass ends.
func (s *Service) SubscribeProgress(batchID string) (<-chan Progress, error) {
	batch, err := s.get(batchID)
	if err != nil {
		return nil, err
	}
	return batch.Subscribe(), nil
}

// CancelUpload stops a running pass after its in-flight row.
func (s *Service) CancelUpload(batchID string) error {
	batch, err := s.get(batchID)
	if err != nil {
		return err
	}
	if !batch.Cancel() {
		return ErrNotUploading
	}
	s.logger.Info("batch upload cancelled", "batch_id", batchID)
	return nil
}

// Reset discards a batch's records, returning it to Idle.
func (s *Service) Reset(batchID string) error {
	batch, err := s.get(batchID)
	if err != nil {
		return err
	}
	return batch.Reset()
}

// Batch returns a snapshot of a batch.
func (s *Service) Batch(batchID string) (BatchState, error) {
	batch, err := s.get(batchID)
	if err != nil {
		return BatchState{}, err
	}
	return batch.Snapshot(), nil
}

// Progress returns the current progress of a batch without blocking.
func (s *Service) Progress(batchID string) (Progress, error) {
	batch, err := s.get(batchID)
	if err != nil {
		return Progress{}, err
	}
	return batch.Progress(), nil
}

// Result blocks until the running pass of a batch finishes and returns its
// summary.
func (s *Service) Result(ctx context.Context, batchID string) (*UploadSummary, error) {
	batch, err := s.get(batchID)
	if err != nil {
		return nil, err
	}
	return batch.Wait(ctx)
}

// FailedRecords returns records that were rejected by mapping, validation or
// the record store, in row order.
func (s *Service) FailedRecords(batchID string) ([]NoticeRecord, error) {
	state, err := s.Batch(batchID)
	if err != nil {
		return nil, err
	}
	var out []NoticeRecord
	for _, r := range state.Records {
		if !r.Valid() || r.UploadStatus == UploadFailed {
			out = append(out, r)
		}
	}
	return out, nil
}

// WaitForUploads blocks until every running pass has finished.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports upload slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// BatchCount returns the number of batches held in memory.
func (s *Service) BatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

func (s *Service) get(batchID string) (*Batch, error) {
	s.mu.RLock()
	batch, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return batch, nil
}
