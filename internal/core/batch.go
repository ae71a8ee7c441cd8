package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// listenerBuffer is the channel capacity of each progress subscriber.
const listenerBuffer = 16

// Batch owns the state of one imported file. All state changes go through
// Reduce under the batch lock, and every change is broadcast to subscribers.
type Batch struct {
	ID string

	mu        sync.Mutex
	state     BatchState
	updatedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []chan Progress
}

// NewBatch creates an Idle batch.
func NewBatch(id string) *Batch {
	done := make(chan struct{})
	close(done)
	return &Batch{
		ID:        id,
		state:     BatchState{Phase: PhaseIdle},
		updatedAt: time.Now(),
		done:      done,
	}
}

// dispatchLocked applies ev and notifies listeners. b.mu must be held.
func (b *Batch) dispatchLocked(ev BatchEvent) error {
	next, err := Reduce(b.state, ev)
	if err != nil {
		return err
	}
	b.state = next
	b.updatedAt = time.Now()
	b.notifyLocked()
	return nil
}

func (b *Batch) dispatch(ev BatchEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatchLocked(ev)
}

// Load replaces the batch content with the records of a new file.
func (b *Batch) Load(fileName string, records []NoticeRecord) error {
	return b.dispatch(FileLoaded{FileName: fileName, Records: records})
}

// Reset discards all records. It fails with ErrBatchBusy while uploading.
func (b *Batch) Reset() error {
	return b.dispatch(BatchReset{})
}

// Snapshot returns a deep copy of the current state.
func (b *Batch) Snapshot() BatchState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

// Phase returns the current lifecycle phase.
func (b *Batch) Phase() BatchPhase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Phase
}

// UpdatedAt returns the time of the last state change.
func (b *Batch) UpdatedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updatedAt
}

// Progress returns the current progress snapshot.
func (b *Batch) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progressLocked()
}

func (b *Batch) progressLocked() Progress {
	s := b.state
	return Progress{
		BatchID:    b.ID,
		Phase:      s.Phase,
		Outcome:    s.Outcome,
		FileName:   s.FileName,
		Total:      s.Total,
		Processed:  s.Processed,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		CurrentRow: s.CurrentRow,
		LastError:  s.LastError,
	}
}

// Subscribe returns a channel that receives a progress snapshot after every
// processed row. The current progress is sent immediately. The channel is
// closed when the running upload pass ends, or right away when no upload is
// running. A slow reader skips intermediate snapshots but always sees the
// latest one.
func (b *Batch) Subscribe() <-chan Progress {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Progress, listenerBuffer)
	ch <- b.progressLocked()
	if b.state.Phase != PhaseUploading {
		close(ch)
		return ch
	}
	b.listeners = append(b.listeners, ch)
	return ch
}

func (b *Batch) notifyLocked() {
	p := b.progressLocked()
	for _, ch := range b.listeners {
		select {
		case ch <- p:
		default:
			// Full: drop the oldest snapshot so the newest is never lost.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p:
			default:
			}
		}
	}
}

func (b *Batch) closeListenersLocked() {
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}

// Start moves the batch to Uploading and runs the upload pass in a new
// goroutine. Precondition failures (ErrBatchBusy, ErrNoRecords,
// ErrNoValidEntries) are returned synchronously and leave the batch
// unchanged. onDone, if non-nil, is called with the summary after the pass
// has been applied to the state.
func (b *Batch) Start(ctx context.Context, u *BatchUploader, onDone func(UploadSummary)) error {
	b.mu.Lock()
	switch b.state.Phase {
	case PhaseUploading:
		b.mu.Unlock()
		return ErrBatchBusy
	case PhaseIdle:
		b.mu.Unlock()
		return ErrNoRecords
	}

	records := b.state.clone().Records
	targets := Attemptable(records)
	if len(targets) == 0 {
		b.mu.Unlock()
		return ErrNoValidEntries
	}

	if err := b.dispatchLocked(UploadStarted{Total: len(targets)}); err != nil {
		b.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(ContextWithBatchID(ctx, b.ID))
	b.cancel = cancel
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	go func() {
		var summary UploadSummary
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in batch upload", "batch_id", b.ID, "panic", r)
				summary = b.partialSummary(OutcomeCancelled)
				summary.PerRowErrors = append(summary.PerRowErrors, RowError{
					Kind:    KindUpload,
					Message: fmt.Sprintf("upload aborted: %v", r),
				})
			}

			b.mu.Lock()
			if err := b.dispatchLocked(UploadFinished{Summary: summary}); err != nil {
				slog.Error("finish batch upload", "batch_id", b.ID, "error", err)
			}
			b.closeListenersLocked()
			b.cancel = nil
			close(done)
			b.mu.Unlock()
			cancel()

			if onDone != nil {
				onDone(summary)
			}
		}()

		var err error
		summary, err = u.Upload(runCtx, records, func(r RowResult) {
			if err := b.dispatch(RowProcessed{Index: r.Index, Err: r.Err}); err != nil {
				slog.Error("record row outcome", "batch_id", b.ID, "row", r.Row, "error", err)
			}
		})
		if err != nil {
			summary = b.partialSummary(OutcomeCancelled)
		}
	}()

	return nil
}

// partialSummary builds a summary from the current counters, used when a
// pass ends without the uploader producing one.
func (b *Batch) partialSummary(outcome Outcome) UploadSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	sum := UploadSummary{
		TotalAttempted: b.state.Processed,
		Succeeded:      b.state.Succeeded,
		Failed:         b.state.Failed,
		PerRowErrors:   []RowError{},
		Outcome:        outcome,
	}
	for _, r := range b.state.Records {
		if r.UploadStatus == UploadFailed {
			sum.PerRowErrors = append(sum.PerRowErrors, RowError{Row: r.RowNumber, Kind: KindUpload, Message: r.UploadError})
		}
	}
	return sum
}

// Upload runs a pass and waits for it to finish.
func (b *Batch) Upload(ctx context.Context, u *BatchUploader) (UploadSummary, error) {
	result := make(chan UploadSummary, 1)
	if err := b.Start(ctx, u, func(s UploadSummary) { result <- s }); err != nil {
		return UploadSummary{}, err
	}
	return <-result, nil
}

// Cancel stops a running upload after the in-flight row. It reports whether
// an upload was running.
func (b *Batch) Cancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel == nil {
		return false
	}
	b.cancel()
	return true
}

// Done returns a channel closed when no upload pass is running.
func (b *Batch) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Wait blocks until the running pass (if any) finishes and returns the most
// recent summary, or nil if the batch has never been uploaded.
func (b *Batch) Wait(ctx context.Context) (*UploadSummary, error) {
	select {
	case <-b.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.Snapshot().Summary, nil
}
