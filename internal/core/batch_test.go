package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ============================================================================
// Reducer
// ============================================================================

func TestReduce_Transitions(t *testing.T) {
	s := BatchState{Phase: PhaseIdle}

	if _, err := Reduce(s, UploadStarted{Total: 1}); !errors.Is(err, ErrNoRecords) {
		t.Errorf("start from idle: err = %v, want ErrNoRecords", err)
	}
	if _, err := Reduce(s, FileLoaded{FileName: "a.csv"}); !errors.Is(err, ErrNoRecords) {
		t.Errorf("load empty file: err = %v, want ErrNoRecords", err)
	}

	s, err := Reduce(s, FileLoaded{FileName: "a.csv", Records: validRecords(2)})
	if err != nil || s.Phase != PhaseFileLoaded {
		t.Fatalf("load: phase = %q, err = %v", s.Phase, err)
	}

	s, err = Reduce(s, UploadStarted{Total: 2})
	if err != nil || s.Phase != PhaseUploading {
		t.Fatalf("start: phase = %q, err = %v", s.Phase, err)
	}

	for _, ev := range []BatchEvent{FileLoaded{Records: validRecords(1)}, UploadStarted{Total: 1}, BatchReset{}} {
		if _, err := Reduce(s, ev); !errors.Is(err, ErrBatchBusy) {
			t.Errorf("%T while uploading: err = %v, want ErrBatchBusy", ev, err)
		}
	}

	s, _ = Reduce(s, RowProcessed{Index: 0})
	s, _ = Reduce(s, RowProcessed{Index: 1, Err: errors.New("rejected")})
	if s.Processed != 2 || s.Succeeded != 1 || s.Failed != 1 || s.LastError != "rejected" {
		t.Errorf("counters = %d/%d/%d last=%q", s.Processed, s.Succeeded, s.Failed, s.LastError)
	}
	if s.Records[0].UploadStatus != UploadSuccess || s.Records[1].UploadStatus != UploadFailed {
		t.Error("record statuses not updated")
	}

	s, err = Reduce(s, UploadFinished{Summary: UploadSummary{Outcome: OutcomePartialFailure, TotalAttempted: 2, Succeeded: 1, Failed: 1}})
	if err != nil || s.Phase != PhaseCompleted || s.Outcome != OutcomePartialFailure {
		t.Fatalf("finish: phase = %q outcome = %q err = %v", s.Phase, s.Outcome, err)
	}
	if len(s.Records) != 2 {
		t.Error("partial failure must keep records for correction")
	}

	if _, err := Reduce(s, RowProcessed{Index: 0}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("row after finish: err = %v, want ErrInvalidTransition", err)
	}

	// Re-upload resets failed rows to pending and keeps successes.
	s, err = Reduce(s, UploadStarted{Total: 1})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if s.Records[1].UploadStatus != UploadPending || s.Records[1].UploadError != "" {
		t.Errorf("failed row after restart = %q %q, want pending", s.Records[1].UploadStatus, s.Records[1].UploadError)
	}
	if s.Records[0].UploadStatus != UploadSuccess {
		t.Error("stored row should stay success")
	}

	s, _ = Reduce(s, RowProcessed{Index: 1})
	s, _ = Reduce(s, UploadFinished{Summary: UploadSummary{Outcome: OutcomeCleanSuccess, TotalAttempted: 1, Succeeded: 1}})
	if s.Phase != PhaseIdle || s.Records != nil {
		t.Errorf("clean success: phase = %q records = %d, want idle with none", s.Phase, len(s.Records))
	}
	if s.Summary == nil || s.Summary.Succeeded != 1 {
		t.Error("clean success should keep the summary")
	}
}

func TestReduce_ResetFromCompleted(t *testing.T) {
	s := BatchState{Phase: PhaseCompleted, Outcome: OutcomeCancelled, Records: validRecords(1)}
	s, err := Reduce(s, BatchReset{})
	if err != nil || s.Phase != PhaseIdle || len(s.Records) != 0 || s.Outcome != "" {
		t.Errorf("reset: %+v, err = %v", s, err)
	}
}

// ============================================================================
// Batch controller
// ============================================================================

func TestBatch_UploadCleanSuccessClearsState(t *testing.T) {
	b := NewBatch("b1")
	if err := b.Load("a.csv", validRecords(3)); err != nil {
		t.Fatal(err)
	}

	sum, err := b.Upload(context.Background(), NewBatchUploader(&fakeStore{}, nil))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if sum.Outcome != OutcomeCleanSuccess {
		t.Errorf("Outcome = %q", sum.Outcome)
	}

	s := b.Snapshot()
	if s.Phase != PhaseIdle || len(s.Records) != 0 {
		t.Errorf("after clean success phase = %q records = %d", s.Phase, len(s.Records))
	}
	if _, err := b.Upload(context.Background(), NewBatchUploader(&fakeStore{}, nil)); !errors.Is(err, ErrNoRecords) {
		t.Errorf("upload after clean success: err = %v, want ErrNoRecords", err)
	}
}

func TestBatch_PartialFailureThenRetry(t *testing.T) {
	b := NewBatch("b2")
	b.Load("a.csv", validRecords(5))

	store := &fakeStore{reject: map[int]string{4: "duplicate reference"}}
	sum, err := b.Upload(context.Background(), NewBatchUploader(store, nil))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 4 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	s := b.Snapshot()
	if s.Phase != PhaseCompleted || s.Records[2].UploadError != "duplicate reference" {
		t.Errorf("phase = %q, row 4 error = %q", s.Phase, s.Records[2].UploadError)
	}

	delete(store.reject, 4)
	sum, err = b.Upload(context.Background(), NewBatchUploader(store, nil))
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalAttempted != 1 || sum.Outcome != OutcomeCleanSuccess {
		t.Errorf("retry summary = %+v, want only the failed row", sum)
	}
}

func TestBatch_NoValidEntriesIsANonStart(t *testing.T) {
	b := NewBatch("b3")
	b.Load("a.csv", []NoticeRecord{Validate(NoticeRecord{RowNumber: 2, NoticeType: ChangeOfName})})

	store := &fakeStore{}
	_, err := b.Upload(context.Background(), NewBatchUploader(store, nil))
	if !errors.Is(err, ErrNoValidEntries) {
		t.Errorf("err = %v, want ErrNoValidEntries", err)
	}
	if b.Phase() != PhaseFileLoaded {
		t.Errorf("phase = %q, want file_loaded", b.Phase())
	}
}

func TestBatch_SubscribeSeesEveryRow(t *testing.T) {
	release := make(chan struct{})
	store := &fakeStore{onSubmit: func(NoticeRecord) { <-release }}

	b := NewBatch("b4")
	b.Load("a.csv", validRecords(3))

	done := make(chan UploadSummary, 1)
	if err := b.Start(context.Background(), NewBatchUploader(store, nil), func(s UploadSummary) { done <- s }); err != nil {
		t.Fatal(err)
	}

	ch := b.Subscribe()
	first := <-ch
	if first.Phase != PhaseUploading || first.Total != 3 {
		t.Errorf("first progress = %+v", first)
	}

	var last Progress
	go func() {
		for i := 0; i < 3; i++ {
			release <- struct{}{}
		}
	}()
	for p := range ch {
		last = p
	}
	<-done

	if last.Processed != 3 || last.Succeeded != 3 || last.Percent() != 100 {
		t.Errorf("last progress = %+v", last)
	}
}

func TestBatch_CancelKeepsUnattemptedPending(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	store := &fakeStore{onSubmit: func(rec NoticeRecord) {
		if rec.RowNumber == 2 {
			close(started)
			<-release
		}
	}}

	b := NewBatch("b5")
	b.Load("a.csv", validRecords(4))

	done := make(chan UploadSummary, 1)
	b.Start(context.Background(), NewBatchUploader(store, nil), func(s UploadSummary) { done <- s })

	<-started
	if !b.Cancel() {
		t.Fatal("Cancel should report a running upload")
	}
	close(release)

	var sum UploadSummary
	select {
	case sum = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("upload did not stop after cancel")
	}

	if sum.Outcome != OutcomeCancelled || sum.TotalAttempted != 1 {
		t.Errorf("summary = %+v, want cancelled after 1 row", sum)
	}
	s := b.Snapshot()
	if s.Phase != PhaseCompleted || s.Outcome != OutcomeCancelled {
		t.Errorf("phase = %q outcome = %q", s.Phase, s.Outcome)
	}
	if s.Records[0].UploadStatus != UploadSuccess {
		t.Error("in-flight row outcome must be recorded")
	}
	for _, r := range s.Records[1:] {
		if r.UploadStatus != UploadPending {
			t.Errorf("row %d status = %q, want pending", r.RowNumber, r.UploadStatus)
		}
	}
	if b.Cancel() {
		t.Error("Cancel after completion should report false")
	}
}

func TestBatch_SnapshotIsDeepCopy(t *testing.T) {
	b := NewBatch("b6")
	b.Load("a.csv", validRecords(1))

	s := b.Snapshot()
	s.Records[0].CurrentName = "changed"
	if b.Snapshot().Records[0].CurrentName == "changed" {
		t.Error("Snapshot must not share records with the batch")
	}
}
