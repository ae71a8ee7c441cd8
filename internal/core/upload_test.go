package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeStore records submissions and rejects configured rows.
type fakeStore struct {
	mu       sync.Mutex
	reject   map[int]string
	calls    []int
	onSubmit func(rec NoticeRecord)
}

func (s *fakeStore) Submit(ctx context.Context, rec NoticeRecord) error {
	if s.onSubmit != nil {
		s.onSubmit(rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, rec.RowNumber)
	if msg, ok := s.reject[rec.RowNumber]; ok {
		return errors.New(msg)
	}
	return nil
}

func (s *fakeStore) submitted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

func validRecords(n int) []NoticeRecord {
	out := make([]NoticeRecord, n)
	for i := range out {
		out[i] = Validate(NoticeRecord{
			RowNumber:    i + 2,
			NoticeType:   ChangeOfName,
			CurrentName:  fmt.Sprintf("Person %d", i+1),
			UploadStatus: UploadPending,
		})
	}
	return out
}

func TestBatchUploader_AllSucceed(t *testing.T) {
	store := &fakeStore{}
	u := NewBatchUploader(store, nil)

	var reported []int
	sum, err := u.Upload(context.Background(), validRecords(3), func(r RowResult) {
		reported = append(reported, r.Row)
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if sum.TotalAttempted != 3 || sum.Succeeded != 3 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 3 attempted, 3 succeeded", sum)
	}
	if sum.Outcome != OutcomeCleanSuccess {
		t.Errorf("Outcome = %q, want clean_success", sum.Outcome)
	}
	if len(reported) != 3 {
		t.Errorf("report called %d times, want 3", len(reported))
	}
}

// Five valid rows where the store rejects the third (file row 4).
func TestBatchUploader_PartialFailure(t *testing.T) {
	store := &fakeStore{reject: map[int]string{4: "reference number already used"}}
	u := NewBatchUploader(store, nil)

	sum, err := u.Upload(context.Background(), validRecords(5), nil)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if sum.Succeeded != 4 || sum.Failed != 1 || sum.TotalAttempted != 5 {
		t.Errorf("summary = %+v, want 4 succeeded, 1 failed", sum)
	}
	if sum.Succeeded+sum.Failed != sum.TotalAttempted {
		t.Error("succeeded + failed must equal attempted")
	}
	if sum.Outcome != OutcomePartialFailure {
		t.Errorf("Outcome = %q, want partial_failure", sum.Outcome)
	}
	if len(sum.PerRowErrors) != 1 {
		t.Fatalf("got %d row errors, want 1", len(sum.PerRowErrors))
	}
	e := sum.PerRowErrors[0]
	if e.Row != 4 || e.Kind != KindUpload || e.Message != "reference number already used" {
		t.Errorf("row error = %+v", e)
	}
	if got := store.submitted(); len(got) != 5 {
		t.Errorf("store saw %d submissions, want all 5", len(got))
	}
}

func TestBatchUploader_SkipsInvalidRecords(t *testing.T) {
	records := validRecords(4)
	records[1] = Validate(NoticeRecord{RowNumber: 3, NoticeType: ChangeOfName, UploadStatus: UploadPending})
	records[3] = NoticeRecord{RowNumber: 5, NoticeTypeLabel: "Foo", ValidationStatus: StatusInvalid, UploadStatus: UploadPending}

	store := &fakeStore{}
	sum, err := NewBatchUploader(store, nil).Upload(context.Background(), records, nil)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	got := store.submitted()
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("submitted rows = %v, want [2 4]", got)
	}
	if sum.TotalAttempted != 2 {
		t.Errorf("TotalAttempted = %d, want 2", sum.TotalAttempted)
	}
}

func TestBatchUploader_NoValidEntries(t *testing.T) {
	records := []NoticeRecord{Validate(NoticeRecord{RowNumber: 2, NoticeType: ChangeOfName})}

	store := &fakeStore{}
	_, err := NewBatchUploader(store, nil).Upload(context.Background(), records, nil)
	if !errors.Is(err, ErrNoValidEntries) {
		t.Errorf("err = %v, want ErrNoValidEntries", err)
	}
	if len(store.submitted()) != 0 {
		t.Error("nothing should be submitted")
	}
}

func TestBatchUploader_SkipsAlreadyStored(t *testing.T) {
	records := validRecords(3)
	records[0].UploadStatus = UploadSuccess
	records[2].UploadStatus = UploadFailed

	store := &fakeStore{}
	if _, err := NewBatchUploader(store, nil).Upload(context.Background(), records, nil); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if got := store.submitted(); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("submitted rows = %v, want [3 4]", got)
	}
}

func TestBatchUploader_CancelBetweenRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStore{}
	store.onSubmit = func(rec NoticeRecord) {
		if rec.RowNumber == 3 {
			cancel()
		}
	}

	sum, err := NewBatchUploader(store, nil).Upload(ctx, validRecords(5), nil)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// The row in flight when cancel fired still completes.
	if sum.TotalAttempted != 2 || sum.Succeeded != 2 {
		t.Errorf("summary = %+v, want 2 attempted and succeeded", sum)
	}
	if sum.Outcome != OutcomeCancelled {
		t.Errorf("Outcome = %q, want cancelled", sum.Outcome)
	}
}

func TestBatchUploader_SubmitContextSurvivesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var submitErr error

	store := &ctxStore{check: func(c context.Context) {
		cancel()
		submitErr = c.Err()
	}}
	if _, err := NewBatchUploader(store, nil).Upload(ctx, validRecords(1), nil); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if submitErr != nil {
		t.Errorf("submission context was cancelled: %v", submitErr)
	}
}

type ctxStore struct {
	check func(ctx context.Context)
}

func (s *ctxStore) Submit(ctx context.Context, rec NoticeRecord) error {
	s.check(ctx)
	return nil
}
