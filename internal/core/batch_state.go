package core

// batch_state.go defines the batch lifecycle as a value plus one reducer.
//
//	Idle -> FileLoaded -> Uploading -> Completed{PartialFailure|Cancelled}
//	                                \-> Idle (clean success, records cleared)
//
// Completed batches can be uploaded again (only records not yet stored are
// attempted), replaced with a new file, or reset. Nothing changes while a
// batch is Uploading except through RowProcessed and UploadFinished.

import "fmt"

// BatchPhase is the lifecycle position of a batch.
type BatchPhase string

const (
	PhaseIdle       BatchPhase = "idle"
	PhaseFileLoaded BatchPhase = "file_loaded"
	PhaseUploading  BatchPhase = "uploading"
	PhaseCompleted  BatchPhase = "completed"
)

// BatchState is everything known about one batch.
type BatchState struct {
	Phase    BatchPhase     `json:"phase"`
	Outcome  Outcome        `json:"outcome,omitempty"`
	FileName string         `json:"fileName,omitempty"`
	Records  []NoticeRecord `json:"records"`

	// Counters for the current or most recent upload pass.
	Total      int    `json:"total"`
	Processed  int    `json:"processed"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	CurrentRow int    `json:"currentRow,omitempty"`
	LastError  string `json:"lastError,omitempty"`

	Summary *UploadSummary `json:"summary,omitempty"`
}

// ValidCount returns the number of valid records.
func (s BatchState) ValidCount() int {
	n := 0
	for _, r := range s.Records {
		if r.Valid() {
			n++
		}
	}
	return n
}

// InvalidCount returns the number of records that failed mapping or validation.
func (s BatchState) InvalidCount() int {
	return len(s.Records) - s.ValidCount()
}

// RowErrors returns every mapping and validation error in row order.
func (s BatchState) RowErrors() []RowError {
	var errs []RowError
	for _, r := range s.Records {
		errs = append(errs, r.ValidationErrors...)
	}
	return errs
}

func (s BatchState) clone() BatchState {
	c := s
	if s.Records != nil {
		c.Records = make([]NoticeRecord, len(s.Records))
		for i, r := range s.Records {
			c.Records[i] = r.clone()
		}
	}
	if s.Summary != nil {
		sum := *s.Summary
		sum.PerRowErrors = append([]RowError(nil), s.Summary.PerRowErrors...)
		c.Summary = &sum
	}
	return c
}

// BatchEvent is an input to the batch reducer.
type BatchEvent interface {
	batchEvent()
}

// FileLoaded replaces the record set with a freshly parsed file.
type FileLoaded struct {
	FileName string
	Records  []NoticeRecord
}

// UploadStarted begins an upload pass over Total records.
type UploadStarted struct {
	Total int
}

// RowProcessed records the outcome of one submission.
type RowProcessed struct {
	Index int
	Err   error
}

// UploadFinished ends the current pass.
type UploadFinished struct {
	Summary UploadSummary
}

// BatchReset discards all records and returns to Idle.
type BatchReset struct{}

func (FileLoaded) batchEvent()     {}
func (UploadStarted) batchEvent()  {}
func (RowProcessed) batchEvent()   {}
func (UploadFinished) batchEvent() {}
func (BatchReset) batchEvent()     {}

// Reduce applies ev to s and returns the next state. It takes ownership of
// s.Records; callers that need the previous state must clone it first.
func Reduce(s BatchState, ev BatchEvent) (BatchState, error) {
	switch ev := ev.(type) {
	case FileLoaded:
		if s.Phase == PhaseUploading {
			return s, ErrBatchBusy
		}
		if len(ev.Records) == 0 {
			return s, ErrNoRecords
		}
		return BatchState{
			Phase:    PhaseFileLoaded,
			FileName: ev.FileName,
			Records:  ev.Records,
		}, nil

	case UploadStarted:
		switch s.Phase {
		case PhaseUploading:
			return s, ErrBatchBusy
		case PhaseIdle:
			return s, ErrNoRecords
		}
		for i := range s.Records {
			if s.Records[i].UploadStatus == UploadFailed {
				s.Records[i].UploadStatus = UploadPending
				s.Records[i].UploadError = ""
			}
		}
		s.Phase = PhaseUploading
		s.Outcome = ""
		s.Total = ev.Total
		s.Processed, s.Succeeded, s.Failed = 0, 0, 0
		s.CurrentRow, s.LastError = 0, ""
		s.Summary = nil
		return s, nil

	case RowProcessed:
		if s.Phase != PhaseUploading {
			return s, fmt.Errorf("%w: row processed while %s", ErrInvalidTransition, s.Phase)
		}
		if ev.Index < 0 || ev.Index >= len(s.Records) {
			return s, fmt.Errorf("%w: row index %d out of range", ErrInvalidTransition, ev.Index)
		}
		rec := &s.Records[ev.Index]
		s.Processed++
		s.CurrentRow = rec.RowNumber
		if ev.Err != nil {
			rec.UploadStatus = UploadFailed
			rec.UploadError = ev.Err.Error()
			s.Failed++
			s.LastError = rec.UploadError
		} else {
			rec.UploadStatus = UploadSuccess
			s.Succeeded++
		}
		return s, nil

	case UploadFinished:
		if s.Phase != PhaseUploading {
			return s, fmt.Errorf("%w: upload finished while %s", ErrInvalidTransition, s.Phase)
		}
		sum := ev.Summary
		s.Summary = &sum
		s.Outcome = sum.Outcome
		if sum.Outcome == OutcomeCleanSuccess {
			s.Phase = PhaseIdle
			s.Records = nil
			s.FileName = ""
			return s, nil
		}
		s.Phase = PhaseCompleted
		return s, nil

	case BatchReset:
		if s.Phase == PhaseUploading {
			return s, ErrBatchBusy
		}
		return BatchState{Phase: PhaseIdle}, nil
	}

	return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}
