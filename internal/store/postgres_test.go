package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gazette-import/internal/core"
)

// fakeRow returns a fixed Scan error.
type fakeRow struct{ err error }

func (r fakeRow) Scan(dest ...any) error { return r.err }

// fakePool answers every QueryRow with rowErr and records the arguments.
type fakePool struct {
	rowErr error
	args   []any
}

func (p *fakePool) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	p.args = args
	return fakeRow{err: p.rowErr}
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

func TestPostgresStore_Submit(t *testing.T) {
	tests := []struct {
		name    string
		rowErr  error
		wantErr error
	}{
		{"inserted", nil, nil},
		{"constraint violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, ErrStoreRejected},
		{"connection lost", errors.New("conn closed"), ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &fakePool{rowErr: tt.rowErr}
			err := NewPostgresStore(pool).Submit(context.Background(), sampleRecord())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(pool.args) != 20 {
				t.Errorf("insert args = %d, want 20", len(pool.args))
			}
		})
	}
}

func TestPostgresStore_RejectionMapsToDuplicate(t *testing.T) {
	pool := &fakePool{rowErr: &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"gazette_notices_reference_number_key\""}}
	err := NewPostgresStore(pool).Submit(context.Background(), sampleRecord())
	if code := core.MapError(err).Code; code != "DB001" {
		t.Errorf("mapped code = %s, want DB001", code)
	}
}

func TestNoticeParams(t *testing.T) {
	rec := sampleRecord()
	rec.NewDateOfBirth = "not-a-date"
	p := noticeParams(rec, "6f1c2f9e-8d55-4c1b-9a53-2f4f7c1f2b10")

	if !p.BatchID.Valid || p.RowNumber.Int32 != 2 {
		t.Errorf("batch/row = %+v %+v", p.BatchID, p.RowNumber)
	}
	if p.NoticeType != "CHANGE_OF_NAME" || p.CurrentName != "Ama Mensah" {
		t.Errorf("type/name = %q %q", p.NoticeType, p.CurrentName)
	}
	if !p.GazetteDate.Valid || p.NewDateOfBirth.Valid {
		t.Error("gazette date should be set and malformed date NULL")
	}
	if p.Address.Valid {
		t.Error("empty address should be NULL")
	}
	if len(p.AliasNames) != 1 {
		t.Errorf("aliases = %v", p.AliasNames)
	}

	if got := noticeParams(core.NoticeRecord{}, "").AliasNames; got == nil {
		t.Error("alias names must never be nil")
	}
}

func TestBatchParams(t *testing.T) {
	done := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h := core.BatchHistory{
		BatchID:   "6f1c2f9e-8d55-4c1b-9a53-2f4f7c1f2b10",
		FileName:  "notices.csv",
		TotalRows: 5,
		ValidRows: 4,
		Summary: core.UploadSummary{
			TotalAttempted: 4,
			Succeeded:      3,
			Failed:         1,
			Outcome:        core.OutcomePartialFailure,
			Duration:       1500 * time.Millisecond,
		},
		ClientIP:    "10.0.0.7",
		CompletedAt: done,
	}

	p := batchParams(h)
	if p.TotalAttempted != 4 || p.Succeeded != 3 || p.Failed != 1 || p.DurationMs != 1500 {
		t.Errorf("counters = %+v", p)
	}
	if p.Outcome != "partial_failure" || p.ClientIp.String != "10.0.0.7" || !p.CompletedAt.Time.Equal(done) {
		t.Errorf("params = %+v", p)
	}
}
