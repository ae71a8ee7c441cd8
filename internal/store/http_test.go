package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/gazette-import/internal/core"
)

func sampleRecord() core.NoticeRecord {
	return core.NoticeRecord{
		RowNumber:        2,
		NoticeType:       core.ChangeOfName,
		NoticeTypeLabel:  "Change of name",
		CurrentName:      "Ama Mensah",
		OldName:          "Ama Boateng",
		AliasNames:       []string{"Ama B"},
		GazetteDate:      "2024-05-01",
		ValidationStatus: core.StatusValid,
		UploadStatus:     core.UploadPending,
	}
}

func TestHTTPStore_Submit(t *testing.T) {
	var (
		mu      sync.Mutex
		gotBody map[string]any
		gotHdr  http.Header
		gotPath string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotHdr = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s, err := NewHTTPStore(HTTPOptions{BaseURL: srv.URL + "/", NoticesPath: "/api/gazette-notices", AuthToken: "tok"})
	if err != nil {
		t.Fatal(err)
	}

	ctx := core.ContextWithBatchID(context.Background(), "batch-1")
	if err := s.Submit(ctx, sampleRecord()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/api/gazette-notices" {
		t.Errorf("path = %q", gotPath)
	}
	if gotHdr.Get(BatchHeader) != "batch-1" {
		t.Errorf("batch header = %q", gotHdr.Get(BatchHeader))
	}
	if gotHdr.Get("Authorization") != "Bearer tok" {
		t.Errorf("authorization = %q", gotHdr.Get("Authorization"))
	}
	if gotBody["noticeType"] != "CHANGE_OF_NAME" || gotBody["currentName"] != "Ama Mensah" {
		t.Errorf("body = %v", gotBody)
	}
	if _, ok := gotBody["validationStatus"]; ok {
		t.Error("import bookkeeping must not be sent")
	}
}

func TestHTTPStore_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusUnprocessableEntity, `{"message":"reference number already used"}`, "reference number already used"},
		{"error field", http.StatusBadRequest, `{"error":"currentName too long"}`, "currentName too long"},
		{"raw body", http.StatusInternalServerError, "database down", "database down"},
		{"empty body", http.StatusConflict, "", "Conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s, _ := NewHTTPStore(HTTPOptions{BaseURL: srv.URL, NoticesPath: "/notices"})
			err := s.Submit(context.Background(), sampleRecord())
			if !errors.Is(err, ErrStoreRejected) {
				t.Fatalf("err = %v, want ErrStoreRejected", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestHTTPStore_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	s, _ := NewHTTPStore(HTTPOptions{BaseURL: url, NoticesPath: "/notices"})
	err := s.Submit(context.Background(), sampleRecord())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	if core.MapError(err).Code != "STO002" {
		t.Errorf("mapped code = %s, want STO002", core.MapError(err).Code)
	}
}

// Five valid rows submitted over HTTP: the endpoint answers 422 for file
// row 4 and the other four are stored.
func TestHTTPStore_WithUploader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		if p["currentName"] == "Person 3" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"duplicate notice"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, _ := NewHTTPStore(HTTPOptions{BaseURL: srv.URL, NoticesPath: "/notices"})

	records := make([]core.NoticeRecord, 5)
	for i := range records {
		rec := sampleRecord()
		rec.RowNumber = i + 2
		rec.CurrentName = "Person " + string(rune('1'+i))
		records[i] = core.Validate(rec)
	}

	sum, err := core.NewBatchUploader(s, nil).Upload(context.Background(), records, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 4 || sum.Failed != 1 {
		t.Fatalf("summary = %+v, want 4 succeeded 1 failed", sum)
	}
	if sum.PerRowErrors[0].Row != 4 || !strings.Contains(sum.PerRowErrors[0].Message, "duplicate notice") {
		t.Errorf("row error = %+v", sum.PerRowErrors[0])
	}
}

func TestNewHTTPStore_RequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPStore(HTTPOptions{}); err == nil {
		t.Error("NewHTTPStore without base url should fail")
	}
}
