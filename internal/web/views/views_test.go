package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/gazette-import/internal/core"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("<b>bad</b>", "Fix it", "FILE001").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>") {
		t.Errorf("message not escaped: %s", out)
	}
	for _, want := range []string{"&lt;b&gt;bad&lt;/b&gt;", "Fix it", "FILE001"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestImportPreview(t *testing.T) {
	p := &core.Preview{
		BatchID:     "b1",
		FileName:    "notices.csv",
		TotalRows:   3,
		ValidRows:   2,
		InvalidRows: 1,
		Errors: []core.RowError{
			{Row: 3, Kind: core.KindValidation, Field: core.FieldCurrentName, Message: "required field Current/New Name is empty"},
		},
	}

	var buf bytes.Buffer
	if err := ImportPreview(p).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`id="batch-b1"`, "<td>3</td>", "Current/New Name", "Upload 2 notices", "/api/imports/b1/upload"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestImportPreview_NoValidRowsHidesUpload(t *testing.T) {
	var buf bytes.Buffer
	ImportPreview(&core.Preview{BatchID: "b1", TotalRows: 1, InvalidRows: 1}).Render(context.Background(), &buf)
	if strings.Contains(buf.String(), "<button") {
		t.Error("upload button shown without valid rows")
	}
}

func TestBatchStatus(t *testing.T) {
	t.Run("uploading", func(t *testing.T) {
		var buf bytes.Buffer
		p := core.Progress{Phase: core.PhaseUploading, Total: 4, Processed: 2}
		BatchStatus("b1", p, nil).Render(context.Background(), &buf)
		if !strings.Contains(buf.String(), `sse-connect="/api/imports/b1/progress"`) {
			t.Errorf("missing progress stream: %s", buf.String())
		}
	})

	t.Run("partial failure", func(t *testing.T) {
		var buf bytes.Buffer
		sum := &core.UploadSummary{
			TotalAttempted: 5,
			Succeeded:      4,
			Failed:         1,
			Outcome:        core.OutcomePartialFailure,
			PerRowErrors:   []core.RowError{{Row: 4, Kind: core.KindUpload, Message: "duplicate notice"}},
		}
		BatchStatus("b1", core.Progress{Phase: core.PhaseCompleted}, sum).Render(context.Background(), &buf)
		out := buf.String()
		for _, want := range []string{
			"Some notices failed",
			`data-outcome="partial_failure"`,
			`<tr data-kind="upload"><td>4</td>`,
			"duplicate notice",
			`href="/api/imports/b1/failed-rows"`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})
}

func TestRowErrors_EmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	if err := RowErrors(nil).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("RowErrors(nil) wrote %q", buf.String())
	}
}

func TestImportPage(t *testing.T) {
	var buf bytes.Buffer
	if err := ImportPage(10 << 20).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<!doctype html>") {
		t.Errorf("page does not start with a doctype: %.40s", out)
	}
	for _, want := range []string{"Files up to 10 MB.", `hx-post="/api/imports"`, `accept=".csv,.xlsx,.xls"`, `href="/api/templates/notices.xlsx"`} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}
