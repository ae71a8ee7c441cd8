package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gazette-import/internal/core"
	"github.com/JonMunkholm/gazette-import/internal/logging"
	"github.com/JonMunkholm/gazette-import/internal/web/views"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// batchResponse is the JSON view of a batch.
type batchResponse struct {
	BatchID string `json:"batchId"`
	core.BatchState
	ValidRows   int `json:"validRows"`
	InvalidRows int `json:"invalidRows"`
}

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	views.ImportPage(s.service.MaxFileSize()).Render(r.Context(), w)
}

// handleCreateImport ingests, maps and validates an uploaded file into a
// new batch. An optional batchId form field replaces that batch's file.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	batchID := r.FormValue("batchId")
	preview, err := s.service.LoadFile(r.Context(), batchID, header.Filename, header.Size, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	status := http.StatusCreated
	if batchID != "" {
		status = http.StatusOK
	}
	s.respondPreview(w, r, preview, status)
}

// handleReplaceFile loads a new file into an existing batch.
func (s *Server) handleReplaceFile(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	file, header, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	preview, err := s.service.LoadFile(r.Context(), batchID, header.Filename, header.Size, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.respondPreview(w, r, preview, http.StatusOK)
}

// formFile extracts the "file" part, enforcing the size limit while the
// body is read.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, header, nil
}

func (s *Server) respondPreview(w http.ResponseWriter, r *http.Request, p *core.Preview, status int) {
	logging.WithFields(r.Context(), "batch_id", p.BatchID, "file", p.FileName).Info("import preview ready",
		"rows", p.TotalRows,
		"valid", p.ValidRows,
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		views.ImportPreview(p).Render(r.Context(), w)
		return
	}
	writeJSON(w, status, p)
}

// handleGetImport returns the batch snapshot with its records.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	state, err := s.service.Batch(batchID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		progress, _ := s.service.Progress(batchID)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		views.BatchStatus(batchID, progress, state.Summary).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		BatchID:     batchID,
		BatchState:  state,
		ValidRows:   state.ValidCount(),
		InvalidRows: state.InvalidCount(),
	})
}

// handleStartUpload starts sequential submission of the batch's valid rows.
// With ?wait=false a busy service answers 503 at once instead of queueing
// the request for a free slot.
func (s *Server) handleStartUpload(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	ctx := WithRequestMetadata(r.Context(), r)

	start := s.service.StartUpload
	if r.URL.Query().Get("wait") == "false" {
		start = s.service.TryStartUpload
	}
	if err := start(ctx, batchID); err != nil {
		if errors.Is(err, core.ErrTooManyBatches) {
			w.Header().Set("Retry-After", "30")
		}
		respondError(w, r, err, statusFor(err))
		return
	}

	progress, _ := s.service.Progress(batchID)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusAccepted)
		views.BatchStatus(batchID, progress, nil).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusAccepted, progress)
}

// handleProgress streams per-row progress via Server-Sent Events. A
// reconnecting client sends Last-Event-ID (or lastEventId) and only
// receives rows processed after it.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	lastEventID := -1
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	} else if v := r.URL.Query().Get("lastEventId"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	}

	progressCh, err := s.service.SubscribeProgress(batchID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				final, _ := s.service.Progress(batchID)
				data, _ := json.Marshal(final)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}

			// The processed count is the event ID: it only grows within a pass.
			if progress.Processed <= lastEventID {
				continue
			}
			lastEventID = progress.Processed

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Processed, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCancelUpload stops a running pass after its in-flight row.
func (s *Server) handleCancelUpload(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	if err := s.service.CancelUpload(batchID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"batchId": batchID, "status": "cancelling"})
}

// handleResetImport returns the batch to Idle, discarding its records.
func (s *Server) handleResetImport(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	if err := s.service.Reset(batchID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"batchId": batchID, "status": "reset"})
}

// handleResult waits for the running pass (bounded by the request timeout)
// and returns the upload summary.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	summary, err := s.service.Result(r.Context(), batchID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if summary == nil {
		respondError(w, r, core.ErrNoRecords, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleExportFailedRows exports invalid and rejected rows as CSV in
// template layout, ready to be corrected and imported again.
func (s *Server) handleExportFailedRows(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	failed, err := s.service.FailedRecords(batchID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("failed_rows_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := core.WriteFailedRowsCSV(w, failed); err != nil {
		logging.FromContext(r.Context()).Error("write failed rows", "batch_id", batchID, "error", err)
	}
}

// handleQueueStatus reports upload slot usage.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleHistory lists recent upload passes when a database is configured.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false, "batches": []core.BatchHistory{}})
		return
	}

	limit := parseIntParam(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	batches, err := s.history.RecentBatches(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "batches": batches})
}

// parseIntParam extracts a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
