// Package store holds the RecordStore implementations that receive
// validated notices: the downstream REST endpoint and Postgres.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/gazette-import/internal/core"
)

var (
	ErrStoreRejected    = errors.New("store rejected record")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// BatchHeader carries the import batch ID on every create request.
const BatchHeader = "X-Import-Batch-ID"

// maxErrorBody caps how much of a rejection body is kept as the row error.
const maxErrorBody = 512

// HTTPStore submits notices to the create-record endpoint of the gazette
// service, one POST per record.
type HTTPStore struct {
	url    string
	token  string
	client *http.Client
}

// HTTPOptions configures an HTTPStore.
type HTTPOptions struct {
	BaseURL     string
	NoticesPath string
	AuthToken   string
	Timeout     time.Duration
	Client      *http.Client
}

func NewHTTPStore(opts HTTPOptions) (*HTTPStore, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("store base url is required")
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPStore{
		url:    strings.TrimSuffix(opts.BaseURL, "/") + opts.NoticesPath,
		token:  opts.AuthToken,
		client: client,
	}, nil
}

// URL returns the endpoint records are posted to.
func (s *HTTPStore) URL() string {
	return s.url
}

// Submit posts one record. Any 2xx status is success.
func (s *HTTPStore) Submit(ctx context.Context, rec core.NoticeRecord) error {
	body, err := json.Marshal(newNoticePayload(rec))
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := core.BatchIDFromContext(ctx); id != "" {
		req.Header.Set(BatchHeader, id)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		io.Copy(io.Discard, res.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return fmt.Errorf("%w (%d): %s", ErrStoreRejected, res.StatusCode, rejectionMessage(res.StatusCode, raw))
}

// rejectionMessage prefers the "message" or "error" field of a JSON error
// body and falls back to the raw body, then the status text.
func rejectionMessage(status int, body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

// noticePayload is the create-record body: the notice fields without
// import bookkeeping.
type noticePayload struct {
	NoticeType            core.NoticeType `json:"noticeType"`
	CurrentName           string          `json:"currentName"`
	OldName               string          `json:"oldName,omitempty"`
	AliasNames            []string        `json:"aliasNames,omitempty"`
	OldDateOfBirth        string          `json:"oldDateOfBirth,omitempty"`
	NewDateOfBirth        string          `json:"newDateOfBirth,omitempty"`
	OldPlaceOfBirth       string          `json:"oldPlaceOfBirth,omitempty"`
	NewPlaceOfBirth       string          `json:"newPlaceOfBirth,omitempty"`
	Profession            string          `json:"profession,omitempty"`
	Address               string          `json:"address,omitempty"`
	EffectiveDateOfChange string          `json:"effectiveDateOfChange,omitempty"`
	Remarks               string          `json:"remarks,omitempty"`
	Description           string          `json:"description,omitempty"`
	ReferenceNumber       string          `json:"referenceNumber,omitempty"`
	GazetteNumber         string          `json:"gazetteNumber,omitempty"`
	GazetteDate           string          `json:"gazetteDate,omitempty"`
	ItemNumber            string          `json:"itemNumber,omitempty"`
	PageNumber            string          `json:"pageNumber,omitempty"`
}

func newNoticePayload(rec core.NoticeRecord) noticePayload {
	return noticePayload{
		NoticeType:            rec.NoticeType,
		CurrentName:           rec.CurrentName,
		OldName:               rec.OldName,
		AliasNames:            rec.AliasNames,
		OldDateOfBirth:        rec.OldDateOfBirth,
		NewDateOfBirth:        rec.NewDateOfBirth,
		OldPlaceOfBirth:       rec.OldPlaceOfBirth,
		NewPlaceOfBirth:       rec.NewPlaceOfBirth,
		Profession:            rec.Profession,
		Address:               rec.Address,
		EffectiveDateOfChange: rec.EffectiveDateOfChange,
		Remarks:               rec.Remarks,
		Description:           rec.Description,
		ReferenceNumber:       rec.ReferenceNumber,
		GazetteNumber:         rec.GazetteNumber,
		GazetteDate:           rec.GazetteDate,
		ItemNumber:            rec.ItemNumber,
		PageNumber:            rec.PageNumber,
	}
}
