package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const noticesCSV = "Notice Type *,Current/New Name *,Old Name,New Date of Birth (YYYY-MM-DD)\n" +
	"Change of name,Ama Mensah,Ama Boateng,\n" +
	"Change of name,,Kofi Old,\n" +
	"Date of birth correction,Kwame Owusu,,1990-03-21\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// newStoreServer accepts every notice except those whose current name is
// in reject.
func newStoreServer(t *testing.T, reject ...string) *httptest.Server {
	t.Helper()
	rejected := make(map[string]bool)
	for _, name := range reject {
		rejected[name] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CurrentName string `json:"currentName"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if rejected[body.CurrentName] {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"duplicate notice"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	validOnly := "Notice Type *,Current/New Name *,Old Name\n" +
		"Change of name,Ama Mensah,Ama Boateng\n"

	tests := []struct {
		name     string
		content  string
		reject   []string
		extra    []string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "dry run reports invalid rows",
			content:  noticesCSV,
			extra:    []string{"--dry-run"},
			wantCode: exitPartial,
			wantOut:  []string{"3 rows, 2 valid, 1 invalid", "row 3:"},
		},
		{
			name:     "dry run clean file",
			content:  validOnly,
			extra:    []string{"--dry-run"},
			wantCode: exitOK,
			wantOut:  []string{"1 rows, 1 valid, 0 invalid"},
		},
		{
			name:     "clean upload",
			content:  validOnly,
			wantCode: exitOK,
			wantOut:  []string{"row 2: stored", "clean_success: 1 attempted, 1 succeeded, 0 failed"},
		},
		{
			name:     "store rejects one row",
			content:  noticesCSV,
			reject:   []string{"Kwame Owusu"},
			wantCode: exitPartial,
			wantOut:  []string{"row 2: stored", "row 4: failed:", "duplicate notice", "partial_failure: 2 attempted, 1 succeeded, 1 failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newStoreServer(t, tt.reject...)
			path := writeFile(t, "notices.csv", tt.content)

			args := append([]string{"--store-url", srv.URL, "--store-path", "/notices"}, tt.extra...)
			args = append(args, path)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), args, &stdout, &stderr)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout.String(), stderr.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestRun_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want string
	}{
		{
			name: "no file argument",
			args: func(t *testing.T) []string { return nil },
			want: "exactly one FILE",
		},
		{
			name: "unsupported format",
			args: func(t *testing.T) []string {
				return []string{"--dry-run", writeFile(t, "notices.txt", noticesCSV)}
			},
			want: "FILE002",
		},
		{
			name: "missing store url",
			args: func(t *testing.T) []string {
				return []string{"--store-url", "", writeFile(t, "notices.csv", noticesCSV)}
			},
			want: "--store-url",
		},
		{
			name: "no valid rows",
			args: func(t *testing.T) []string {
				path := writeFile(t, "notices.csv", "Notice Type *,Current/New Name *\nChange of name,\n")
				return []string{"--store-url", "http://127.0.0.1:1", path}
			},
			want: "UPL006",
		},
		{
			name: "unknown flag",
			args: func(t *testing.T) []string { return []string{"--bogus"} },
			want: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args(t), &stdout, &stderr)
			if code != exitFatal {
				t.Errorf("exit code = %d, want %d", code, exitFatal)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, stderr.String())
			}
		})
	}
}

func TestRun_Template(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--template", "csv"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "Notice Type *") {
		t.Errorf("template does not start with the header row: %q", stdout.String())
	}

	stdout.Reset()
	if code := run(context.Background(), []string{"--template", "pdf"}, &stdout, &stderr); code != exitFatal {
		t.Errorf("unknown template format: exit code = %d, want %d", code, exitFatal)
	}
}
