// Command gazette-import validates a notice file and uploads its valid rows
// to the gazette record store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/gazette-import/internal/core"
	"github.com/JonMunkholm/gazette-import/internal/logging"
	"github.com/JonMunkholm/gazette-import/internal/store"
)

const (
	exitOK      = 0
	exitPartial = 1
	exitFatal   = 2
)

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	storeURL  string
	path      string
	token     string
	timeout   time.Duration
	dryRun    bool
	template  string
	maxSize   int64
	logLevel  string
	logFormat string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options

	flagSet := pflag.NewFlagSet("gazette-import", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.storeURL, "store-url", os.Getenv("STORE_BASE_URL"), "base URL of the gazette record store")
	flagSet.StringVar(&opts.path, "store-path", envOr("STORE_NOTICES_PATH", "/api/gazette-notices"), "create-record path on the store")
	flagSet.StringVar(&opts.token, "token", os.Getenv("STORE_AUTH_TOKEN"), "bearer token sent to the store")
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request store timeout")
	flagSet.BoolVarP(&opts.dryRun, "dry-run", "n", false, "validate the file without uploading")
	flagSet.StringVar(&opts.template, "template", "", "write an example file (csv or xlsx) to stdout and exit")
	flagSet.Int64Var(&opts.maxSize, "max-size", 10<<20, "largest accepted file in bytes")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flagSet.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}

	logger := logging.New(stderr, opts.logLevel, opts.logFormat)
	slog.SetDefault(logger)

	if opts.template != "" {
		return writeTemplate(stdout, stderr, opts.template)
	}

	if flagSet.NArg() != 1 {
		fmt.Fprintln(stderr, "error: exactly one FILE argument is required")
		printHelp(stderr, flagSet)
		return exitFatal
	}

	return importFile(ctx, logger, opts, flagSet.Arg(0), stdout, stderr)
}

func importFile(ctx context.Context, logger *slog.Logger, opts options, path string, stdout, stderr io.Writer) int {
	records, err := loadRecords(path, opts.maxSize)
	if err != nil {
		return fatal(stderr, err)
	}

	batch := core.NewBatch(uuid.NewString())
	if err := batch.Load(path, records); err != nil {
		return fatal(stderr, err)
	}

	state := batch.Snapshot()
	fmt.Fprintf(stdout, "%s: %d rows, %d valid, %d invalid\n", path, len(state.Records), state.ValidCount(), state.InvalidCount())
	for _, e := range state.RowErrors() {
		fmt.Fprintf(stdout, "  %s\n", e.Error())
	}

	if opts.dryRun {
		if state.InvalidCount() > 0 {
			return exitPartial
		}
		return exitOK
	}

	if opts.storeURL == "" {
		return fatal(stderr, errors.New("--store-url (or STORE_BASE_URL) is required unless --dry-run is set"))
	}
	target, err := store.NewHTTPStore(store.HTTPOptions{
		BaseURL:     opts.storeURL,
		NoticesPath: opts.path,
		AuthToken:   opts.token,
		Timeout:     opts.timeout,
	})
	if err != nil {
		return fatal(stderr, err)
	}

	uploader := core.NewBatchUploader(target, logger)
	if err := batch.Start(ctx, uploader, nil); err != nil {
		return fatal(stderr, err)
	}
	for p := range batch.Subscribe() {
		if p.Total > 0 {
			fmt.Fprintf(stderr, "\rprogress: %d/%d", p.Processed, p.Total)
		}
	}
	fmt.Fprintln(stderr)

	sum, err := batch.Wait(context.Background())
	if err != nil || sum == nil {
		return fatal(stderr, fmt.Errorf("upload did not finish: %v", err))
	}
	return report(stdout, batch.Snapshot(), state, *sum)
}

func loadRecords(path string, maxSize int64) ([]core.NoticeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	sheet, err := core.NewIngestor(maxSize).Ingest(path, info.Size(), f)
	if err != nil {
		return nil, err
	}
	return core.PrepareSheet(sheet), nil
}

// report prints the per-row upload outcome and the summary. loaded is the
// state before the pass; a clean success clears the batch's records.
func report(w io.Writer, after, loaded core.BatchState, sum core.UploadSummary) int {
	failed := make(map[int]string, len(sum.PerRowErrors))
	for _, e := range sum.PerRowErrors {
		failed[e.Row] = e.Message
	}

	records := after.Records
	if len(records) == 0 {
		records = loaded.Records
	}
	for _, rec := range records {
		switch {
		case !rec.Valid():
			continue
		case failed[rec.RowNumber] != "":
			fmt.Fprintf(w, "  row %d: failed: %s\n", rec.RowNumber, failed[rec.RowNumber])
		case rec.UploadStatus == core.UploadSuccess || sum.Outcome == core.OutcomeCleanSuccess:
			fmt.Fprintf(w, "  row %d: stored\n", rec.RowNumber)
		}
	}

	fmt.Fprintf(w, "%s: %d attempted, %d succeeded, %d failed in %s\n",
		sum.Outcome, sum.TotalAttempted, sum.Succeeded, sum.Failed, sum.Duration.Round(time.Millisecond))

	if sum.Outcome != core.OutcomeCleanSuccess || loaded.InvalidCount() > 0 {
		return exitPartial
	}
	return exitOK
}

func writeTemplate(stdout, stderr io.Writer, format string) int {
	data, err := core.TemplateBytes(core.FileFormat(format))
	if err != nil {
		return fatal(stderr, err)
	}
	if _, err := stdout.Write(data); err != nil {
		return fatal(stderr, err)
	}
	return exitOK
}

func fatal(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
	return exitFatal
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `gazette-import validates a CSV or Excel file of gazette notices and
uploads its valid rows, one request per row, to the record store.

Usage:
  gazette-import [flags] FILE
  gazette-import --template csv > notices.csv

Exit status is 0 when every row was stored, 1 when some rows were invalid
or rejected, and 2 when the file could not be imported at all.

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
