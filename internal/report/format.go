package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pt3002/CN-Project/pkg/errors"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
)

// Format is the on-disk representation of a set of records
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XML  Format = "xml"
)

// DefaultFile is where records are written when no output file is given
const DefaultFile = "loadtestresponses.csv"

var (
	// WriteAttempts bounds how many times SaveFile tries to write a report
	WriteAttempts = 3
	// WriteRetryDelay is the pause between failed write attempts
	WriteRetryDelay = time.Second
)

type ErrUnknownFormat struct {
	Format string
}

func (e *ErrUnknownFormat) Error() string {
	return fmt.Sprintf("unknown output format: %s. supported 'csv', 'json', 'xml'", e.Format)
}

func ParseFormat(in string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "csv", "":
		return CSV, nil
	case "json", "jsonl":
		return JSON, nil
	case "xml", "jtl":
		return XML, nil
	}
	return "", &ErrUnknownFormat{Format: in}
}

// FormatFromFilename guesses the format from the file extension, defaulting to CSV
func FormatFromFilename(name string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
	if err != nil {
		return CSV
	}
	return f
}

// Write encodes records to w in the given format
func Write(w io.Writer, f Format, records []loadtest.Record) error {
	switch f {
	case CSV:
		return WriteCSV(w, records)
	case JSON:
		return WriteJSON(w, records)
	case XML:
		return WriteJTL(w, records)
	}
	return &ErrUnknownFormat{Format: string(f)}
}

// SaveFile writes records to the named file, truncating it if it exists. Failed writes are retried
// WriteAttempts times before giving up
func SaveFile(ctx context.Context, name string, f Format, records []loadtest.Record) error {
	if name == "" {
		name = DefaultFile
	}

	err := loadtest.Retry(ctx, WriteAttempts, WriteRetryDelay, func() error {
		return saveFile(name, f, records)
	})
	if err != nil {
		return &errors.ReportError{File: name, Format: string(f), Err: err}
	}

	log.Info().Str("file", name).Str("format", string(f)).Int("records", len(records)).Msg("wrote records")
	return nil
}

func saveFile(name string, f Format, records []loadtest.Record) error {
	fh, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Write(fh, f, records); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
