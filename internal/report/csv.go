package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pt3002/CN-Project/pkg/loadtest"
)

var csvHeader = []string{"url", "status", "length", "time", "latency_ms", "worker"}

// WriteCSV writes a header row followed by one row per record
func WriteCSV(w io.Writer, records []loadtest.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	row := make([]string, len(csvHeader))
	for _, r := range records {
		row[0] = r.URL
		row[1] = strconv.Itoa(r.Status)
		row[2] = strconv.Itoa(r.Length)
		row[3] = r.Timestamp.Format(time.RFC3339Nano)
		row[4] = strconv.FormatFloat(float64(r.Latency)/float64(time.Millisecond), 'f', 3, 64)
		row[5] = strconv.Itoa(r.Worker)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
