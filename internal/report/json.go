package report

import (
	"bufio"
	"io"

	"github.com/francoispqt/gojay"
	"github.com/pt3002/CN-Project/pkg/loadtest"
)

// WriteJSON writes one JSON object per line
func WriteJSON(w io.Writer, records []loadtest.Record) error {
	bw := bufio.NewWriter(w)
	for i := range records {
		b, err := gojay.MarshalJSONObject(&records[i])
		if err != nil {
			return err
		}
		bw.Write(b)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
