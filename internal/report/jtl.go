package report

import (
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/pt3002/CN-Project/pkg/loadtest"
)

// WriteJTL writes records as a JMeter XML results file so they can be loaded by existing tooling.
// Each record becomes an httpSample element
func WriteJTL(w io.Writer, records []loadtest.Record) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("testResults")
	root.CreateAttr("version", "1.2")

	for _, r := range records {
		s := root.CreateElement("httpSample")
		s.CreateAttr("t", strconv.FormatInt(int64(r.Latency/time.Millisecond), 10))
		s.CreateAttr("ts", strconv.FormatInt(r.Timestamp.UnixNano()/int64(time.Millisecond), 10))
		s.CreateAttr("s", strconv.FormatBool(!r.Failed()))
		s.CreateAttr("lb", r.URL)
		s.CreateAttr("rc", strconv.Itoa(r.Status))
		if r.Failed() {
			s.CreateAttr("rm", "transport error")
		} else {
			s.CreateAttr("rm", "")
		}
		s.CreateAttr("tn", "worker "+strconv.Itoa(r.Worker))
		s.CreateAttr("by", strconv.Itoa(r.Length))
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}
