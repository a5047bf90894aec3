package loadtest

import (
	"bytes"
	"os"
	"strconv"
	"time"

	"github.com/francoispqt/gojay"
	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

const (
	// StatusFailed is the status recorded when a request never produced a response
	StatusFailed = -1
	// ErrorURL replaces the URL of a failed request unless the engine is configured to retain it
	ErrorURL = "error"
)

// Record is the observation of a single request. Records are values and are never modified once
// they have been appended to a Sink
type Record struct {
	URL       string
	Status    int
	Length    int // Content-Length of the response, 0 when absent or failed
	Timestamp time.Time
	Latency   time.Duration
	Worker    int
}

// Failed reports whether the request failed at the transport level
func (r Record) Failed() bool {
	return r.Status == StatusFailed
}

func (r Record) MarshalZerologObject(e *zerolog.Event) {
	e.Str("url", r.URL).
		Int("status", r.Status).
		Int("length", r.Length).
		Time("timestamp", r.Timestamp).
		Dur("latency", r.Latency).
		Int("worker", r.Worker)
}

// MarshalJSONObject implements gojay.MarshalerJSONObject
func (r *Record) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("url", r.URL)
	enc.IntKey("status", r.Status)
	enc.IntKey("length", r.Length)
	enc.StringKey("timestamp", r.Timestamp.Format(time.RFC3339Nano))
	enc.Float64Key("latency_ms", float64(r.Latency)/float64(time.Millisecond))
	enc.IntKey("worker", r.Worker)
}

// IsNil implements gojay.MarshalerJSONObject
func (r *Record) IsNil() bool {
	return r == nil
}

func leftpadAppendBytes(buf []byte, in []byte, pad int) []byte {
	padding := pad - len(in)
	if padding > 0 {
		buf = append(buf, bytes.Repeat([]byte(" "), padding)...)
	}
	return append(buf, in...)
}

type Attribute int

// Foreground text colors
const (
	FgBlack Attribute = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite

	FgBrightBlack Attribute = 90
)

func getColor(sc int) Attribute {
	if 0 <= sc && sc <= 299 {
		return FgGreen
	} else if 300 <= sc && sc <= 399 {
		return FgCyan
	} else if 400 <= sc && sc <= 499 {
		return FgYellow
	} else if 500 <= sc && sc <= 599 {
		return FgRed
	}
	return FgMagenta
}

func appendColorStart(buf []byte, code Attribute) []byte {
	buf = append(buf, "\x1b["...)
	buf = append(buf, strconv.Itoa(int(code))...)
	buf = append(buf, "m"...)
	return buf
}

func appendColorEnd(buf []byte) []byte {
	return append(buf, "\x1b[0m"...)
}

func appendStatus(b []byte, sc int) []byte {
	if sc == StatusFailed {
		return append(b, "ERR"...)
	}
	return append(b, strconv.Itoa(sc)...)
}

func appendLatency(b []byte, d time.Duration) []byte {
	ms := strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 1, 64)
	b = leftpadAppendBytes(b, []byte(ms), 8)
	return append(b, "ms"...)
}

// <STATUSCODE> [length] <latency> <URL>
func (r *Record) AppendBytes(b []byte) []byte {
	b = appendStatus(b, r.Status)
	b = append(b, " ["...)
	b = leftpadAppendBytes(b, []byte(strconv.Itoa(r.Length)), 7)
	b = append(b, "] "...)
	b = appendLatency(b, r.Latency)
	b = append(b, " "...)
	b = append(b, r.URL...)
	return b
}

// AppendPrettyBytes is AppendBytes with the line coloured by status code. A zero length is dimmed
func (r *Record) AppendPrettyBytes(b []byte) []byte {
	color := getColor(r.Status)
	if r.Failed() {
		color = FgRed
	}

	b = appendColorStart(b, color)
	b = appendStatus(b, r.Status)
	b = append(b, " ["...)
	if r.Length == 0 {
		b = appendColorStart(b, FgBrightBlack)
	} else {
		b = appendColorStart(b, FgWhite)
	}
	b = leftpadAppendBytes(b, []byte(strconv.Itoa(r.Length)), 7)
	b = appendColorEnd(b)
	b = appendColorStart(b, color)
	b = append(b, "] "...)
	b = appendLatency(b, r.Latency)
	b = append(b, " "...)
	b = append(b, r.URL...)
	b = appendColorEnd(b)
	return b
}

// LogRecord writes r to stdout in the configured log format. This is safe to use as a run callback
func LogRecord(r Record) {
	switch log.GetLogFormat() {
	case log.Text:
		msg := bytebufferpool.Get()
		msg.B = append(msg.B, "\r"...)
		msg.B = r.AppendBytes(msg.B)
		msg.B = append(msg.B, "\n"...)
		os.Stdout.Write(msg.B)
		bytebufferpool.Put(msg)
	case log.Pretty:
		msg := bytebufferpool.Get()
		msg.B = append(msg.B, "\r"...)
		msg.B = r.AppendPrettyBytes(msg.B)
		msg.B = append(msg.B, "\n"...)
		os.Stdout.Write(msg.B)
		bytebufferpool.Put(msg)
	case log.JSON:
		log.Stdout.Log().Object("record", r).Msg("")
	}
}
