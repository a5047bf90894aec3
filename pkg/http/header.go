package http

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

// Header encapsulates a header key value entry
type Header struct {
	Key   string
	Value string
}

type Headers []Header

func (rr Headers) MarshalZerologArray(a *zerolog.Array) {
	for _, u := range rr {
		a.Object(u)
	}
}

func (h Header) MarshalZerologObject(e *zerolog.Event) {
	e.Str("k", h.Key).
		Str("v", h.Value)
}

func (h *Header) AppendBytes(b []byte) []byte {
	b = append(b, h.Key...)
	b = append(b, ": "...)
	b = append(b, h.Value...)
	return b
}

func (h *Header) String() string {
	w := bytebufferpool.Get()
	ret := string(h.AppendBytes(w.B))
	bytebufferpool.Put(w)
	return ret
}

// ParseHeader will parse a header in the "Key: Value" form
func ParseHeader(in string) (Header, error) {
	sp := strings.SplitN(in, ":", 2)
	if len(sp) != 2 || strings.TrimSpace(sp[0]) == "" {
		return Header{}, fmt.Errorf("invalid header format: %s", in)
	}
	return Header{Key: strings.TrimSpace(sp[0]), Value: strings.TrimSpace(sp[1])}, nil
}
