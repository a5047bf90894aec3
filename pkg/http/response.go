package http

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Response is the observation of a single completed request
type Response struct {
	StatusCode int
	// ContentLength is the value of the Content-Length header, 0 when the header is absent
	ContentLength int
	// BodyLength is the number of body bytes actually read off the wire
	BodyLength int
	Latency    time.Duration
}

func (r Response) MarshalZerologObject(e *zerolog.Event) {
	e.Int("sc", r.StatusCode).
		Int("len", r.ContentLength).
		Int("body", r.BodyLength).
		Dur("latency", r.Latency)
}

func (r Response) String() string {
	return fmt.Sprintf("%d (%d) %s", r.StatusCode, r.ContentLength, r.Latency)
}
