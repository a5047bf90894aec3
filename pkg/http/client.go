package http

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/valyala/fasthttp"
)

const (
	// readBufferSize bounds the size of a response header
	readBufferSize  = 8192
	writeBufferSize = 4096
)

var (
	strHTTP  = []byte("http")
	strHTTPS = []byte("https")
)

// Config provides all the options available to a request, this is used by NewClient and Get
type Config struct {
	// Timeout bounds a whole request, from writing it to reading the last body byte. 0 means
	// no timeout
	Timeout time.Duration `toml:"timeout" json:"timeout" mapstructure:"timeout"`
	// MaxRedirects corresponds to how many redirects to follow. 0 means the first response is returned
	MaxRedirects int `toml:"max_redirects" json:"max_redirects" mapstructure:"max_redirects"`
	// MaxIdleConnsPerHost bounds the keep-alive sockets parked for a single host. 0 keeps every idle socket
	MaxIdleConnsPerHost int `toml:"max_idle_conns_per_host" json:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`
	// InsecureSkipVerify disables TLS certificate verification
	InsecureSkipVerify bool `toml:"insecure" json:"insecure" mapstructure:"insecure"`
	// UserAgent is sent on every request. An empty value sends no User-Agent header
	UserAgent string `toml:"user_agent" json:"user_agent" mapstructure:"user_agent"`

	// ExtraHeaders are added to every request
	ExtraHeaders []Header

	// Dial overrides how connections are established. Tests use this to route every host to an
	// in-memory listener
	Dial fasthttp.DialFunc `json:"-" mapstructure:"-"`
}

// Client issues GET requests over keep-alive connections pooled per scheme and host.
// It is safe for concurrent use
type Client struct {
	config *Config

	mu   sync.Mutex
	idle map[string][]*clientConn
}

type clientConn struct {
	net.Conn
	br *bufio.Reader
	bw *bufio.Writer
}

// NewClient will create a client configured from config. The client can talk to any host
func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		idle:   make(map[string][]*clientConn),
	}
}

// Close closes every idle connection. Requests in flight are not affected
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, conns := range c.idle {
		for _, cc := range conns {
			cc.Close()
		}
		delete(c.idle, k)
	}
	return nil
}

// Idle returns the number of parked connections
func (c *Client) Idle() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, conns := range c.idle {
		n += len(conns)
	}
	return n
}

// Get performs a single GET against url. An error is returned for transport failures (dns, connect, tls,
// timeouts, malformed responses). Any response from the server, whatever the status, is a success.
// When ctx ends the request is abandoned and ctx.Err() is returned
func Get(ctx context.Context, c *Client, url string) (Response, error) {
	var (
		ret   Response
		freq  = fasthttp.AcquireRequest()
		fresp = fasthttp.AcquireResponse()
	)
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.SetRequestURI(url)
	freq.Header.SetMethod(fasthttp.MethodGet)
	if c.config.UserAgent != "" {
		freq.Header.SetUserAgent(c.config.UserAgent)
	}
	for _, h := range c.config.ExtraHeaders {
		freq.Header.Set(h.Key, h.Value)
	}

	start := time.Now()
	n, err := c.do(ctx, freq, fresp)
	for redirects := 0; err == nil && redirects < c.config.MaxRedirects; redirects++ {
		location := fresp.Header.Peek(fasthttp.HeaderLocation)
		if !fasthttp.StatusCodeIsRedirect(fresp.StatusCode()) || len(location) == 0 {
			break
		}
		freq.SetRequestURI(redirectURL(freq.URI(), location))
		n, err = c.do(ctx, freq, fresp)
	}
	ret.Latency = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return ret, ctx.Err()
		}
		return ret, err
	}

	ret.StatusCode = fresp.StatusCode()
	ret.ContentLength = n
	ret.BodyLength = len(fresp.Body())

	log.Trace().Str("url", url).Object("response", ret).Msg("received response")
	return ret, nil
}

// redirectURL resolves location against base
func redirectURL(base *fasthttp.URI, location []byte) string {
	u := fasthttp.AcquireURI()
	base.CopyTo(u)
	u.UpdateBytes(location)
	ret := u.String()
	fasthttp.ReleaseURI(u)
	return ret
}

// do performs one request/response exchange and returns the Content-Length the response declared
func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) (int, error) {
	uri := req.URI()
	isTLS := bytes.Equal(uri.Scheme(), strHTTPS)
	if !isTLS && !bytes.Equal(uri.Scheme(), strHTTP) {
		return 0, fmt.Errorf("unsupported scheme: %q", uri.Scheme())
	}
	if len(uri.Host()) == 0 {
		return 0, fmt.Errorf("missing host in %q", uri.FullURI())
	}
	addr := addMissingPort(string(uri.Host()), isTLS)
	key := string(uri.Scheme()) + "://" + addr

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		cc, reused, err := c.acquireConn(key, addr, isTLS)
		if err != nil {
			return 0, err
		}

		n, stale, err := c.roundTrip(ctx, cc, req, resp)
		if err != nil {
			cc.Close()
			// a parked connection the server already closed never saw the request
			if reused && stale {
				continue
			}
			return 0, err
		}

		if req.ConnectionClose() || resp.ConnectionClose() {
			cc.Close()
		} else {
			c.releaseConn(key, cc)
		}
		return n, nil
	}
}

// roundTrip writes req on cc and reads the response into resp. stale reports that the connection failed
// before any byte of the response arrived. A watchdog closes cc if ctx ends, which unblocks any pending
// read or write
func (c *Client) roundTrip(ctx context.Context, cc *clientConn, req *fasthttp.Request, resp *fasthttp.Response) (n int, stale bool, err error) {
	var deadline time.Time
	if c.config.Timeout > 0 {
		deadline = time.Now().Add(c.config.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := cc.SetDeadline(deadline); err != nil {
		return 0, true, err
	}

	stop := context.AfterFunc(ctx, func() {
		cc.Close()
	})
	defer stop()

	if err := req.Write(cc.bw); err != nil {
		return 0, true, err
	}
	if err := cc.bw.Flush(); err != nil {
		return 0, true, err
	}

	n, err = peekHeader(cc.br)
	if err != nil {
		return 0, err == io.EOF, err
	}
	if err := resp.ReadLimitBody(cc.br, 0); err != nil {
		return 0, false, err
	}
	if !stop() {
		return 0, false, ctx.Err()
	}
	return n, false, nil
}

func (c *Client) acquireConn(key, addr string, isTLS bool) (*clientConn, bool, error) {
	c.mu.Lock()
	if conns := c.idle[key]; len(conns) > 0 {
		cc := conns[len(conns)-1]
		c.idle[key] = conns[:len(conns)-1]
		c.mu.Unlock()
		return cc, true, nil
	}
	c.mu.Unlock()

	conn, err := c.dial(addr)
	if err != nil {
		return nil, false, err
	}
	if isTLS {
		conn = tls.Client(conn, c.tlsConfig(addr))
	}
	return &clientConn{
		Conn: conn,
		br:   bufio.NewReaderSize(conn, readBufferSize),
		bw:   bufio.NewWriterSize(conn, writeBufferSize),
	}, false, nil
}

func (c *Client) releaseConn(key string, cc *clientConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if max := c.config.MaxIdleConnsPerHost; max > 0 && len(c.idle[key]) >= max {
		cc.Close()
		return
	}
	c.idle[key] = append(c.idle[key], cc)
}

func (c *Client) dial(addr string) (net.Conn, error) {
	if c.config.Dial != nil {
		return c.config.Dial(addr)
	}
	timeout := fasthttp.DefaultDialTimeout
	if c.config.Timeout > 0 && c.config.Timeout < timeout {
		timeout = c.config.Timeout
	}
	return fasthttp.DialTimeout(addr, timeout)
}

func (c *Client) tlsConfig(addr string) *tls.Config {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: c.config.InsecureSkipVerify,
	}
}

func addMissingPort(host string, isTLS bool) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if isTLS {
		return net.JoinHostPort(host, "443")
	}
	return net.JoinHostPort(host, "80")
}

// peekHeader waits until a complete response header is buffered in br without consuming it, and returns
// the Content-Length it declares. Chunked and close delimited responses carry no Content-Length and
// report 0. io.EOF is returned if the connection fails before the first byte
func peekHeader(br *bufio.Reader) (int, error) {
	n := 1
	for {
		b, err := br.Peek(n)
		if len(b) == 0 {
			if x, ok := err.(interface{ Timeout() bool }); ok && x.Timeout() {
				return 0, fasthttp.ErrTimeout
			}
			return 0, io.EOF
		}

		b, _ = br.Peek(br.Buffered())
		if end := headerEnd(b); end > 0 {
			var h fasthttp.ResponseHeader
			if err := h.Read(bufio.NewReaderSize(bytes.NewReader(b[:end]), end)); err != nil {
				return 0, err
			}
			return contentLength(&h), nil
		}
		if err != nil {
			return 0, fmt.Errorf("error when reading response headers: %w", err)
		}
		n = br.Buffered() + 1
	}
}

// headerEnd returns the length of the header block at the start of b, or 0 if it is incomplete
func headerEnd(b []byte) int {
	end := 0
	if i := bytes.Index(b, []byte("\r\n\r\n")); i >= 0 {
		end = i + 4
	}
	if i := bytes.Index(b, []byte("\n\n")); i >= 0 && (end == 0 || i+2 < end) {
		end = i + 2
	}
	return end
}

// contentLength returns the Content-Length header value. fasthttp reports -1 for chunked bodies and -2
// for bodies read until close, neither of which carry the header, so those are reported as 0
func contentLength(h *fasthttp.ResponseHeader) int {
	n := h.ContentLength()
	if n < 0 {
		return 0
	}
	return n
}
