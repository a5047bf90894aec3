package main

import (
	"bufio"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/pt3002/CN-Project/pkg/log"
	"github.com/valyala/fasthttp"
)

const (
	responseSize = 1024
	// maxSize caps the body requested through /size so a typo cannot exhaust memory
	maxSize = 10 << 20
)

var (
	requestCount count32
	body         = make([]byte, responseSize)
)

type count32 struct {
	val uint32
}

func (c *count32) increment() {
	atomic.AddUint32(&c.val, 1)
}

func (c *count32) get() uint32 {
	return atomic.LoadUint32(&c.val)
}

// withRequestID counts the request and tags the response with a unique id so individual requests can be
// correlated with the server logs
func withRequestID(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		requestCount.increment()
		ctx.Response.Header.Set("X-Request-Id", uuid.New().String())
		h(ctx)
	}
}

func Index(ctx *fasthttp.RequestCtx) {
	ctx.SetBody(body)
}

// StatusResponder responds with the status code in the path
func StatusResponder(ctx *fasthttp.RequestCtx) {
	code, err := strconv.Atoi(ctx.UserValue("code").(string))
	if err != nil || code < 100 || code > 999 {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.WriteString("invalid status code")
		return
	}
	ctx.SetStatusCode(code)
	fmt.Fprintf(ctx, "status %d\n", code)
}

// SlowResponder waits for the duration in the path, e.g. /slow/250ms
func SlowResponder(ctx *fasthttp.RequestCtx) {
	d, err := time.ParseDuration(ctx.UserValue("duration").(string))
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.WriteString("invalid duration")
		return
	}
	time.Sleep(d)
	ctx.SetBody(body)
}

// SizeResponder responds with a body of the size in the path
func SizeResponder(ctx *fasthttp.RequestCtx) {
	n, err := strconv.Atoi(ctx.UserValue("size").(string))
	if err != nil || n < 0 || n > maxSize {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.WriteString("invalid size")
		return
	}
	ctx.SetBody(make([]byte, n))
}

// ChunkedResponder streams its body so the response has no Content-Length
func ChunkedResponder(ctx *fasthttp.RequestCtx) {
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		for i := 0; i < 4; i++ {
			fmt.Fprintf(w, "chunk %d\n", i)
			w.Flush()
		}
	})
}

func RedirectResponder(ctx *fasthttp.RequestCtx) {
	fmt.Fprintf(ctx, "go to, %s!\n", ctx.UserValue("dest"))
	ctx.SetStatusCode(302)
	ctx.Response.Header.Add("location", "/"+ctx.UserValue("dest").(string))
}

func WildcardResponder(ctx *fasthttp.RequestCtx) {
	fmt.Fprintf(ctx, "get %s\n", ctx.RequestURI())
	ctx.SetStatusCode(200)
}

func newRouter() *router.Router {
	r := router.New()
	r.GET("/", withRequestID(Index))
	r.GET("/status/{code}", withRequestID(StatusResponder))
	r.GET("/slow/{duration}", withRequestID(SlowResponder))
	r.GET("/size/{size}", withRequestID(SizeResponder))
	r.GET("/chunked", withRequestID(ChunkedResponder))
	r.GET("/redir/{dest:*}", withRequestID(RedirectResponder))
	r.Handle("*", "/{req:*}", withRequestID(WildcardResponder))
	return r
}

func StatsFunc(end <-chan bool) {
	// rolling average
	lastRequest := time.Now()
	lastRequestCount := requestCount.get()
	rpsPeak := float64(0)
	for {
		select {
		case <-end:
			fmt.Println("\nTerminating.")
			return
		default:
			timeDiff := time.Since(lastRequest).Seconds()
			curRequestCount := requestCount.get()
			requestCountDiff := curRequestCount - lastRequestCount
			rps := float64(requestCountDiff) / timeDiff
			if rps > rpsPeak {
				rpsPeak = rps
			}

			fmt.Printf("Total Requests: %d. Requests since last checkin: %d. RPS: %f. Peak: %f\t\t\t\t\r", curRequestCount, requestCountDiff, rps, rpsPeak)
			lastRequest = time.Now()
			lastRequestCount = curRequestCount
			time.Sleep(1 * time.Second)
		}
	}
}

func main() {
	var portRange string
	flag.StringVar(&portRange, "p", "14000-14001", "Range of ports to start servers on")
	flag.Parse()

	flagParts := strings.Split(portRange, "-")
	if len(flagParts) != 2 {
		log.Fatal().Msg("Invalid portRange. Format should be <int>-<int>")
	}

	startPort, err := strconv.Atoi(flagParts[0])
	if err != nil {
		log.Fatal().Msgf("Unable to parse port: %s", err)
	}

	endPort, err := strconv.Atoi(flagParts[1])
	if err != nil {
		log.Fatal().Msgf("Unable to parse port: %s", err)
	}

	r := newRouter()

	var wg sync.WaitGroup
	for i := startPort; i < endPort; i++ {
		wg.Add(1)
		go func(port int) {
			Host := fmt.Sprintf(":%d", port)
			log.Fatal().Err(fasthttp.ListenAndServe(Host, r.Handler)).Msg("failed to start server")
			wg.Done()
		}(i)
	}
	statsFunc := make(chan bool, 0)

	go StatsFunc(statsFunc)
	wg.Wait()

	statsFunc <- true
	close(statsFunc)
}
