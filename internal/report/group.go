package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/pt3002/CN-Project/pkg/log"
)

// GroupBy selects how records are aggregated in a report
type GroupBy string

const (
	// Rate counts responses per wall clock second
	Rate GroupBy = "rate"
	// Code counts responses per status code
	Code GroupBy = "code"
)

// RateLayout is the bucket label used by the rate report
const RateLayout = "15:04:05"

type ErrUnknownGroup struct {
	Group string
}

func (e *ErrUnknownGroup) Error() string {
	return fmt.Sprintf("unknown report: %s. supported 'rate', 'code'", e.Group)
}

func ParseGroupBy(in string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(in))) {
	case Rate:
		return Rate, nil
	case Code:
		return Code, nil
	}
	return "", &ErrUnknownGroup{Group: in}
}

// Group is one row of a group-by report
type Group struct {
	Key   string
	Count int
	Bytes int64 // sum of the Content-Length of every record in the group
}

// Groups aggregates records according to by
func Groups(by GroupBy, records []loadtest.Record) ([]Group, error) {
	switch by {
	case Rate:
		return GroupByRate(records), nil
	case Code:
		return GroupByCode(records), nil
	}
	return nil, &ErrUnknownGroup{Group: string(by)}
}

// GroupByRate buckets records by the second they were observed in, ordered by time
func GroupByRate(records []loadtest.Record) []Group {
	buckets := make(map[int64]*Group)
	for _, r := range records {
		sec := r.Timestamp.Truncate(time.Second)
		k := sec.UnixNano()
		g, ok := buckets[k]
		if !ok {
			g = &Group{Key: sec.Format(RateLayout)}
			buckets[k] = g
		}
		g.Count++
		g.Bytes += int64(r.Length)
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ret := make([]Group, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, *buckets[k])
	}
	return ret
}

// GroupByCode counts records per status code in ascending order. Failed requests are grouped under
// loadtest.ErrorURL and sort first
func GroupByCode(records []loadtest.Record) []Group {
	buckets := make(map[int]*Group)
	for _, r := range records {
		g, ok := buckets[r.Status]
		if !ok {
			key := strconv.Itoa(r.Status)
			if r.Failed() {
				key = loadtest.ErrorURL
			}
			g = &Group{Key: key}
			buckets[r.Status] = g
		}
		g.Count++
		g.Bytes += int64(r.Length)
	}

	codes := make([]int, 0, len(buckets))
	for k := range buckets {
		codes = append(codes, k)
	}
	sort.Ints(codes)

	ret := make([]Group, 0, len(codes))
	for _, k := range codes {
		ret = append(ret, *buckets[k])
	}
	return ret
}

func groupHeader(by GroupBy) []string {
	if by == Code {
		return []string{"status code", "responses", "bytes"}
	}
	return []string{"time", "responses", "bytes"}
}

// RenderGroups writes groups as a table
func RenderGroups(w io.Writer, by GroupBy, groups []Group) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(groupHeader(by))
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, g := range groups {
		table.Append([]string{g.Key, humanize.Comma(int64(g.Count)), humanize.Bytes(uint64(g.Bytes))})
	}
	table.Render()
}

// PrintGroups renders groups to w in the pretty and text formats, and logs them in the json format
func PrintGroups(w io.Writer, by GroupBy, groups []Group) {
	switch log.GetLogFormat() {
	case log.JSON:
		for _, g := range groups {
			log.Info().
				Str("report", string(by)).
				Str("key", g.Key).
				Int("responses", g.Count).
				Int64("bytes", g.Bytes).
				Msg("")
		}
	default:
		fmt.Fprintf(w, "\n%s report\n", by)
		RenderGroups(w, by, groups)
	}
}
