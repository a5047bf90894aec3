package run

import (
	"bytes"
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pt3002/CN-Project/internal/store"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(hits *int64) *httptest.Server {
	return httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt64(hits, 1)
		w.Header().Set("Content-Length", "5")
		w.Write([]byte("hello"))
	}))
}

func captureStdout(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	old := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = old })
	return &buf
}

func TestLoadTest(t *testing.T) {
	var hits int64
	srv := testServer(&hits)
	defer srv.Close()
	out := captureStdout(t)

	dir := t.TempDir()
	csvFile := filepath.Join(dir, "responses.csv")
	dbFile := filepath.Join(dir, "history.db")

	err := LoadTest(context.Background(), srv.URL,
		Calls(12),
		Concurrent(3),
		Output(csvFile, ""),
		Reports([]string{"code", "rate"}),
		HistoryDB(dbFile),
	)
	require.Nil(t, err)
	assert.Equal(t, int64(12), atomic.LoadInt64(&hits))

	b, err := os.ReadFile(csvFile)
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Len(t, lines, 13)
	assert.True(t, strings.HasPrefix(lines[1], srv.URL+",200,5,"), lines[1])

	assert.Contains(t, out.String(), "code report")
	assert.Contains(t, out.String(), "rate report")
	assert.Contains(t, out.String(), "CALLS/SEC")

	m, err := store.NewManager(dbFile)
	require.Nil(t, err)
	defer m.Close()
	runs, err := m.ListRuns(context.Background(), 0)
	require.Nil(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 12, runs[0].Total)

	captureStdout(t)
	require.Nil(t, History(context.Background(), dbFile, 10))
}

func TestLoadTestConfirm(t *testing.T) {
	var hits int64
	srv := testServer(&hits)
	defer srv.Close()
	captureStdout(t)

	asked := 0
	old := Confirm
	Confirm = func(label string) bool {
		asked++
		return false
	}
	defer func() { Confirm = old }()

	err := LoadTest(context.Background(), srv.URL, Calls(5), Concurrent(1), ConfirmAbove(4))
	assert.True(t, errors.Is(err, ErrDeclined))
	assert.Equal(t, 1, asked)
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))

	err = LoadTest(context.Background(), srv.URL, Calls(5), Concurrent(1), ConfirmAbove(4), AssumeYes(true))
	assert.Nil(t, err)
	assert.Equal(t, 1, asked)
	assert.Equal(t, int64(5), atomic.LoadInt64(&hits))
}

func TestLoadTestInterrupted(t *testing.T) {
	var hits int64
	srv := testServer(&hits)
	defer srv.Close()
	captureStdout(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := LoadTest(ctx, srv.URL, Calls(50), Concurrent(2), ProgressBarEnabled(true))
	assert.True(t, errors.Is(err, loadtest.ErrInterrupted), "%v", err)
}

func TestLoadTestBadInput(t *testing.T) {
	assert.NotNil(t, LoadTest(context.Background(), "ftp://nope"))
	assert.True(t, errors.Is(LoadTest(context.Background(), ","), loadtest.ErrNoURLs))
	assert.NotNil(t, LoadTest(context.Background(), "ok.test", Calls(0)))
}

func TestPrintSettingsWritesToStdout(t *testing.T) {
	out := captureStdout(t)
	s := NewDefaultRunOptions()
	s.Templates = true

	printSettings(s, []string{"http://ok.test/{{n}}"})

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "\n+"), "%q", got)
	assert.True(t, strings.HasSuffix(got, "+\n\n"), "%q", got)
	assert.Contains(t, got, "http://ok.test/{{n}}")
	assert.Contains(t, got, "template")
}
