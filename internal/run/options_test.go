package run

import (
	"testing"
	"time"

	"github.com/pt3002/CN-Project/internal/report"
	"github.com/pt3002/CN-Project/pkg/http"
	"github.com/pt3002/CN-Project/pkg/loadtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, opts ...RunOption) (*RunOptions, error) {
	s := NewDefaultRunOptions()
	for _, o := range opts {
		if err := o(s); err != nil {
			return s, err
		}
	}
	return s, nil
}

func TestRunOptionsDefaults(t *testing.T) {
	s := NewDefaultRunOptions()
	assert.Equal(t, 100, s.Calls)
	assert.Equal(t, 25, s.Concurrent)
	assert.Equal(t, report.CSV, s.OutputFormat)
	assert.Nil(t, s.Validate())
}

func TestRunOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []RunOption
		wantErr bool
	}{
		{"defaults", nil, false},
		{"zero calls", []RunOption{Calls(0)}, true},
		{"zero concurrent", []RunOption{Concurrent(0)}, true},
		{"negative timeout", []RunOption{Timeout(-time.Second)}, true},
		{"negative redirects", []RunOption{MaxRedirects(-1)}, true},
		{"multi progress", []RunOption{ProgressStyle(" Multi ")}, false},
		{"unknown progress", []RunOption{ProgressStyle("fancy")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := apply(t, tt.opts...)
			require.Nil(t, err)
			assert.Equal(t, tt.wantErr, s.Validate() != nil)
		})
	}
}

func TestRunOptionsParsing(t *testing.T) {
	s, err := apply(t,
		AddHeaders([]string{"x-forwarded-for: 127.0.0.1", "Authorization: Bearer a:b"}),
		Output("out.json", ""),
		Reports([]string{"rate", "", "code"}),
	)
	require.Nil(t, err)
	assert.Equal(t, []http.Header{{Key: "x-forwarded-for", Value: "127.0.0.1"}, {Key: "Authorization", Value: "Bearer a:b"}}, s.Headers)
	assert.Equal(t, report.JSON, s.OutputFormat)
	assert.Equal(t, []report.GroupBy{report.Rate, report.Code}, s.Reports)

	s, err = apply(t, Output("out.txt", "xml"))
	require.Nil(t, err)
	assert.Equal(t, report.XML, s.OutputFormat)

	_, err = apply(t, AddHeaders([]string{"no-colon"}))
	assert.NotNil(t, err)
	_, err = apply(t, Output("out", "yaml"))
	assert.NotNil(t, err)
	_, err = apply(t, Reports([]string{"latency"}))
	assert.NotNil(t, err)
}

func TestLoadtestOptions(t *testing.T) {
	s, err := apply(t,
		Calls(7),
		Concurrent(3),
		Timeout(2*time.Second),
		MaxRedirects(2),
		UserAgent("ua"),
		Insecure(true),
		RetainFailedURL(true),
		Templates(true),
		AddHeaders([]string{"a: b"}),
	)
	require.Nil(t, err)

	c := loadtest.NewDefaultConfig()
	for _, o := range s.LoadtestOptions() {
		o(c)
	}
	assert.Equal(t, 7, c.Calls)
	assert.Equal(t, 3, c.Concurrent)
	assert.Equal(t, 2*time.Second, c.HTTP.Timeout)
	assert.Equal(t, 2, c.HTTP.MaxRedirects)
	assert.Equal(t, "ua", c.HTTP.UserAgent)
	assert.True(t, c.HTTP.InsecureSkipVerify)
	assert.True(t, c.RetainFailedURL)
	assert.True(t, c.URLTemplates)
	assert.Equal(t, []http.Header{{Key: "a", Value: "b"}}, c.HTTP.ExtraHeaders)
}
