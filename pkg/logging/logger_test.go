package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_New_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantTrace bool
	}{
		{
			name: "1. defaults to info",
			opts: Options{},
		},
		{
			name:      "2. debug logs",
			opts:      Options{ShowDebugLogs: true},
			wantDebug: true,
		},
		{
			name:      "3. trace logs",
			opts:      Options{ShowTraceLogs: true},
			wantDebug: true,
			wantTrace: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(bytes.Buffer)
			tt.opts.Writer = b
			logger := New(tt.opts)

			ctx := context.TODO()
			assert.True(t, logger.Enabled(ctx, 0))
			assert.Equal(t, tt.wantDebug, logger.Enabled(ctx, -4))
			assert.Equal(t, tt.wantTrace, logger.Enabled(ctx, TraceLevel))
		})
	}
}

func Test_New_WritesToWriter(t *testing.T) {
	b := new(bytes.Buffer)
	logger := New(Options{Writer: b})

	logger.Info("reference checked", "url", "http://example.com")

	assert.Contains(t, b.String(), "reference checked")
	assert.Contains(t, b.String(), "http://example.com")
}

func Test_New_TraceRecords(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{name: "1. hidden at info", opts: Options{}},
		{name: "2. hidden at debug", opts: Options{ShowDebugLogs: true}},
		{name: "3. shown at trace", opts: Options{ShowTraceLogs: true}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(bytes.Buffer)
			tt.opts.Writer = b
			logger := New(tt.opts).With("component", "probe")

			logger.Log(context.TODO(), TraceLevel, "following redirect", "hop", 1)
			logger.Debug("checked")

			assert.Equal(t, tt.want, strings.Contains(b.String(), "following redirect"), b.String())
			assert.Equal(t, tt.opts.ShowDebugLogs || tt.opts.ShowTraceLogs, strings.Contains(b.String(), "checked"), b.String())
			assert.NotContains(t, b.String(), "INFO")
		})
	}
}
