package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"graphharvest/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf)

	child := base.WithField("origin_id", "42")
	child.Info("child")
	assert.Contains(t, buf.String(), `"origin_id":"42"`)

	buf.Reset()
	base.Info("parent")
	assert.NotContains(t, buf.String(), "origin_id")
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithFields(map[string]interface{}{"operation": "posts"}).
		InfoWithFields("collection finished", map[string]interface{}{
			"rows":  12,
			"wait":  15 * time.Minute,
			"codes": []int{4},
		})

	out := buf.String()
	assert.Contains(t, out, "collection finished")
	assert.Contains(t, out, `"operation":"posts"`)
	assert.Contains(t, out, `"rows":12`)
	assert.Contains(t, out, `"codes":[4]`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("boom")).Error("failed")
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogThrottle(tl, "posts", 1, 8, 15*time.Minute)
	LogRequest(tl, "GET", "/v3.1/42/posts", 500, 20*time.Millisecond)
	LogCollectProgress(tl, "42", 2, 50)

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "posts", warns[0].Fields["operation"])
	assert.Equal(t, 8, warns[0].Fields["max_tries"])

	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("Collection progress"))
}

func TestTestLoggerChildrenShareCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("origin_id", "7").WithError(errors.New("bad page"))
	child.Warn("stopped")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "7", msgs[0].Fields["origin_id"])
	assert.Equal(t, "bad page", msgs[0].Error)
	assert.True(t, tl.HasMessageContaining("stop"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "disabled"}))
	assert.NotNil(t, GetLogger())

	Info("info message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("x")).Error("with error")
}
