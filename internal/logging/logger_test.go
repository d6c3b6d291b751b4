package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json stdout", mutate: func(c *Config) { c.Format = "json"; c.Output = OutputStdout }},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: "format"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "file" }, wantErr: "output"},
		{name: "negative skip", mutate: func(c *Config) { c.Caller = CallerConfig{Enabled: true, Skip: -1} }, wantErr: "caller skip"},
		{name: "empty field value", mutate: func(c *Config) { c.Fields = map[string]string{"env": ""} }, wantErr: "empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_JSONOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Level = zapcore.InfoLevel

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	ctx := WithSessionID(context.Background(), "sess_abc")
	logger.Info(ctx, "session solved", zap.Int("solutions", 7))
	logger.Debug(ctx, "dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "session solved", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sess_abc", entry["session.id"])
	assert.Equal(t, "problemsolver", entry["service"])
	assert.EqualValues(t, 7, entry["solutions"])
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "yaml"
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestLogger_TraceLevel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Level = TraceLevel

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Trace(context.Background(), "stage entered")
	assert.Contains(t, buf.String(), `"level":"trace"`)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "trace", want: TraceLevel},
		{in: "debug", want: zapcore.DebugLevel},
		{in: "warn", want: zapcore.WarnLevel},
		{in: "loud", want: zapcore.InfoLevel, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = WithSessionID(ctx, "sess_1")
	ctx = WithProblemID(ctx, "prob_0123456789abcdef")
	assert.Equal(t, "sess_1", SessionIDFromContext(ctx))
	assert.Equal(t, "prob_0123456789abcdef", ProblemIDFromContext(ctx))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()

	tl := NewTestLogger()
	tl.Info(ctx, "correlated")
	tl.AssertTraceCorrelation(t, "correlated")
	tl.AssertField(t, "correlated", "session.id", "sess_1")
	tl.AssertField(t, "correlated", "problem.id", "prob_0123456789abcdef")
}

func TestWithSessionID_RejectsInvalid(t *testing.T) {
	for _, id := range []string{"", "has space", "semi;colon", strings.Repeat("a", maxIDLen+1)} {
		assert.Panics(t, func() { WithSessionID(context.Background(), id) }, id)
	}
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Warn(ctx, "from context")
	tl.AssertLogged(t, zapcore.WarnLevel, "from context")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "from context")

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestLogger_Children(t *testing.T) {
	tl := NewTestLogger()
	child := tl.Named("solver").With(zap.String("component", "matcher"))
	child.Info(context.Background(), "child entry")

	entries := tl.FilterMessage("child entry").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "solver", entries[0].LoggerName)
	assert.Equal(t, "matcher", entries[0].ContextMap()["component"])
	assert.True(t, child.Enabled(zapcore.DebugLevel))
}
