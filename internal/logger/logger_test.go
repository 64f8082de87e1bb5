package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool
	}{
		{name: "info message", level: LevelInfo, message: "test message", fields: Fields{"key": "value"}, want: true},
		{name: "debug below threshold", level: LevelDebug, message: "debug message", want: false},
		{name: "warn", level: LevelWarn, message: "careful", want: true},
		{name: "error with err", level: LevelError, message: "error occurred", err: errors.New("test error"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(LevelInfo, EncodingJSON, &buf).log(tt.level, tt.message, tt.fields, tt.err)
			assert.Equal(t, tt.want, buf.Len() > 0)
		})
	}
}

func TestLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, EncodingJSON, &buf)
	l.Error("fetch failed", Fields{"url": "https://example.com", "status": 503}, errors.New("unexpected status"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "fetch failed", entry["msg"])
	assert.Equal(t, "https://example.com", entry["url"])
	assert.Equal(t, float64(503), entry["status"])
	assert.Equal(t, "unexpected status", entry["error"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	New(LevelInfo, EncodingConsole, &buf).Info("extraction finished", Fields{"records": 3})
	line := buf.String()
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "extraction finished")
	assert.Contains(t, line, `"records": 3`)
}

func TestDefaultLogger(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(New(LevelWarn, EncodingJSON, &buf))
	Info("hidden", nil)
	Warn("shown", Fields{"n": 1})
	Debug("hidden", nil)
	Error("also shown", nil, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)

	SetDefault(Nop())
	Error("discarded", nil, errors.New("boom"))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"DEBUG": LevelDebug, " info ": LevelInfo, "Warn": LevelWarn, "error": LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("strategy.structured-data.attempts")
	m.IncrCounter("strategy.structured-data.attempts")
	m.AddCounter("records", 5)
	m.RecordTiming("extract", 10*time.Millisecond)
	m.RecordTiming("extract", 30*time.Millisecond)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.Counters["strategy.structured-data.attempts"])
	assert.Equal(t, int64(5), snap.Counters["records"])
	assert.Equal(t, TimingStats{
		Count:   2,
		Total:   40 * time.Millisecond,
		Average: 20 * time.Millisecond,
		Min:     10 * time.Millisecond,
		Max:     30 * time.Millisecond,
	}, snap.Timings["extract"])

	// snapshot is a copy
	snap.Counters["records"] = 100
	assert.Equal(t, int64(5), m.GetSnapshot().Counters["records"])

	m.Reset()
	assert.Empty(t, m.GetSnapshot().Counters)
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrCounter("hits")
			m.RecordTiming("t", time.Millisecond)
		}()
	}
	wg.Wait()
	snap := m.GetSnapshot()
	assert.Equal(t, int64(50), snap.Counters["hits"])
	assert.Equal(t, 50, snap.Timings["t"].Count)
}

func TestPackageMetrics(t *testing.T) {
	ResetMetrics()
	t.Cleanup(ResetMetrics)
	IncrCounter("a")
	AddCounter("a", 2)
	RecordTiming("b", time.Second)
	snap := GetMetricsSnapshot()
	assert.Equal(t, int64(3), snap.Counters["a"])
	assert.Equal(t, time.Second, snap.Timings["b"].Max)
}
