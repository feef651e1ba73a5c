package clonelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T, devmode bool) *bytes.Buffer {
	t.Helper()

	buf := new(bytes.Buffer)
	oldLogger := log.Logger
	oldDev := isDev
	t.Cleanup(func() {
		log.Logger = oldLogger
		isDev = oldDev
	})

	log.Logger = zerolog.New(consoleWriter(buf, devmode, false))
	isDev = devmode
	return buf
}

func TestInfo(t *testing.T) {
	buf := captureLog(t, false)

	Info("Copying %s", "users")

	got := buf.String()
	if !strings.Contains(got, "INFO") {
		t.Errorf("log line %q has no level", got)
	}
	if !strings.Contains(got, "Copying users") {
		t.Errorf("log line %q does not contain message", got)
	}
}

func TestMetric(t *testing.T) {
	buf := captureLog(t, false)

	Metric("table", map[string]any{"table": "users", "rows": 3})

	got := buf.String()
	if !strings.Contains(got, `"rows":3`) || !strings.Contains(got, `"table":"users"`) {
		t.Errorf("metric line %q does not contain the metric", got)
	}
}

func TestMetricDevelopment(t *testing.T) {
	buf := captureLog(t, true)

	Metric("table", map[string]any{"rows": 5})

	if got := buf.String(); !strings.Contains(got, `table: {"rows":5}`) {
		t.Errorf("metric line %q, expected message with metric", got)
	}
}

func TestFormatLevelWithoutColor(t *testing.T) {
	cw := consoleWriter(new(bytes.Buffer), true, false)

	if got := cw.FormatLevel("info"); got != "INFO  " {
		t.Errorf("FormatLevel(info) == %q, expected %q", got, "INFO  ")
	}
}
