package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func withCapturedLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := enabled
	var buf bytes.Buffer
	SetEnabled(true)
	SetOutput(&buf)
	t.Cleanup(func() { enabled = prev })
	return &buf
}

func TestLogDisabledWritesNothing(t *testing.T) {
	buf := withCapturedLog(t)
	SetEnabled(false)
	Log("hidden %d", 1)
	LogTiming("hidden", time.Second)
	Dump("hidden", map[string]int{"a": 1})
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogAndDump(t *testing.T) {
	buf := withCapturedLog(t)
	Log("loaded %d rows", 42)
	LogIf(false, "skipped")
	Dump("params", struct{ Year int }{Year: 2014})
	done := LogEnterExit("derive")
	done()

	out := buf.String()
	for _, want := range []string{"[MHV_DEBUG]", "loaded 42 rows", "params:", "Year: (int) 2014", "-> derive", "<- derive"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Error("LogIf(false) should not log")
	}
}
