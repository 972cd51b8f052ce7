package obs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := Logger()
	orig := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(orig) })
	return &buf
}

func TestLogRequestStampsServiceName(t *testing.T) {
	buf := captureLog(t)

	LogRequest(map[string]any{"msg": "request_complete", "status": 200})

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if entry["service"] != "rentledger-api" {
		t.Fatalf("expected service stamp, got %v", entry["service"])
	}
	if entry["msg"] != "request_complete" {
		t.Fatalf("caller fields lost: %+v", entry)
	}
}

func TestLogComponentCarriesConventions(t *testing.T) {
	buf := captureLog(t)

	LogComponent("error", "archiver", "record event failed", map[string]any{
		"event": "rent_paid",
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "component", "event", "service"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected key %q in log entry", key)
		}
	}
	if entry["component"] != "archiver" {
		t.Fatalf("unexpected component: %v", entry["component"])
	}
}
