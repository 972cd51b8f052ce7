package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// serviceName tags every log line so aggregated marketplace logs can be
// filtered per service.
const serviceName = "rentledger-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line-oriented logger. Output is one JSON
// object per line on stdout.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits a structured JSON log line. Callers provide the
// fields; the service name is stamped on every entry.
func LogRequest(entry map[string]any) {
	if _, ok := entry["service"]; !ok {
		entry["service"] = serviceName
	}
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Printf(`{"service":%q,"level":"error","msg":"log marshal failed"}`, serviceName)
		return
	}
	Logger().Println(string(data))
}

// LogComponent logs a one-off service event (startup, archiver errors)
// with the shared conventions: ts, level, msg, component.
func LogComponent(level, component, msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"msg":       msg,
		"component": component,
	}
	for k, v := range fields {
		entry[k] = v
	}
	LogRequest(entry)
}
