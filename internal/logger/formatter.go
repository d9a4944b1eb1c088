package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// FormatWriter converts zerolog JSON lines into fixed-column text so the
// setup log can be read by an operator doing manual cleanup.
//
//	2026-10-17 09:12:44.031 [INF] [teardown    ] Step completed step=stop
//	2026-10-17 09:12:44.107 [WRN] [teardown    ] Step failed step=disable err="systemctl disable ..."
type FormatWriter struct {
	w io.Writer
}

// NewFormatWriter wraps w.
func NewFormatWriter(w io.Writer) *FormatWriter {
	return &FormatWriter{w: w}
}

const (
	componentWidth = 12
	timestampWidth = 23
	timestampFmt   = "2006-01-02 15:04:05.000"
)

var levelAbbrev = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

func (f *FormatWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return f.w.Write(p)
	}

	ts := formatTimestamp(popString(fields, "time"))
	lvl, ok := levelAbbrev[popString(fields, "level")]
	if !ok {
		lvl = "???"
	}
	comp := popString(fields, "component")
	if len(comp) > componentWidth {
		comp = comp[:componentWidth]
	}
	msg := popString(fields, "message")
	delete(fields, "caller")

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%-*s] %s", ts, lvl, componentWidth, comp, msg)
	if extra := formatExtra(fields); extra != "" {
		b.WriteByte(' ')
		b.WriteString(extra)
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(f.w, b.String()); err != nil {
		return 0, err
	}
	// zerolog treats a short count as a failed write.
	return len(p), nil
}

func popString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	delete(fields, key)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// formatTimestamp renders an RFC3339 timestamp as wall-clock time in its
// own offset. Unparseable or empty input yields a blank column.
func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return strings.Repeat(" ", timestampWidth)
	}
	return t.Format(timestampFmt)
}

// formatExtra builds "key=value" pairs sorted by key.
func formatExtra(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := fmt.Sprint(fields[k])
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, k+"="+s)
	}
	return strings.Join(parts, " ")
}
