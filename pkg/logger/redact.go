package logger

import (
	"bytes"
	"encoding/json"
	"io"
)

const redacted = "[REDACTED]"

// redactWriter masks top-level fields of each JSON entry before handing it on.
// Entries that mention none of the keys are passed through untouched.
type redactWriter struct {
	next    io.Writer
	keys    map[string]struct{}
	needles [][]byte
}

func newRedactWriter(next io.Writer, keys []string) *redactWriter {
	w := &redactWriter{next: next, keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if _, dup := w.keys[k]; dup {
			continue
		}
		w.keys[k] = struct{}{}
		w.needles = append(w.needles, []byte(`"`+k+`":`))
	}
	return w
}

func (w *redactWriter) Write(p []byte) (int, error) {
	if !w.mentionsKey(p) {
		return w.next.Write(p)
	}

	var entry map[string]json.RawMessage
	if err := json.Unmarshal(p, &entry); err != nil {
		return w.next.Write(p)
	}
	mask, _ := json.Marshal(redacted)
	for k := range entry {
		if _, ok := w.keys[k]; ok {
			entry[k] = mask
		}
	}
	out, err := json.Marshal(entry)
	if err != nil {
		return w.next.Write(p)
	}
	if _, err := w.next.Write(append(out, '\n')); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *redactWriter) mentionsKey(p []byte) bool {
	for _, n := range w.needles {
		if bytes.Contains(p, n) {
			return true
		}
	}
	return false
}
