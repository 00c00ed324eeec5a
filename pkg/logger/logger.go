// Package logger owns the process-wide zerolog logger.
//
// Call Init once from main; everything else uses Get or Component. Entries
// pass through a redacting writer, so a credential that ends up in a field
// named like one of RedactedFields is never written out.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RedactedFields are always masked, whatever Options.Redact adds.
var RedactedFields = []string{
	"password",
	"passwordHash",
	"captchaToken",
	"g-recaptcha-response",
	"secret",
	"session_secret",
}

// Options configures Init.
type Options struct {
	// Level is trace, debug, info, warn or error. Anything else means info.
	Level string
	// Pretty switches to coloured console output for local runs.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is stamped on every entry as "service".
	Service string
	// Redact lists extra top-level field names to mask.
	Redact []string
}

var (
	mu       sync.Mutex
	instance *zerolog.Logger
)

// Init builds the logger on first call and returns it. Later calls return the
// existing logger unchanged.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return *instance
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	out = newRedactWriter(out, append(append([]string{}, RedactedFields...), opts.Redact...))

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(out).Level(lvl).With().Timestamp().Caller()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	l := ctx.Logger()
	instance = &l
	return l
}

// Get returns the logger built by Init and panics before it.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Component returns the logger tagged with "component".
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the logger so tests can Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
