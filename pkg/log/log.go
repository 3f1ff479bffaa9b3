package log

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type LogFormat string

var (
	Pretty LogFormat = "pretty"
	JSON   LogFormat = "json"
	Text   LogFormat = "text"
)

var (
	stderr = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Logger for stdout specifically. Results are written here so they can be piped
	// separately from the diagnostics on stderr
	Stdout = zerolog.New(os.Stdout).With().Timestamp().Logger()

	globalFormat LogFormat = "json"
)

const (
	FatalLevel = zerolog.FatalLevel
	PanicLevel = zerolog.PanicLevel
	ErrorLevel = zerolog.ErrorLevel
	WarnLevel  = zerolog.WarnLevel
	InfoLevel  = zerolog.InfoLevel
	DebugLevel = zerolog.DebugLevel
	TraceLevel = zerolog.TraceLevel
)

// The level helpers resolve the logger at call time so SetFormat, SetLevelString and SetOutput
// are respected by packages that captured them during init.

func Fatal() *zerolog.Event { return stderr.Fatal() }
func Panic() *zerolog.Event { return stderr.Panic() }
func Error() *zerolog.Event { return stderr.Error() }
func Warn() *zerolog.Event  { return stderr.Warn() }
func Info() *zerolog.Event  { return stderr.Info() }
func Debug() *zerolog.Event { return stderr.Debug() }
func Trace() *zerolog.Event { return stderr.Trace() }
func Log() *zerolog.Event   { return stderr.Log() }

func Err(err error) *zerolog.Event { return stderr.Err(err) }

func With() zerolog.Context { return stderr.With() }

func GetLevel() zerolog.Level { return stderr.GetLevel() }

// Logger returns a copy of the current stderr logger
func Logger() zerolog.Logger { return stderr }

// Component returns a child logger tagged with the component name, e.g. "registry" or "api"
func Component(name string) zerolog.Logger {
	return stderr.With().Str("component", name).Logger()
}

func SetLevelString(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	stderr = stderr.Level(l)
	Stdout = Stdout.Level(l)
	return nil
}

// SetOutput redirects the diagnostic logger. Used by tests to capture or silence output
func SetOutput(w io.Writer) {
	stderr = stderr.Output(w)
}

var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported format. supported 'json', 'pretty', 'text'")
)

func GetLogFormat() LogFormat {
	return globalFormat
}

func SetFormat(format string) error {
	switch format {
	case "json", "":
		globalFormat = JSON
	case "pretty":
		stderr = stderr.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false, TimeFormat: "3:04PM"})
		globalFormat = Pretty
	case "text":
		stderr = stderr.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: "3:04PM"})
		globalFormat = Text
	default:
		return ErrUnsupportedFormat
	}
	return nil
}
