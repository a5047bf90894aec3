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

// DefaultLogFile is the file name used when file logging is requested without a name
const DefaultLogFile = "loadtestlog.log"

var (
	stderr = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Logger for stdout specifically. Records printed during a run are written here
	Stdout = zerolog.New(os.Stdout).With().Timestamp().Logger()

	globalFormat LogFormat = "pretty"

	// console is where stderr output goes before any file tee is attached
	console io.Writer = os.Stderr
	logFile *os.File

	Print  = stderr.Print
	Printf = stderr.Printf

	Fatal = stderr.Fatal
	Panic = stderr.Panic
	Error = stderr.Error
	Warn  = stderr.Warn
	Info  = stderr.Info
	Debug = stderr.Debug
	Trace = stderr.Trace
	Log   = stderr.Log

	Err       = stderr.Err
	With      = stderr.With
	WithLevel = stderr.WithLevel

	GetLevel = stderr.GetLevel
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

// rebind points the package level helpers at the current stderr logger. zerolog loggers are values, so
// every call that swaps stderr needs the method values refreshed
func rebind() {
	Print = stderr.Print
	Printf = stderr.Printf
	Fatal = stderr.Fatal
	Panic = stderr.Panic
	Error = stderr.Error
	Warn = stderr.Warn
	Info = stderr.Info
	Debug = stderr.Debug
	Trace = stderr.Trace
	Log = stderr.Log
	Err = stderr.Err
	With = stderr.With
	WithLevel = stderr.WithLevel
	GetLevel = stderr.GetLevel
}

func SetLevelString(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	stderr = stderr.Level(l)
	Stdout = Stdout.Level(l)
	rebind()
	return nil
}

var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported format. supported 'json', 'pretty', 'text")
)

func GetLogFormat() LogFormat {
	return globalFormat
}

func SetFormat(format string) error {
	switch format {
	case "json", "":
		console = os.Stderr
		globalFormat = JSON
	case "pretty":
		console = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false, TimeFormat: "\r3:04PM"}
		Stdout = Stdout.Output(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: "\r3:04PM"})
		globalFormat = Pretty
	case "text":
		console = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: "\r3:04PM"}
		Stdout = Stdout.Output(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: "\r3:04PM"})
		globalFormat = Text
	default:
		return ErrUnsupportedFormat
	}
	stderr = stderr.Output(output())
	rebind()
	return nil
}

// output returns the writer stderr logging should use. When a log file is attached the file always
// receives json lines regardless of the console format
func output() io.Writer {
	if logFile == nil {
		return console
	}
	return zerolog.MultiLevelWriter(console, logFile)
}

// SetLogFile tees all stderr logging into the named file, appending if it exists.
// An empty name uses DefaultLogFile
func SetLogFile(name string) error {
	if name == "" {
		name = DefaultLogFile
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	stderr = stderr.Output(output())
	rebind()
	return nil
}

// SetOutput replaces the console writer for stderr logging. This is mostly useful in tests
func SetOutput(w io.Writer) {
	console = w
	stderr = stderr.Output(output())
	rebind()
}

// Close releases the log file if one was attached
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	stderr = stderr.Output(output())
	rebind()
	return err
}
