// Package clonelog writes the progress of a migration to the console.
package clonelog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ostcar/pgclone/environment"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

var envDevelopment = environment.NewVariable("PGCLONE_DEVELOPMENT", "false", "Use a short, colored log format on stderr.")

var isDev bool

// InitLog has to be called at startup to set the log format.
func InitLog(lookup environment.Environmenter) {
	devmode, _ := strconv.ParseBool(envDevelopment.Value(lookup))

	var out io.Writer = os.Stdout
	if devmode {
		out = os.Stderr
	}

	log.Logger = log.Output(consoleWriter(out, devmode, isTerminal(out)))
	isDev = devmode
}

func consoleWriter(out io.Writer, devmode bool, color bool) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !color,
		TimeFormat: "2006-01-02T15:04:05.000",
		FormatLevel: func(i any) string {
			level := strings.ToUpper(fmt.Sprintf("%-6s", i))
			if !devmode || !color {
				return level
			}
			switch i {
			case "debug":
				return fmt.Sprintf("\x1b[0m%s\x1b[0m", level)
			case "info":
				return fmt.Sprintf("\x1b[32m%s\x1b[0m", level)
			case "warn":
				return fmt.Sprintf("\x1b[33m%s\x1b[0m", level)
			case "error":
				return fmt.Sprintf("\x1b[31m%s\x1b[0m", level)
			case "fatal", "panic":
				return fmt.Sprintf("\x1b[35m%s\x1b[0m", level)
			default:
				return level
			}
		},
	}

	if devmode {
		cw.TimeFormat = "15:04:05"
	}

	return cw
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Debug writes a message at the debug level.
func Debug(format string, a ...any) {
	msg(log.Debug(), format, a...)
}

// Info writes a message at the info level.
func Info(format string, a ...any) {
	msg(log.Info(), format, a...)
}

// Warn writes a message at the warn level.
func Warn(format string, a ...any) {
	msg(log.Warn(), format, a...)
}

// Error writes a message at the error level.
func Error(format string, a ...any) {
	msg(log.Error(), format, a...)
}

// Metric writes a metric at info level.
//
// In development mode, the metric is written as message.
func Metric(name string, metric any) {
	raw, err := json.Marshal(metric)
	if err != nil {
		Warn("encoding metric %s: %v", name, err)
		return
	}

	if isDev {
		log.Info().Msgf("%s: %s", name, raw)
		return
	}
	log.Info().RawJSON(name, raw).Msg("")
}

func msg(e *zerolog.Event, format string, a ...any) {
	if isDev {
		e.Msgf(format, a...)
		return
	}
	e.Str("msg", fmt.Sprintf(format, a...)).Msg("")
}
