package log

import (
	"bytes"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Formatter renders entries as `time [LEVEL] [key:value] message (caller)`.
// Based on github.com/antonfisher/nested-logrus-formatter
type Formatter struct {
	// FieldsOrder lists fields printed first, the rest follow sorted by name
	FieldsOrder []string
	// TimestampFormat defaults to time.StampMilli
	TimestampFormat string
	// HideKeys prints [value] instead of [key:value]
	HideKeys bool
	// NoColors disables ANSI colors
	NoColors bool
	// NoFieldsColors colors only the level
	NoFieldsColors bool
	// NoFieldsSpace removes spaces between fields
	NoFieldsSpace bool
	// ShowFullLevel prints [WARNING] instead of [WARN]
	ShowFullLevel bool
	// NoUppercaseLevel keeps the level lower-cased
	NoUppercaseLevel bool
	// TrimMessages trims whitespaces around messages
	TrimMessages bool
	// CallerFirst prints caller info before the level
	CallerFirst bool
	// CustomCallerFormatter replaces the default caller rendering
	CustomCallerFormatter func(*runtime.Frame) string
}

const colorReset = "\x1b[0m"

// Format an log entry
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := &bytes.Buffer{}

	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = time.StampMilli
	}
	b.WriteString(entry.Time.Format(tsFormat))

	if f.CallerFirst {
		f.writeCaller(b, entry)
	}
	if !f.NoColors {
		fmt.Fprintf(b, "\x1b[%dm", levelColor(entry.Level))
	}
	b.WriteString(" [" + f.levelText(entry.Level) + "]")
	if !f.NoFieldsSpace {
		b.WriteByte(' ')
	}
	if !f.NoColors && f.NoFieldsColors {
		b.WriteString(colorReset)
	}

	for _, field := range f.fieldNames(entry.Data) {
		if f.HideKeys {
			fmt.Fprintf(b, "[%v]", entry.Data[field])
		} else {
			fmt.Fprintf(b, "[%s:%v]", field, entry.Data[field])
		}
		if !f.NoFieldsSpace {
			b.WriteByte(' ')
		}
	}
	if f.NoFieldsSpace {
		b.WriteByte(' ')
	}
	if !f.NoColors && !f.NoFieldsColors {
		b.WriteString(colorReset)
	}

	msg := entry.Message
	if f.TrimMessages {
		msg = strings.TrimSpace(msg)
	}
	b.WriteString(msg)

	if !f.CallerFirst {
		f.writeCaller(b, entry)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *Formatter) levelText(level logrus.Level) string {
	s := level.String()
	if !f.NoUppercaseLevel {
		s = strings.ToUpper(s)
	}
	if f.ShowFullLevel || len(s) < 4 {
		return s
	}
	return s[:4]
}

// fieldNames returns FieldsOrder entries present in data followed by the rest sorted
func (f *Formatter) fieldNames(data logrus.Fields) []string {
	names := make([]string, 0, len(data))
	for _, field := range f.FieldsOrder {
		if _, ok := data[field]; ok {
			names = append(names, field)
		}
	}
	rest := make([]string, 0, len(data)-len(names))
	for field := range data {
		if !slices.Contains(names, field) {
			rest = append(rest, field)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

func trimFilename(s string) string {
	const sub = "pg_timetable_web/internal/"
	if _, after, found := strings.Cut(s, sub); found {
		return after
	}
	return s
}

func (f *Formatter) writeCaller(b *bytes.Buffer, entry *logrus.Entry) {
	if !entry.HasCaller() {
		return
	}
	if f.CustomCallerFormatter != nil {
		b.WriteString(f.CustomCallerFormatter(entry.Caller))
		return
	}
	if strings.Contains(entry.Caller.Function, "PgxLogger") {
		return //skip internal logger function
	}
	fmt.Fprintf(b, " (%s:%d %s)",
		trimFilename(entry.Caller.File),
		entry.Caller.Line,
		trimFilename(entry.Caller.Function))
}

func levelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 36
	case logrus.WarnLevel:
		return 35
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return 31
	default:
		return 32
	}
}
