/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Log formatters for showmap. CustomFormatter prints compact
"LEVEL message key=value" lines; ShowmapFormatter adds a short tag naming the
stage of the run the message belongs to.
*/

package logging

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const colorReset = "\033[0m"

var levelColors = map[logrus.Level]int{
	logrus.DebugLevel: 37,
	logrus.InfoLevel:  32,
	logrus.WarnLevel:  33,
	logrus.ErrorLevel: 31,
	logrus.FatalLevel: 35,
	logrus.PanicLevel: 35,
}

// CustomFormatter prints one line per entry with sorted fields
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if f.Timestamp {
		f.paint(&b, 36, entry.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}

	color, ok := levelColors[entry.Level]
	if !ok {
		color = 37
	}
	f.paint(&b, color, strings.ToUpper(entry.Level.String()))
	b.WriteByte(' ')

	if f.Caller && entry.HasCaller() {
		f.paint(&b, 33, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line))
		b.WriteByte(' ')
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteByte(' ')
		f.paint(&b, 34, key)
		b.WriteByte('=')
		f.paint(&b, 32, formatValue(entry.Data[key]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *CustomFormatter) paint(b *bytes.Buffer, color int, text string) {
	if !f.Colors {
		b.WriteString(text)
		return
	}
	fmt.Fprintf(b, "\033[%dm%s%s", color, text, colorReset)
}

// formatValue renders the field types showmap logs. Raw protocol frames
// (uint32) print as hex words, errors and strings with spaces are quoted.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case error:
		return strconv.Quote(v.Error())
	case uint32:
		return fmt.Sprintf("0x%08x", v)
	case time.Duration:
		return v.Round(time.Microsecond).String()
	case string:
		if v == "" || strings.ContainsAny(v, " =\"") {
			return strconv.Quote(v)
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ShowmapFormatter tags entries with the stage of the run they describe
type ShowmapFormatter struct {
	CustomFormatter
}

// Format prefixes the entry with its stage tag, if any
func (f *ShowmapFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	line, err := f.CustomFormatter.Format(entry)
	if err != nil {
		return nil, err
	}
	prefix := stagePrefix(entry.Message)
	if prefix == "" {
		return line, nil
	}
	if f.Colors {
		return append([]byte(fmt.Sprintf("\033[35m[%s]%s ", prefix, colorReset)), line...), nil
	}
	return append([]byte("["+prefix+"] "), line...), nil
}

func stagePrefix(message string) string {
	switch {
	case strings.HasPrefix(message, "Shared memory"):
		return "SHM"
	case strings.HasPrefix(message, "Fork server"), strings.HasPrefix(message, "Target"):
		return "FORKSRV"
	case strings.HasPrefix(message, "Handshake"):
		return "HANDSHAKE"
	case strings.HasPrefix(message, "Coverage"):
		return "COVERAGE"
	default:
		return ""
	}
}
