// Package logger configures the process-wide logrus instance.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Formatter renders entries as `[TIME] [LEVL] MSG key=value ...` with
// fields sorted for stable output.
type Formatter struct{}

// Format implements logrus.Formatter
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s",
		entry.Time.Format("2006-01-02 15:04:05"), level, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// New creates a configured logger. Unknown level strings fall back to
// info. When filePath is non-empty, output goes to stdout and the file.
func New(levelStr, filePath string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&Formatter{})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating log directory: %w", err)
			}
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, file)
	}
	log.SetOutput(io.MultiWriter(writers...))

	return log, nil
}
