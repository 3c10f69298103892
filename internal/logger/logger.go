package logger

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Writer is the process-wide log sink. It always writes to stdout and, when
// configured with a file, to a size-rotated log file as well.
type Writer struct {
	io.Writer
	file *lumberjack.Logger
}

// New builds a Writer. An empty path disables file output.
func New(path string) *Writer {
	if path == "" {
		return &Writer{Writer: os.Stdout}
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	return &Writer{
		Writer: io.MultiWriter(os.Stdout, file),
		file:   file,
	}
}

// Close flushes and closes the rotating file, if any.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
