package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Moduler string
	Level   string
	Pretty  bool
	// 額外輸出，例如 KafkaWriter
	Writers []io.Writer
}

// New 預設輸出到 stdout
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if len(opts.Writers) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{out}, opts.Writers...)...)
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Moduler != "" {
		ctx = ctx.Str("moduler", opts.Moduler)
	}
	return ctx.Logger()
}
