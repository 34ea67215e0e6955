package inputnode

import (
	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
	"log/slog"
	"os"
)

const (
	maxDatagram     = 1024 // control and data messages are a few hundred bytes at most
	targetAckRepeat = 10   // retarget acks are repeated instead of retransmitted
)

// Defaults for the timing knobs, in milliseconds.
const (
	DefaultInterval            uint64 = 1000
	DefaultInboundPollInterval uint64 = 10
)

var logger = slog.New(newLogHandler(slog.LevelInfo))

func init() {
	color.NoColor = false
	slog.SetDefault(logger)
}

func newLogHandler(level slog.Level) slog.Handler {
	return slogcolor.NewHandler(os.Stderr, &slogcolor.Options{
		Level:         level,
		TimeFormat:    "15:04:05.000",
		SrcFileMode:   slogcolor.ShortFile,
		SrcFileLength: 16,
		MsgPrefix:     color.HiWhiteString("|"),
		MsgColor:      color.New(color.FgHiWhite),
		MsgLength:     24,
	})
}

// InitLogger reinstalls the process logger, raising the level to debug when
// verbose is set.
func InitLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(newLogHandler(level))
	slog.SetDefault(logger)
}
