package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log       *zap.SugaredLogger
	ZapLogger *zap.Logger // Raw logger behind Log, needed for Sync
)

const logFileName = "modpack-editor.log"

// InitLogger sets up Log to append to modpack-editor.log. The terminal
// belongs to the TUI and the HTTP access log, so nothing goes to stderr.
func InitLogger(debug bool) {
	// Configure the encoder
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "T", // Keep keys brief
		LevelKey:         "L",
		NameKey:          "N",
		CallerKey:        "",              // No caller column
		FunctionKey:      zapcore.OmitKey, // No function column
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,                        // INFO, WARN, etc.
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"), // Simpler time format
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: "  ", // Separator between elements in console output
	}

	// Configure the core for file logging
	logFile, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("can't open log file: %v", err)
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		level,
	)

	// Build the logger without caller or stacktrace annotations
	ZapLogger = zap.New(core)
	Log = ZapLogger.Sugar()
	Log.Infow("Logger initialized", zap.String("file", logFileName), zap.Stringer("level", level))
}

// Named returns a child of Log for a component, or a no-op logger when
// InitLogger has not run.
func Named(name string) *zap.SugaredLogger {
	if Log == nil {
		return zap.NewNop().Sugar()
	}
	return Log.Named(name)
}

func Sync() {
	if ZapLogger != nil {
		_ = ZapLogger.Sync() // flushes buffer, if any
	}
}
