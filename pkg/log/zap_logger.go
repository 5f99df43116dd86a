package log

import (
	"os"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*ZapLogger)(nil)

// ZapLogger is the zap-backed Logger implementation.
type ZapLogger struct {
	sl   *zap.SugaredLogger
	name string
}

// NewZapLogger builds a Logger writing to the given sink. A nil sink writes
// to stderr. The format defaults to json; "logfmt" selects the logfmt
// encoder, "console" the human-readable one.
func NewZapLogger(cfg Config, sink zapcore.WriteSyncer) *ZapLogger {
	if sink == nil {
		sink = zapcore.Lock(os.Stderr)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.EpochMillisTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "logfmt":
		enc = zaplogfmt.NewEncoder(encCfg)
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, sink, zapLevel(cfg.Level))
	lg := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &ZapLogger{sl: lg.Sugar()}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.sl.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.sl.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.sl.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.sl.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...any) {
	l.sl.Fatalw(msg, keysAndValues...)
}

func (l *ZapLogger) WithName(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &ZapLogger{
		sl:   l.sl.Named(name),
		name: full,
	}
}

func (l *ZapLogger) WithKV(keysAndValues ...any) Logger {
	return &ZapLogger{
		sl:   l.sl.With(keysAndValues...),
		name: l.name,
	}
}

func (l *ZapLogger) Name() string {
	return l.name
}
