package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option zap 构造选项
type Option = zap.Option

func AddCaller() Option              { return zap.AddCaller() }
func AddCallerSkip(skip int) Option  { return zap.AddCallerSkip(skip) }
func AddStacktrace(lvl Level) Option { return zap.AddStacktrace(toZapLevel(lvl)) }

// ZapLogger 基于 zap 的日志实现，格式化输出交给 SugaredLogger
type ZapLogger struct {
	l     *zap.Logger
	sugar *zap.SugaredLogger
	al    *zap.AtomicLevel
}

func New(out io.Writer, level Level, opts ...Option) *ZapLogger {
	if out == nil {
		out = os.Stderr
	}
	al := zap.NewAtomicLevelAt(toZapLevel(level))
	core := zapcore.NewCore(GetEncoder(), zapcore.AddSync(out), al)
	return wrap(zap.New(core, opts...), &al)
}

// Nop 丢弃所有输出的日志器
func Nop() *ZapLogger {
	return wrap(zap.NewNop(), nil)
}

func wrap(l *zap.Logger, al *zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{l: l, sugar: l.Sugar(), al: al}
}

// With 返回附带固定字段的子日志器，与父日志器共享级别
func (l *ZapLogger) With(fields ...Field) *ZapLogger {
	return wrap(l.l.With(fields...), l.al)
}

const timeLayout = "2006-01-02 15:04:05"

// GetEncoder 控制台格式，级别、时间与调用位置用方括号包裹
func GetEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller_line",
		FunctionKey:   zapcore.OmitKey,
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel: func(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			bracket(enc, lvl.CapitalString())
		},
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			bracket(enc, t.Format(timeLayout))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller: func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			bracket(enc, c.TrimmedPath())
		},
	})
}

func bracket(enc zapcore.PrimitiveArrayEncoder, s string) {
	enc.AppendString("[" + s + "]")
}

// toZapLevel 跳过 zap 的 DPanic 级别
func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// SetLevel 对 Nop 无效
func (l *ZapLogger) SetLevel(level Level) {
	if l.al != nil {
		l.al.SetLevel(toZapLevel(level))
	}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *ZapLogger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *ZapLogger) Debugf(format string, v ...any) { l.sugar.Debugf(format, v...) }
func (l *ZapLogger) Infof(format string, v ...any)  { l.sugar.Infof(format, v...) }
func (l *ZapLogger) Warnf(format string, v ...any)  { l.sugar.Warnf(format, v...) }
func (l *ZapLogger) Errorf(format string, v ...any) { l.sugar.Errorf(format, v...) }

func (l *ZapLogger) Sync() error {
	return l.l.Sync()
}
