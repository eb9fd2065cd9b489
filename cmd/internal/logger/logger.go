package logger

import (
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

const defaultServiceName = "chat-viewer"

// Logger 는 뷰어 전역에서 사용하는 최소 로거 인터페이스다.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields 는 구조화 로그 필드다. service_name 은 자동으로 채워진다.
type Fields map[string]any

// Log 는 전역 로거다. Init 전에도 info 레벨로 동작한다.
var Log Logger = NewLogger("info")

// Init 은 설정 레벨로 전역 로거를 다시 만든다. LOG_LEVEL 환경변수가 우선한다.
func Init(level string) {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	Log = NewLogger(level)
}

// NewLogger 는 gookit/slog 콘솔 핸들러에 JSON 포맷을 붙인다. 알 수 없는 레벨은 info.
func NewLogger(level string) Logger {
	threshold := slog.LevelByName(strings.ToLower(strings.TrimSpace(level)))
	if strings.TrimSpace(level) == "" {
		threshold = slog.InfoLevel
	}

	enabled := make(slog.Levels, 0, len(slog.AllLevels))
	for _, lv := range slog.AllLevels {
		if lv <= threshold {
			enabled = append(enabled, lv)
		}
	}

	h := handler.NewConsoleHandler(enabled)
	h.SetFormatter(slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{slog.FieldKeyDatetime, slog.FieldKeyLevel, slog.FieldKeyMessage}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	}))
	return slog.NewWithHandlers(h)
}

func serviceName() string {
	if sn := os.Getenv("SERVICE_NAME"); sn != "" {
		return sn
	}
	return defaultServiceName
}

// leveled 는 *slog.Record 와 Logger 가 공통으로 가진 메서드다.
type leveled interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

func withFields(level slog.Level, msg string, fields Fields) {
	var out leveled = Log
	if lg, ok := Log.(*slog.Logger); ok {
		m := slog.M{"service_name": serviceName()}
		for k, v := range fields {
			m[k] = v
		}
		out = lg.WithFields(m)
	}

	switch level {
	case slog.DebugLevel:
		out.Debug(msg)
	case slog.WarnLevel:
		out.Warn(msg)
	case slog.ErrorLevel:
		out.Error(msg)
	default:
		out.Info(msg)
	}
}

func InfoWithFields(msg string, fields Fields)  { withFields(slog.InfoLevel, msg, fields) }
func DebugWithFields(msg string, fields Fields) { withFields(slog.DebugLevel, msg, fields) }
func WarnWithFields(msg string, fields Fields)  { withFields(slog.WarnLevel, msg, fields) }
func ErrorWithFields(msg string, fields Fields) { withFields(slog.ErrorLevel, msg, fields) }
