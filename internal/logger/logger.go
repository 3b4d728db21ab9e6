package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*logrus.Logger
	fileLogger *logrus.Logger
}

// Options 日志配置，Dir 为空时只输出到控制台
type Options struct {
	Dir      string
	Filename string
	Level    string
}

var defaultLogger *Logger

func init() {
	// 控制台日志配置
	consoleLogger := logrus.New()
	consoleLogger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	consoleLogger.SetOutput(os.Stdout)
	consoleLogger.SetLevel(logrus.DebugLevel)

	// 文件日志在 Setup 之前丢弃输出
	fileLogger := logrus.New()
	fileLogger.SetOutput(io.Discard)

	defaultLogger = &Logger{
		Logger:     consoleLogger,
		fileLogger: fileLogger,
	}
}

// Setup 设置日志级别，并启用按大小轮转的 JSON 文件日志
func Setup(opts Options) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	defaultLogger.Logger.SetLevel(level)

	if opts.Dir == "" {
		return
	}

	// 创建日志目录
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		defaultLogger.Logger.Errorf("无法创建日志目录: %v", err)
		return
	}

	filename := opts.Filename
	if filename == "" {
		filename = "talk-digest.log"
	}

	fileLogger := logrus.New()
	fileLogger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint:     false,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if level > logrus.InfoLevel {
		fileLogger.SetLevel(logrus.InfoLevel)
	} else {
		fileLogger.SetLevel(level)
	}

	// 使用lumberjack进行日志轮转
	fileLogger.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, filename),
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	})
	defaultLogger.fileLogger = fileLogger
}

// SetOutput 替换控制台输出，CLI 在打印结果时用于把日志切到 stderr
func SetOutput(w io.Writer) {
	defaultLogger.Logger.SetOutput(w)
}

func Infof(format string, args ...any) {
	defaultLogger.Logger.Infof(format, args...)
	defaultLogger.fileLogger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	defaultLogger.Logger.Warnf(format, args...)
	defaultLogger.fileLogger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	defaultLogger.Logger.Errorf(format, args...)
	defaultLogger.fileLogger.Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	defaultLogger.fileLogger.Errorf(format, args...)
	defaultLogger.Logger.Fatalf(format, args...)
}

func Debugf(format string, args ...any) {
	defaultLogger.Logger.Debugf(format, args...)
	defaultLogger.fileLogger.Debugf(format, args...)
}
