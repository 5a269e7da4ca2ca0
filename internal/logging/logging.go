package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "reel.log"

// levelWriter 只写入不低于 min 的日志
type levelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (l levelWriter) Write(p []byte) (int, error) {
	return l.w.Write(p)
}

func (l levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < l.min {
		return len(p), nil
	}
	return l.w.Write(p)
}

type Options struct {
	Dir          string
	Console      io.Writer
	ConsoleLevel zerolog.Level
	FileLevel    zerolog.Level
}

// Init 控制台输出可读文本, 文件输出 JSON 并按大小轮转
// 返回的 cleanup 用于关闭日志文件
func Init(dir string) (func(), error) {
	return InitWithOptions(Options{
		Dir:          dir,
		Console:      os.Stdout,
		ConsoleLevel: zerolog.WarnLevel,
		FileLevel:    zerolog.DebugLevel,
	})
}

func InitWithOptions(opts Options) (func(), error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 3,
		LocalTime:  true,
	}

	console := zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.TimeOnly}
	multi := zerolog.MultiLevelWriter(
		levelWriter{w: console, min: opts.ConsoleLevel},
		levelWriter{w: lj, min: opts.FileLevel},
	)

	zerolog.SetGlobalLevel(min(opts.ConsoleLevel, opts.FileLevel))
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()

	cleanup := func() {
		if err := lj.Close(); err != nil {
			log.Error().Err(err).Msg("[日志] 关闭日志文件失败")
		}
	}
	return cleanup, nil
}
