package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cybersms/numstore/internal/config"
)

// Setup configures the global logrus logger from config. When a log file is
// configured, output goes to both stderr and a size-rotated file.
func Setup(cfg config.LogConfig) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(parseLevel(cfg.Level))

	if strings.TrimSpace(cfg.File) == "" {
		log.SetOutput(os.Stderr)
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}

func parseLevel(level string) log.Level {
	parsed, errParse := log.ParseLevel(strings.TrimSpace(level))
	if errParse != nil {
		return log.InfoLevel
	}
	return parsed
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
