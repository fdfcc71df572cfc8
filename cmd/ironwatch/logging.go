package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xoelrdgz/ironwatch/internal/app"
)

var logFile *lumberjack.Logger

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
}

// setupConsoleLogging installs the stderr logger used until the
// configuration is known.
func setupConsoleLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(consoleWriter())
}

// setupLogging applies the configured level and, when logging.file is set,
// tees every event into a size-rotated JSON log file.
func setupLogging(cfg app.LoggingConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.File == "" {
		return nil
	}

	logFile = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(consoleWriter(), logFile)).
		With().
		Timestamp().
		Logger()

	log.Debug().Str("file", cfg.File).Msg("File logging enabled")
	return nil
}

func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
	}
}
