package main

import (
	"os"

	ipfslog "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"

	"github.com/erc7824/walletbridge/pkg/log"
)

// NewLoggerIPFS returns a logger backed by the ipfs logging subsystem.
// Levels are controlled per subsystem through the ipfs log registry.
func NewLoggerIPFS(name string) log.Logger {
	return &ipfsLogger{
		name: name,
		lg:   ipfslog.Logger(name).SugaredLogger.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

type ipfsLogger struct {
	name string
	lg   *zap.SugaredLogger
}

func (l *ipfsLogger) Debug(msg string, keysAndValues ...any) {
	l.lg.Debugw(msg, keysAndValues...)
}

func (l *ipfsLogger) Info(msg string, keysAndValues ...any) {
	l.lg.Infow(msg, keysAndValues...)
}

func (l *ipfsLogger) Warn(msg string, keysAndValues ...any) {
	l.lg.Warnw(msg, keysAndValues...)
}

func (l *ipfsLogger) Error(msg string, keysAndValues ...any) {
	l.lg.Errorw(msg, keysAndValues...)
}

func (l *ipfsLogger) Fatal(msg string, keysAndValues ...any) {
	l.lg.Fatalw(msg, keysAndValues...)
}

func (l *ipfsLogger) WithName(name string) log.Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &ipfsLogger{
		name: full,
		lg:   ipfslog.Logger(full).SugaredLogger.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

func (l *ipfsLogger) WithKV(keysAndValues ...any) log.Logger {
	return &ipfsLogger{
		name: l.name,
		lg:   l.lg.With(keysAndValues...),
	}
}

func (l *ipfsLogger) Name() string {
	return l.name
}

func init() {
	logLevel := os.Getenv("WALLETBRIDGE_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLevel, err := ipfslog.Parse(logLevel)
	if err != nil {
		zapLevel = ipfslog.LevelInfo
	}

	ipfslog.SetupLogging(ipfslog.Config{
		Level:  zapLevel,
		Stderr: true,
	})
}
