package router

import (
	"bytes"

	"github.com/rs/zerolog"
)

// echoLogger forwards echo's own log output to zerolog.
type echoLogger struct {
	level zerolog.Level
	log   zerolog.Logger
}

func (l *echoLogger) Write(p []byte) (int, error) {
	l.log.WithLevel(l.level).Msg(string(bytes.TrimSpace(p)))
	return len(p), nil
}
