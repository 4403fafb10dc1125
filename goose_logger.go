package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// gooseLogger adapts a slog.Logger to Goose's logger interface.
// Goose expects a logger with Printf and Fatalf methods.
type gooseLogger struct {
	l *slog.Logger
}

func (c *gooseLogger) logger() *slog.Logger {
	if c == nil || c.l == nil {
		return slog.Default()
	}
	return c.l
}

func (c *gooseLogger) Printf(format string, v ...interface{}) {
	c.logger().Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (c *gooseLogger) Fatalf(format string, v ...interface{}) {
	c.logger().Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}
