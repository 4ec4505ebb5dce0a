package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger is the logging interface shared by the client, watcher, CLI and MCP server.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable lines. Info and Debug go to out, Error to errOut.
// Debug lines are dropped unless verbose is set; this is how HTTP tracing is toggled.
type ConsoleLogger struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// NewConsoleLogger logs to stdout and stderr.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewWriterLogger(os.Stdout, os.Stderr, verbose)
}

// NewWriterLogger logs to the given writers.
func NewWriterLogger(out, errOut io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{out: out, errOut: errOut, verbose: verbose}
}

// SetVerbose enables or disables debug output.
func (c *ConsoleLogger) SetVerbose(verbose bool) {
	c.mu.Lock()
	c.verbose = verbose
	c.mu.Unlock()
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.write(c.out, "[INFO] ", msg, args)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.write(c.errOut, "[ERROR] ", msg, args)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	c.mu.Lock()
	verbose := c.verbose
	c.mu.Unlock()
	if !verbose {
		return
	}
	c.write(c.out, "[DEBUG] ", msg, args)
}

func (c *ConsoleLogger) write(w io.Writer, level, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, level+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used by the TUI, the MCP stdio server and tests.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
