package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger interface {
	Println(args ...any)
	Printf(message string, args ...any)
}

type nullLogger struct{}

func (n nullLogger) Println(args ...any)                {}
func (n nullLogger) Printf(message string, args ...any) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger records all output from a test scope. See comments on ldtest.(*T).DebugLogger()
// for the rules of logging in parent/child scopes.
type CapturingLogger struct {
	output   []CapturedMessage
	children []*CapturingLogger
	lock     sync.Mutex
}

func (l *CapturingLogger) Println(args ...any) {
	m := strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
	l.append(CapturedMessage{Time: time.Now(), Message: m})
}

func (l *CapturingLogger) Printf(message string, args ...any) {
	l.append(CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
}

func (l *CapturingLogger) append(m CapturedMessage) {
	var children []*CapturingLogger
	l.lock.Lock()
	if len(l.children) == 0 {
		l.output = append(l.output, m)
	} else {
		children = append([]*CapturingLogger(nil), l.children...)
	}
	l.lock.Unlock()
	for _, c := range children {
		c.append(m)
	}
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// AddChildLogger redirects all further output to child, after copying what was logged so far.
func (l *CapturingLogger) AddChildLogger(child *CapturingLogger) {
	l.lock.Lock()
	l.children = append(l.children, child)
	output := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	child.lock.Lock()
	child.output = append(output, child.output...)
	child.lock.Unlock()
}

func (l *CapturingLogger) RemoveChildLogger(child *CapturingLogger) {
	l.lock.Lock()
	for i, c := range l.children {
		if c == child {
			l.children = append(l.children[0:i], l.children[i+1:]...)
			break
		}
	}
	l.lock.Unlock()
}

func (output CapturedOutput) ToString(prefix string) string {
	lines := make([]string, 0, len(output))
	for _, m := range output {
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, m.Time.Format(timestampFormat), m.Message))
	}
	return strings.Join(lines, "\n")
}

// Contains returns true if any captured message contains the given substring.
func (output CapturedOutput) Contains(substring string) bool {
	for _, m := range output {
		if strings.Contains(m.Message, substring) {
			return true
		}
	}
	return false
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...any) {
	p.base.Println(p.prefix + strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (p prefixedLogger) Printf(message string, args ...any) {
	p.base.Printf(p.prefix+message, args...)
}

// writerLogger writes timestamped lines to an io.Writer. It is used for the top-level debug
// output of the harness when the user asks to see everything as it happens.
type writerLogger struct {
	w    io.Writer
	lock sync.Mutex
}

func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

func (l *writerLogger) Println(args ...any) {
	l.write(strings.TrimRight(fmt.Sprintln(args...), "\r\n"))
}

func (l *writerLogger) Printf(message string, args ...any) {
	l.write(fmt.Sprintf(message, args...))
}

func (l *writerLogger) write(line string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	_, _ = fmt.Fprintf(l.w, "[%s] %s\n", time.Now().Format(timestampFormat), line)
}

type multiLogger []Logger

// MultiLogger sends everything to each of the given loggers. Nil loggers are ignored.
func MultiLogger(loggers ...Logger) Logger {
	var ret multiLogger
	for _, l := range loggers {
		if l != nil {
			ret = append(ret, l)
		}
	}
	if len(ret) == 1 {
		return ret[0]
	}
	return ret
}

func (m multiLogger) Println(args ...any) {
	for _, l := range m {
		l.Println(args...)
	}
}

func (m multiLogger) Printf(message string, args ...any) {
	for _, l := range m {
		l.Printf(message, args...)
	}
}
