package harness

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/nordcodes/session-contract-tests/framework"
)

// OutputCapture is an io.Writer that splits whatever is written to it into lines. Every line is
// retained for diagnostics, and lines that do not match any of the exclude patterns are also
// forwarded to a Logger.
type OutputCapture struct {
	logger  framework.Logger
	exclude []*regexp.Regexp
	lines   []string
	partial []byte
	lock    sync.Mutex
}

// NewOutputCapture creates an OutputCapture that forwards lines to logger.
func NewOutputCapture(logger framework.Logger, exclude []*regexp.Regexp) *OutputCapture {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &OutputCapture{logger: logger, exclude: exclude}
}

func (o *OutputCapture) Write(data []byte) (int, error) {
	o.lock.Lock()
	o.partial = append(o.partial, data...)
	var complete []string
	for {
		i := bytes.IndexByte(o.partial, '\n')
		if i < 0 {
			break
		}
		complete = append(complete, strings.TrimRight(string(o.partial[:i]), "\r"))
		o.partial = o.partial[i+1:]
	}
	o.lines = append(o.lines, complete...)
	o.lock.Unlock()

	o.forward(complete)
	return len(data), nil
}

// Flush treats any pending text that was not terminated by a newline as a complete line.
func (o *OutputCapture) Flush() {
	o.lock.Lock()
	var last []string
	if len(o.partial) != 0 {
		last = []string{strings.TrimRight(string(o.partial), "\r")}
		o.lines = append(o.lines, last...)
		o.partial = nil
	}
	o.lock.Unlock()
	o.forward(last)
}

// Lines returns a copy of every complete line captured so far.
func (o *OutputCapture) Lines() []string {
	o.lock.Lock()
	defer o.lock.Unlock()
	return append([]string(nil), o.lines...)
}

func (o *OutputCapture) forward(lines []string) {
lineLoop:
	for _, line := range lines {
		for _, rx := range o.exclude {
			if rx.MatchString(line) {
				continue lineLoop
			}
		}
		o.logger.Println(line)
	}
}
