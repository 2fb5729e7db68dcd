package framework

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingLoggerForwardsToChildren(t *testing.T) {
	var parent, child CapturingLogger
	parent.Printf("before %d", 1)

	parent.AddChildLogger(&child)
	parent.Println("during")
	parent.RemoveChildLogger(&child)
	parent.Println("after")

	childOutput := child.Output()
	require.Len(t, childOutput, 2)
	assert.Equal(t, "before 1", childOutput[0].Message)
	assert.Equal(t, "during", childOutput[1].Message)

	parentOutput := parent.Output()
	require.Len(t, parentOutput, 2)
	assert.Equal(t, "before 1", parentOutput[0].Message)
	assert.Equal(t, "after", parentOutput[1].Message)
}

func TestCapturedOutput(t *testing.T) {
	var l CapturingLogger
	l.Printf("first")
	l.Printf("second line")

	output := l.Output()
	assert.True(t, output.Contains("second"))
	assert.False(t, output.Contains("third"))

	lines := strings.Split(output.ToString("> "), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "> ["))
	assert.True(t, strings.HasSuffix(lines[1], "] second line"))
}

func TestLoggerWithPrefix(t *testing.T) {
	var l CapturingLogger
	LoggerWithPrefix(&l, "[x] ").Printf("value %s", "a")

	assert.Equal(t, "[x] value a", l.Output()[0].Message)
}

func TestLoggerWithPrefixPrintln(t *testing.T) {
	var l CapturingLogger
	prefixed := LoggerWithPrefix(&l, "[x] ")
	prefixed.Println("stopping")
	prefixed.Println("port", 8080)

	output := l.Output()
	require.Len(t, output, 2)
	assert.Equal(t, "[x] stopping", output[0].Message)
	assert.Equal(t, "[x] port 8080", output[1].Message)
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	WriterLogger(&buf).Printf("hello %s", "there")

	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] hello there\n$`, buf.String())
}

func TestMultiLogger(t *testing.T) {
	var a, b CapturingLogger
	logger := MultiLogger(&a, nil, &b)
	logger.Printf("message")
	logger.Println("other")

	assert.Len(t, a.Output(), 2)
	assert.Len(t, b.Output(), 2)
	assert.Same(t, &a, MultiLogger(nil, &a))
}
