package harness

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nordcodes/session-contract-tests/framework"
	"github.com/nordcodes/session-contract-tests/servicedef"

	"github.com/alessio/shellescape"
)

// DefaultStopTimeout is how long Terminate waits after SIGTERM before killing the process.
const DefaultStopTimeout = 5 * time.Second

const (
	portProbeTimeout   = 200 * time.Millisecond
	outputDrainTimeout = 2 * time.Second // bounds Wait if a grandchild keeps the output pipe open
)

// ServiceCommand describes how to launch the service under test.
type ServiceCommand struct {
	// Path is the executable.
	Path string

	// Args are passed to the executable as-is.
	Args []string

	// Port is the port the service should listen on. It is passed in SESSION_PORT and is also
	// the port that is probed for readiness.
	Port int

	// Secret is the API key the service should accept, passed in SESSION_SECRET.
	Secret string

	// UpstreamURL is the base URL of the upstream dependencies, passed in SESSION_UPSTREAM_URL.
	UpstreamURL string

	// Env contains any additional KEY=VALUE settings.
	Env []string

	// Dir is the working directory; if empty, the harness's own working directory is used.
	Dir string

	// StopTimeout overrides DefaultStopTimeout.
	StopTimeout time.Duration

	// HideOutput contains patterns for output lines that are retained but not logged.
	HideOutput []*regexp.Regexp
}

// BaseURL returns the root URL of the service once it is running.
func (c ServiceCommand) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// String returns the command line, quoted so that it could be pasted into a shell.
func (c ServiceCommand) String() string {
	var b commandBuilder
	b.add(c.Path)
	b.add(c.Args...)
	return b.String()
}

func (c ServiceCommand) environment() []string {
	env := append([]string(nil), os.Environ()...)
	env = append(env,
		servicedef.EnvSecret+"="+c.Secret,
		servicedef.EnvUpstreamURL+"="+c.UpstreamURL,
		servicedef.EnvPort+"="+strconv.Itoa(c.Port),
	)
	return append(env, c.Env...)
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// Supervisor launches the service under test and makes sure there is never more than one
// instance of it.
type Supervisor struct {
	logger  framework.Logger
	current *ServiceProcess
	lock    sync.Mutex
}

// NewSupervisor creates a Supervisor. The logger receives the supervisor's own messages and,
// with a "[service] " prefix, every line the service process writes to stdout or stderr.
func NewSupervisor(logger framework.Logger) *Supervisor {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Supervisor{logger: logger}
}

// Launch starts the service process. It does not wait for the service to be ready; use
// ServiceProcess.AwaitReady for that.
func (s *Supervisor) Launch(command ServiceCommand) (*ServiceProcess, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.current != nil && !s.current.HasExited() {
		return nil, ErrServiceAlreadyRunning
	}
	if command.Path == "" {
		return nil, errors.New("no service executable was specified")
	}
	if portIsOpen(command.Port) {
		return nil, &PortInUseError{Port: command.Port}
	}

	p := &ServiceProcess{
		command: command,
		output:  NewOutputCapture(framework.LoggerWithPrefix(s.logger, "[service] "), command.HideOutput),
		exited:  make(chan struct{}),
		logger:  s.logger,
	}
	cmd := exec.Command(command.Path, command.Args...) //nolint:gosec
	cmd.Env = command.environment()
	cmd.Dir = command.Dir
	cmd.Stdout = p.output
	cmd.Stderr = p.output
	cmd.WaitDelay = outputDrainTimeout
	p.cmd = cmd

	s.logger.Printf("Launching service on port %d: %s", command.Port, command)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start service process: %w", err)
	}
	go p.wait()

	s.current = p
	return p, nil
}

// Terminate stops the most recently launched process, if any.
func (s *Supervisor) Terminate() error {
	s.lock.Lock()
	p := s.current
	s.lock.Unlock()
	if p == nil {
		return nil
	}
	if err := p.Terminate(); err != nil {
		return err
	}
	s.lock.Lock()
	if s.current == p {
		s.current = nil
	}
	s.lock.Unlock()
	return nil
}

// ServiceProcess is a running (or exited) instance of the service under test.
type ServiceProcess struct {
	command       ServiceCommand
	cmd           *exec.Cmd
	output        *OutputCapture
	exited        chan struct{}
	waitErr       error
	terminateOnce sync.Once
	terminateErr  error
	logger        framework.Logger
}

func (p *ServiceProcess) wait() {
	p.waitErr = p.cmd.Wait()
	p.output.Flush()
	close(p.exited)
}

// Command returns the command that the process was launched with.
func (p *ServiceProcess) Command() ServiceCommand {
	return p.command
}

// PID returns the operating system process ID.
func (p *ServiceProcess) PID() int {
	return p.cmd.Process.Pid
}

// Output returns every line the process has written so far.
func (p *ServiceProcess) Output() []string {
	return p.output.Lines()
}

// HasExited returns true if the process is no longer running.
func (p *ServiceProcess) HasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Exited returns a channel that is closed when the process exits.
func (p *ServiceProcess) Exited() <-chan struct{} {
	return p.exited
}

// ExitCode returns the exit status of the process, or -1 if it is still running or was killed
// by a signal.
func (p *ServiceProcess) ExitCode() int {
	if !p.HasExited() {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// AwaitReady polls the root URL of the service until it answers. Unlike the package-level
// AwaitReady, it fails with a *ProcessExitedError as soon as the process exits.
func (p *ServiceProcess) AwaitReady(policy ReadinessPolicy) error {
	return awaitReady(p.command.BaseURL()+"/", policy, p, p.logger)
}

func (p *ServiceProcess) exitedError() error {
	return &ProcessExitedError{ExitCode: p.ExitCode(), Err: p.waitErr, Output: p.Output()}
}

// Terminate asks the process to exit with SIGTERM, and kills it if it has not exited when the stop
// timeout elapses. Calling it again, or calling it after the process has exited on its own, is
// harmless.
func (p *ServiceProcess) Terminate() error {
	p.terminateOnce.Do(func() {
		p.terminateErr = p.terminate()
	})
	return p.terminateErr
}

func (p *ServiceProcess) terminate() error {
	if p.HasExited() {
		p.logger.Printf("Service process %d had already exited with code %d", p.PID(), p.ExitCode())
		return nil
	}
	stopTimeout := p.command.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}

	p.logger.Printf("Stopping service process %d", p.PID())
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// signals other than Kill are not supported on every platform
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("could not kill service process: %w", err)
		}
	}

	deadline := time.NewTimer(stopTimeout)
	defer deadline.Stop()
	select {
	case <-p.exited:
		p.logger.Printf("Service process %d exited with code %d", p.PID(), p.ExitCode())
		return nil
	case <-deadline.C:
	}

	p.logger.Printf("Service process %d did not exit within %s; killing it", p.PID(), stopTimeout)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("could not kill service process: %w", err)
	}
	<-p.exited
	return nil
}

func portIsOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", port), portProbeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
