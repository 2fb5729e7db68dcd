package sessionservice

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nordcodes/session-contract-tests/servicedef"
)

// Config is the complete configuration of the service.
type Config struct {
	// Port is the TCP port to listen on.
	Port int

	// BasePath is the path of the protocol endpoint.
	BasePath string

	// Secret is the API key that clients must send in the X-Api-Key header.
	Secret string

	// UpstreamURL is the base URL of the /auth and /doAction dependencies.
	UpstreamURL string

	// UpstreamTimeout bounds each upstream call.
	UpstreamTimeout time.Duration

	// StoreURL selects the session store; see OpenStore.
	StoreURL string

	// ShutdownTimeout bounds how long in-flight requests may take to finish on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with every optional setting at its default. Secret and
// UpstreamURL have no defaults.
func DefaultConfig() Config {
	return Config{
		Port:            servicedef.DefaultServicePort,
		BasePath:        servicedef.DefaultEndpointPath,
		UpstreamTimeout: 3 * time.Second,
		StoreURL:        "memory:",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", c.Port))
	}
	if !strings.HasPrefix(c.BasePath, "/") || c.BasePath == "/" {
		errs = append(errs, fmt.Errorf("base path %q must start with a slash and must not be the root", c.BasePath))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("secret must not be empty"))
	}
	if u, err := url.Parse(c.UpstreamURL); err != nil || u.Host == "" ||
		(u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("upstream URL %q must be an absolute http or https URL", c.UpstreamURL))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("upstream timeout must be positive"))
	}
	return errors.Join(errs...)
}
