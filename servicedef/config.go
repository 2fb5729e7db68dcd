package servicedef

// Environment variables through which the harness configures the service process.
const (
	EnvSecret          = "SESSION_SECRET"
	EnvUpstreamURL     = "SESSION_UPSTREAM_URL"
	EnvPort            = "SESSION_PORT"
	EnvBasePath        = "SESSION_BASE_PATH"
	EnvStore           = "SESSION_STORE"
	EnvUpstreamTimeout = "SESSION_UPSTREAM_TIMEOUT"
	EnvLogLevel        = "SESSION_LOG_LEVEL"
	EnvLogFormat       = "SESSION_LOG_FORMAT"
)

const (
	DefaultServicePort  = 8080
	DefaultUpstreamPort = 8888
	DefaultSecret       = "qazWSXedc"
)
