package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/sessionservice"
)

// App returns the command-line application.
func App() *cli.App {
	defaults := sessionservice.DefaultConfig()
	return &cli.App{
		Name:  "session-service",
		Usage: "Session protocol service with LOGIN, ACTION and LOGOUT",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   defaults.Port,
				Usage:   "TCP port to listen on",
				EnvVars: []string{servicedef.EnvPort},
			},
			&cli.StringFlag{
				Name:    "base-path",
				Value:   defaults.BasePath,
				Usage:   "Path of the protocol endpoint",
				EnvVars: []string{servicedef.EnvBasePath},
			},
			&cli.StringFlag{
				Name:     "secret",
				Usage:    "API key that clients must send in the X-Api-Key header",
				EnvVars:  []string{servicedef.EnvSecret},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "upstream-url",
				Usage:    "Base URL of the /auth and /doAction dependencies",
				EnvVars:  []string{servicedef.EnvUpstreamURL},
				Required: true,
			},
			&cli.DurationFlag{
				Name:    "upstream-timeout",
				Value:   defaults.UpstreamTimeout,
				Usage:   "Time limit for each upstream call",
				EnvVars: []string{servicedef.EnvUpstreamTimeout},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   defaults.StoreURL,
				Usage:   "Session store: memory:, redis://host:port/db, consul://host:port/prefix, dynamodb://table",
				EnvVars: []string{servicedef.EnvStore},
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Value: defaults.ShutdownTimeout,
				Usage: "Time limit for in-flight requests to finish on shutdown",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{servicedef.EnvLogLevel},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "text or json",
				EnvVars: []string{servicedef.EnvLogFormat},
			},
		},
		Action: run,
	}
}

func configFromContext(c *cli.Context) sessionservice.Config {
	return sessionservice.Config{
		Port:            c.Int("port"),
		BasePath:        c.String("base-path"),
		Secret:          c.String("secret"),
		UpstreamURL:     c.String("upstream-url"),
		UpstreamTimeout: c.Duration("upstream-timeout"),
		StoreURL:        c.String("store"),
		ShutdownTimeout: c.Duration("shutdown-timeout"),
	}
}

func run(c *cli.Context) error {
	logger, err := sessionservice.NewLogger(os.Stderr, c.String("log-level"), c.String("log-format"))
	if err != nil {
		return err
	}
	server, err := sessionservice.NewServer(configFromContext(c), logger)
	if err != nil {
		return err
	}
	if err := server.Listen(); err != nil {
		_ = server.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}
