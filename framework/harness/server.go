package harness

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nordcodes/session-contract-tests/framework"
)

const httpListenerTimeout = time.Second * 10

// StartServer starts an HTTP server on the specified port and does not return until the server
// is answering requests. HEAD requests to any path are answered with 200 by the server itself,
// which is how we detect that our own listener is active.
//
// Binding errors, such as the port already being in use, are returned immediately.
func StartServer(port int, handler http.Handler, logger framework.Logger) (*http.Server, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("could not listen on port %d: %w", port, err)
	}
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusOK)
				return
			}
			handler.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Listener on port %d stopped unexpectedly: %s", port, err)
		}
	}()

	// Wait till the server is definitely listening for requests before we run any tests
	client := &http.Client{Timeout: time.Second}
	deadline := time.NewTimer(httpListenerTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			_ = server.Close()
			return nil, fmt.Errorf("could not detect own listener on port %d", port)
		case <-ticker.C:
			resp, err := client.Head(fmt.Sprintf("http://localhost:%d", port))
			if err == nil {
				_ = resp.Body.Close()
				return server, nil
			}
		}
	}
}
