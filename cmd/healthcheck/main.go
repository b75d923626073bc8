// Command healthcheck probes a running "volt serve" and exits non-zero unless
// the vault API reports itself healthy. It takes no flags so it can be used
// directly as a container HEALTHCHECK.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	httphandler "github.com/ericfisherdev/volt/internal/adapter/driving/http"
)

// defaultAddr matches the listen_addr default of the vault server.
const defaultAddr = "127.0.0.1:8080"

func main() {
	os.Exit(check())
}

func check() int {
	addr := normalizeAddr(os.Getenv("VOLT_LISTEN_ADDR"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	var health httphandler.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&health); err != nil {
		return 1
	}
	if health.Status != "ok" {
		return 1
	}
	return 0
}

// normalizeAddr turns VOLT_LISTEN_ADDR into an address this process can dial.
// The vault binds loopback by default; a container image overrides that with
// a wildcard bind, which is reached here over loopback since the check runs
// inside the same container.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
