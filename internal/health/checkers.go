// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"os"
	"time"

	"github.com/ManuGH/canplay/internal/capability"
)

const defaultCheckTimeout = 2 * time.Second

// PingChecker reports a dependency reachable through a ping function, such
// as a flag store's HealthCheck.
type PingChecker struct {
	name    string
	ping    func(ctx context.Context) error
	timeout time.Duration
}

// NewPingChecker wraps ping. A zero timeout means two seconds.
func NewPingChecker(name string, ping func(ctx context.Context) error, timeout time.Duration) *PingChecker {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &PingChecker{name: name, ping: ping, timeout: timeout}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// FileChecker inspects the flag document of the file backend. A missing file
// is degraded: the store then serves registry defaults.
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		return CheckResult{Status: StatusDegraded, Message: "file not found, using defaults"}
	case err != nil:
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	case info.IsDir():
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}

// ResolverChecker probes the resolver with a bare container query. A
// disabled container family is reported as degraded.
type ResolverChecker struct {
	resolver *capability.Resolver
	probe    string
}

func NewResolverChecker(r *capability.Resolver, probe string) *ResolverChecker {
	return &ResolverChecker{resolver: r, probe: probe}
}

func (c *ResolverChecker) Name() string { return "resolver" }

func (c *ResolverChecker) Check(context.Context) CheckResult {
	res := c.resolver.Explain(c.probe)
	switch res.Reason {
	case capability.ReasonNoCodecs, capability.ReasonCodecsSupported:
		return CheckResult{Status: StatusHealthy, Message: c.probe + ": " + res.Verdict.String()}
	case capability.ReasonContainerDisabled:
		return CheckResult{Status: StatusDegraded, Message: "container family disabled by flag"}
	default:
		return CheckResult{Status: StatusUnhealthy, Error: "probe " + c.probe + " rejected: " + string(res.Reason)}
	}
}
