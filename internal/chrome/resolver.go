package chrome

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/Nunley-Media-Group/chrome-cli/internal/sessionfile"
)

// DefaultPort is the well-known Chrome DevTools Protocol debug port.
const DefaultPort uint16 = 9222

// ResolvedConnection is the endpoint the transport is built from.
type ResolvedConnection struct {
	WSURL string
	Host  string
	Port  uint16
}

// ResolveOptions carries every input the priority chain needs. ExplicitPort
// is nil unless the caller actually supplied one, which is what lets the
// chain distinguish a user override from a defaulted value (see spec's Open
// Question on this, resolved by keeping the pointer rather than a sentinel).
type ResolveOptions struct {
	Host            string
	ExplicitPort    *uint16
	WSURL           string
	SessionHintPath string

	Fs  afero.Fs
	Env EnvLookup
}

// Resolve runs the four-strategy priority chain documented in the resolver
// spec: explicit ws-url, explicit port (no fallback), session hint, then
// auto-discovery on the default port. The first strategy that applies wins;
// none of them retry past their own definitive failure.
func Resolve(ctx context.Context, opts ResolveOptions) (ResolvedConnection, error) {
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}

	// 1. Explicit WebSocket URL: accepted verbatim, no reachability check.
	if opts.WSURL != "" {
		port, ok := extractPortFromWSURL(opts.WSURL)
		if !ok {
			if opts.ExplicitPort != nil {
				port = *opts.ExplicitPort
			} else {
				port = DefaultPort
			}
		}
		return ResolvedConnection{WSURL: opts.WSURL, Host: host, Port: port}, nil
	}

	// 2. Explicit port: health-check only this port, no fallback on failure.
	if opts.ExplicitPort != nil {
		version, err := QueryVersion(ctx, host, *opts.ExplicitPort)
		if err != nil {
			return ResolvedConnection{}, errNotRunning("explicit port unreachable")
		}
		return ResolvedConnection{WSURL: version.WSDebuggerURL, Host: host, Port: *opts.ExplicitPort}, nil
	}

	// 3. Session hint file.
	if opts.SessionHintPath != "" && opts.Fs != nil {
		hint, ok, err := sessionfile.Read(opts.Fs, opts.SessionHintPath)
		if err == nil && ok {
			if _, verErr := QueryVersion(ctx, host, hint.Port); verErr != nil {
				return ResolvedConnection{}, errStaleSession("session hint unreachable")
			}
			return ResolvedConnection{WSURL: hint.WSURL, Host: host, Port: hint.Port}, nil
		}
	}

	// 4. Auto-discover on the default port (DevToolsActivePort, else the well-known port).
	wsURL, port, err := DiscoverChrome(ctx, opts.Fs, opts.Env, host, DefaultPort)
	if err != nil {
		return ResolvedConnection{}, errNotRunning("auto-discovery failed")
	}
	return ResolvedConnection{WSURL: wsURL, Host: host, Port: port}, nil
}

// extractPortFromWSURL pulls the port out of a ws://host:port/path or
// wss://host:port/path authority, if parseable.
func extractPortFromWSURL(url string) (uint16, bool) {
	withoutScheme, ok := strings.CutPrefix(url, "ws://")
	if !ok {
		withoutScheme, ok = strings.CutPrefix(url, "wss://")
	}
	if !ok {
		return 0, false
	}

	hostPort, _, _ := strings.Cut(withoutScheme, "/")
	idx := strings.LastIndex(hostPort, ":")
	if idx < 0 {
		return 0, false
	}

	port, err := strconv.ParseUint(hostPort[idx+1:], 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(port), true
}
