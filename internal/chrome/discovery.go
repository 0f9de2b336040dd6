package chrome

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	connectTimeout = 2 * time.Second
	readTimeout    = 5 * time.Second
)

// BrowserVersion is the document returned by /json/version.
type BrowserVersion struct {
	Browser         string `json:"Browser"`
	ProtocolVersion string `json:"Protocol-Version"`
	WSDebuggerURL   string `json:"webSocketDebuggerUrl"`
}

// TargetInfo describes a single debuggable target (tab, worker, ...).
type TargetInfo struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	WSDebugURL string `json:"webSocketDebuggerUrl,omitempty"`
}

// QueryVersion performs the /json/version health check and discovery query.
func QueryVersion(ctx context.Context, host string, port uint16) (BrowserVersion, error) {
	body, err := httpGet(ctx, host, port, "/json/version")
	if err != nil {
		return BrowserVersion{}, err
	}
	var v BrowserVersion
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return BrowserVersion{}, errParse(err.Error())
	}
	return v, nil
}

// QueryTargets lists debuggable targets via /json/list.
func QueryTargets(ctx context.Context, host string, port uint16) ([]TargetInfo, error) {
	body, err := httpGet(ctx, host, port, "/json/list")
	if err != nil {
		return nil, err
	}
	var targets []TargetInfo
	if err := json.Unmarshal([]byte(body), &targets); err != nil {
		return nil, errParse(err.Error())
	}
	return targets, nil
}

// httpGet performs a blocking HTTP/1.1 GET with a 2s connect timeout and a 5s
// read timeout, returning the response body. A "200" substring on the status
// line is treated as success; anything else is an HTTP error.
func httpGet(ctx context.Context, host string, port uint16, path string) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", errHTTP(fmt.Sprintf("connection failed to %s: %s", addr, err))
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	request := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, addr)
	if _, err := conn.Write([]byte(request)); err != nil {
		return "", errHTTP(fmt.Sprintf("write failed: %s", err))
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return "", errHTTP(fmt.Sprintf("read failed: %s", err))
	}
	if !strings.Contains(statusLine, "200") {
		return "", errHTTP(fmt.Sprintf("unexpected HTTP status: %s", strings.TrimSpace(statusLine)))
	}

	var sb strings.Builder
	for {
		line, err := reader.ReadString('\n')
		sb.WriteString(line)
		if err != nil {
			break
		}
	}
	rest := sb.String()

	idx := strings.Index(rest, "\r\n\r\n")
	if idx < 0 {
		// no blank-line separator after a header block: the status line was
		// followed directly by the blank line (no headers), so what remains
		// after that leading "\r\n" is the body itself.
		body := strings.TrimPrefix(rest, "\r\n")
		if body == "" {
			return "", errHTTP("malformed HTTP response")
		}
		return body, nil
	}
	return rest[idx+4:], nil
}

// ParseDevToolsActivePort parses the two-line contents of a
// DevToolsActivePort sidecar file: line 1 is the port, line 2 is the
// WebSocket path.
func ParseDevToolsActivePort(contents string) (uint16, string, error) {
	lines := strings.Split(contents, "\n")
	if len(lines) < 1 || strings.TrimSpace(lines[0]) == "" {
		return 0, "", errNoActivePort()
	}
	portStr := strings.TrimSpace(lines[0])
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, "", errParse(fmt.Sprintf("invalid port in DevToolsActivePort: %s", portStr))
	}
	if len(lines) < 2 {
		return 0, "", errNoActivePort()
	}
	return uint16(port), strings.TrimSpace(lines[1]), nil
}

// ReadDevToolsActivePortFrom reads and parses the DevToolsActivePort sidecar
// file from a specific user-data directory, via fs so it is testable without
// touching the real filesystem.
func ReadDevToolsActivePortFrom(fs afero.Fs, dataDir string) (uint16, string, error) {
	path := dataDir + "/DevToolsActivePort"
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, "", errNoActivePort()
	}
	return ParseDevToolsActivePort(string(contents))
}

// ReadDevToolsActivePort reads the sidecar file from the platform's default
// Chrome user-data directory.
func ReadDevToolsActivePort(fs afero.Fs, env EnvLookup) (uint16, string, error) {
	if fs == nil || env == nil {
		return 0, "", errNoActivePort()
	}
	dir, ok := DefaultUserDataDir(env)
	if !ok {
		return 0, "", errNoActivePort()
	}
	return ReadDevToolsActivePortFrom(fs, dir)
}

// DiscoverChrome tries the DevToolsActivePort sidecar file first, then falls
// back to querying the given host/port directly.
func DiscoverChrome(ctx context.Context, fs afero.Fs, env EnvLookup, host string, port uint16) (string, uint16, error) {
	if filePort, _, err := ReadDevToolsActivePort(fs, env); err == nil {
		if version, err := QueryVersion(ctx, "127.0.0.1", filePort); err == nil {
			return version.WSDebuggerURL, filePort, nil
		}
	}

	version, err := QueryVersion(ctx, host, port)
	if err != nil {
		return "", 0, errNotRunning(fmt.Sprintf("discovery failed on %s:%d: %s", host, port, err))
	}
	return version.WSDebuggerURL, port, nil
}
