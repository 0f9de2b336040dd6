package chrome_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nunley-Media-Group/chrome-cli/internal/chrome"
)

// fakeDevToolsServer is a minimal HTTP/1.1 listener that replies to any GET
// with a fixed JSON body, enough to exercise chrome.QueryVersion's
// hand-rolled client.
func fakeDevToolsServer(t *testing.T, body string) (host string, port uint16) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 4096)
				_, _ = conn.Read(buf)
				resp := "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n" + body
				_, _ = conn.Write([]byte(resp))
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", uint16(addr.Port)
}

func TestQueryVersion(t *testing.T) {
	t.Parallel()

	host, port := fakeDevToolsServer(t, `{
		"Browser": "Chrome/120.0.6099.71",
		"Protocol-Version": "1.3",
		"webSocketDebuggerUrl": "ws://127.0.0.1:9222/devtools/browser/abc-123"
	}`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := chrome.QueryVersion(ctx, host, port)
	require.NoError(t, err)
	assert.Equal(t, "Chrome/120.0.6099.71", v.Browser)
	assert.Equal(t, "1.3", v.ProtocolVersion)
	assert.Contains(t, v.WSDebuggerURL, "ws://")
}

func TestQueryTargets(t *testing.T) {
	t.Parallel()

	host, port := fakeDevToolsServer(t, `[{
		"id": "ABCDEF",
		"type": "page",
		"title": "New Tab",
		"url": "chrome://newtab/",
		"webSocketDebuggerUrl": "ws://127.0.0.1:9222/devtools/page/ABCDEF"
	}]`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	targets, err := chrome.QueryTargets(ctx, host, port)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "ABCDEF", targets[0].ID)
	assert.Equal(t, "page", targets[0].Type)
}

func TestQueryVersionConnectionRefused(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := chrome.QueryVersion(ctx, "127.0.0.1", 1)
	assert.Error(t, err)
}

func TestParseDevToolsActivePortValid(t *testing.T) {
	t.Parallel()

	port, path, err := chrome.ParseDevToolsActivePort("9222\n/devtools/browser/abc-123\n")
	require.NoError(t, err)
	assert.Equal(t, uint16(9222), port)
	assert.Equal(t, "/devtools/browser/abc-123", path)
}

func TestParseDevToolsActivePortEmpty(t *testing.T) {
	t.Parallel()

	_, _, err := chrome.ParseDevToolsActivePort("")
	assert.Error(t, err)
}

func TestParseDevToolsActivePortInvalidPort(t *testing.T) {
	t.Parallel()

	_, _, err := chrome.ParseDevToolsActivePort("notaport\n/ws/path\n")
	assert.Error(t, err)
}

func TestReadDevToolsActivePortFrom(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/DevToolsActivePort", []byte("9333\n/devtools/browser/xyz-789\n"), 0o644))

	port, path, err := chrome.ReadDevToolsActivePortFrom(fs, "/data")
	require.NoError(t, err)
	assert.Equal(t, uint16(9333), port)
	assert.Equal(t, "/devtools/browser/xyz-789", path)
}

func TestReadDevToolsActivePortFromMissingDir(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_, _, err := chrome.ReadDevToolsActivePortFrom(fs, "/nonexistent")
	assert.Error(t, err)
}
