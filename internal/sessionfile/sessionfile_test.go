package sessionfile_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nunley-Media-Group/chrome-cli/internal/sessionfile"
)

func TestReadMissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	hint, ok, err := sessionfile.Read(fs, "/home/user/.chrome-cli/session.json")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, hint)
}

func TestReadValidHint(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	const path = "/home/user/.chrome-cli/session.json"
	require.NoError(t, afero.WriteFile(fs, path, []byte(`{
		"ws_url": "ws://127.0.0.1:9222/devtools/browser/abc",
		"port": 9222,
		"timestamp": "2026-02-11T12:00:00Z"
	}`), 0o600))

	hint, ok, err := sessionfile.Read(fs, path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/abc", hint.WSURL)
	assert.Equal(t, uint16(9222), hint.Port)
	assert.Nil(t, hint.PID)
}

func TestReadInvalidJSON(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	const path = "/home/user/.chrome-cli/session.json"
	require.NoError(t, afero.WriteFile(fs, path, []byte("not valid json"), 0o600))

	_, _, err := sessionfile.Read(fs, path)
	assert.Error(t, err)
}

func TestReadWithPID(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	const path = "/session.json"
	require.NoError(t, afero.WriteFile(fs, path, []byte(`{
		"ws_url": "ws://127.0.0.1:9222/devtools/browser/abc",
		"port": 9222,
		"pid": 1234,
		"timestamp": "2026-02-11T12:00:00Z"
	}`), 0o600))

	hint, ok, err := sessionfile.Read(fs, path)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, hint.PID)
	assert.Equal(t, uint32(1234), *hint.PID)
}
