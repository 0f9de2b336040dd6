package cmd

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeBuffer is a thread-safe bytes.Buffer, since stdout/stderr are
// written to from whatever goroutine cobra and the logger happen to run on.
type safeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.b.Write(p)
}

func (s *safeBuffer) String() string {
	s.m.Lock()
	defer s.m.Unlock()
	return s.b.String()
}

type globalTestState struct {
	*globalState
	cancel func()

	stdOutBuf, stdErrBuf *safeBuffer
	loggerHook           *test.Hook
}

func newGlobalTestState(t *testing.T) *globalTestState {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	outMutex := &sync.Mutex{}
	stdOutBuf, stdErrBuf := &safeBuffer{}, &safeBuffer{}

	ts := &globalTestState{
		cancel:     cancel,
		stdOutBuf:  stdOutBuf,
		stdErrBuf:  stdErrBuf,
		loggerHook: hook,
	}
	ts.globalState = &globalState{
		ctx:            ctx,
		fs:             afero.NewMemMapFs(),
		args:           []string{"chrome-cli"},
		envVars:        map[string]string{},
		outMutex:       outMutex,
		stdOut:         &consoleWriter{Writer: stdOutBuf, Mutex: outMutex},
		stdErr:         &consoleWriter{Writer: stdErrBuf, Mutex: outMutex},
		stdIn:          bytes.NewReader(nil),
		logger:         logger,
		fallbackLogger: logger,
	}
	return ts
}

func TestRootVersionCommand(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.args = []string{"chrome-cli", "version"}

	rc := newRootCommand(ts.globalState)
	rc.cmd.SetArgs(ts.args[1:])
	require.NoError(t, rc.execute())
	assert.Contains(t, ts.stdOutBuf.String(), "chrome-cli v")
}

func TestRootUnsupportedLogOutput(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.args = []string{"chrome-cli", "--log-output", "carrier-pigeon", "version"}

	rc := newRootCommand(ts.globalState)
	rc.cmd.SetArgs(ts.args[1:])
	err := rc.execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log output")
}

func TestRootVerboseEnablesDebugLogging(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.args = []string{"chrome-cli", "--verbose", "version"}

	rc := newRootCommand(ts.globalState)
	rc.cmd.SetArgs(ts.args[1:])
	require.NoError(t, rc.execute())
	assert.Equal(t, logrus.DebugLevel, ts.globalState.logger.GetLevel())
}
