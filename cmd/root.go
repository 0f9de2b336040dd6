package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Nunley-Media-Group/chrome-cli/errext"
	"github.com/Nunley-Media-Group/chrome-cli/errext/exitcodes"
	"github.com/Nunley-Media-Group/chrome-cli/internal/config"
	"github.com/Nunley-Media-Group/chrome-cli/internal/consts"
	"github.com/Nunley-Media-Group/chrome-cli/log"
)

// globalState groups every piece of process-external state — CLI
// arguments, env vars, the filesystem, standard streams, the logger —
// behind one struct so the rest of the cmd package never touches the os
// package directly. newGlobalState() builds the real thing;
// newGlobalTestState() in tests builds a simulated one.
type globalState struct {
	ctx context.Context

	fs      afero.Fs
	args    []string
	envVars map[string]string

	outMutex       *sync.Mutex
	stdOut, stdErr *consoleWriter
	stdIn          io.Reader

	logger         *logrus.Logger
	fallbackLogger logrus.FieldLogger
}

func newGlobalState(ctx context.Context) *globalState {
	isDumbTerm := os.Getenv("TERM") == "dumb"
	stdoutTTY := !isDumbTerm && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	stderrTTY := !isDumbTerm && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	outMutex := &sync.Mutex{}
	stdOut := &consoleWriter{Writer: colorable.NewColorable(os.Stdout), IsTTY: stdoutTTY, Mutex: outMutex}
	stdErr := &consoleWriter{Writer: colorable.NewColorable(os.Stderr), IsTTY: stderrTTY, Mutex: outMutex}

	envVars := config.BuildEnvMap(config.OSEnviron())
	_, noColorSet := envVars["NO_COLOR"] // even an empty value disables colors, per https://no-color.org/
	logger := &logrus.Logger{
		Out: stdErr,
		Formatter: &logrus.TextFormatter{
			ForceColors:   stderrTTY,
			DisableColors: !stderrTTY || noColorSet,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.InfoLevel,
	}

	return &globalState{
		ctx:          ctx,
		fs:           afero.NewOsFs(),
		args:         append(make([]string, 0, len(os.Args)), os.Args...),
		envVars:      envVars,
		outMutex:     outMutex,
		stdOut:       stdOut,
		stdErr:       stdErr,
		stdIn:        os.Stdin,
		logger:       logger,
		fallbackLogger: &logrus.Logger{
			Out:       stdErr,
			Formatter: new(logrus.TextFormatter),
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.InfoLevel,
		},
	}
}

// rootCommand holds everything needed for the main chrome-cli command.
type rootCommand struct {
	globalState *globalState
	conf        config.Config

	cmd *cobra.Command
}

func newRootCommand(gs *globalState) *rootCommand {
	c := &rootCommand{globalState: gs}

	rootCmd := &cobra.Command{
		Use:               "chrome-cli",
		Short:             "a CDP transport client for Chrome",
		Long:              "chrome-cli resolves a running Chrome instance's DevTools endpoint and talks CDP over it.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}

	rootCmd.PersistentFlags().AddFlagSet(config.FlagSet())
	rootCmd.SetArgs(gs.args[1:])
	rootCmd.SetOut(gs.stdOut)
	rootCmd.SetErr(gs.stdErr)
	rootCmd.SetIn(gs.stdIn)

	rootCmd.AddCommand(getVersionCmd(), getTargetsCmd(c))

	c.cmd = rootCmd
	return c
}

// execute runs the command tree without translating a returned error
// into a process exit, so tests can inspect the error directly.
func (c *rootCommand) execute() error {
	return c.cmd.ExecuteContext(c.globalState.ctx)
}

func (c *rootCommand) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	conf, err := config.Load(cmd.Flags(), c.globalState.fs, c.globalState.envVars)
	if err != nil {
		return err
	}
	c.conf = conf

	if err := c.setupLoggers(); err != nil {
		return err
	}

	stdlog.SetOutput(c.globalState.logger.Writer())
	c.globalState.logger.Debugf("chrome-cli version: v%s", consts.FullVersion())
	return nil
}

// Execute adds all child commands to the root command and runs it. It is
// called once by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gs := newGlobalState(ctx)
	rootCmd := newRootCommand(gs)

	if err := rootCmd.execute(); err != nil {
		exitCode := int(exitcodes.GeneralError)
		var ecerr errext.HasExitCode
		if errors.As(err, &ecerr) {
			exitCode = int(ecerr.ExitCode())
		}

		errText := err.Error()
		var xerr errext.Exception
		if errors.As(err, &xerr) {
			errText = xerr.StackTrace()
		}

		fields := logrus.Fields{}
		var herr errext.HasHint
		if errors.As(err, &herr) {
			fields["hint"] = herr.Hint()
		}

		gs.logger.WithFields(fields).Error(errText)
		os.Exit(exitCode) //nolint:gocritic
	}
}

// RawFormatter prints nothing but the message, for log-format=raw.
type RawFormatter struct{}

// Format renders a single log entry.
func (f RawFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}

func (c *rootCommand) setupLoggers() error {
	gs := c.globalState

	if c.conf.Verbose.Valid && c.conf.Verbose.Bool {
		gs.logger.SetLevel(logrus.DebugLevel)
	}
	noColor := c.conf.NoColor.Valid && c.conf.NoColor.Bool

	loggerForceColors := false
	switch line := c.conf.LogOutput.String; {
	case line == "stderr":
		loggerForceColors = !noColor && gs.stdErr.IsTTY
		gs.logger.SetOutput(gs.stdErr)
	case line == "stdout":
		loggerForceColors = !noColor && gs.stdOut.IsTTY
		gs.logger.SetOutput(gs.stdOut)
	case line == "none":
		gs.logger.SetOutput(io.Discard)
	case strings.HasPrefix(line, "file"):
		hook, err := log.FileHookFromConfigLine(gs.ctx, gs.fallbackLogger, line)
		if err != nil {
			return err
		}
		gs.logger.AddHook(hook)
		gs.logger.SetOutput(io.Discard)
	default:
		return fmt.Errorf("unsupported log output %q", line)
	}

	switch c.conf.LogFormat.String {
	case "raw":
		gs.logger.SetFormatter(&RawFormatter{})
	case "json":
		gs.logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		gs.logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   loggerForceColors,
			DisableColors: noColor,
		})
	}
	return nil
}
