package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Nunley-Media-Group/chrome-cli/internal/chrome"
)

// asErrext adapts a chrome.Error into the errext taxonomy so Execute's
// exit-code/hint handling applies to it, and passes any other error
// through unchanged.
func asErrext(err error) error {
	var cerr *chrome.Error
	if errors.As(err, &cerr) {
		return cerr.AsErrext()
	}
	return err
}

func sessionHintPath(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".chrome-cli", "session.json")
}

func envLookup(env map[string]string) chrome.EnvLookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func resolveOptionsFromConfig(c *rootCommand) chrome.ResolveOptions {
	gs := c.globalState
	opts := chrome.ResolveOptions{
		Host:            c.conf.Host.String,
		WSURL:           c.conf.WSURL.String,
		SessionHintPath: sessionHintPath(gs.envVars),
		Fs:              gs.fs,
		Env:             envLookup(gs.envVars),
	}
	if c.conf.Port.Valid {
		port := uint16(c.conf.Port.Int64)
		opts.ExplicitPort = &port
	}
	return opts
}

func getTargetsCmd(c *rootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List Chrome DevTools targets",
		Long: `Resolve a connection to a running Chrome instance and list its
debuggable targets, the same list "chrome://inspect" shows.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTargets(cmd.Context(), c, cmd)
		},
	}
}

func runTargets(ctx context.Context, c *rootCommand, cmd *cobra.Command) error {
	conn, err := chrome.Resolve(ctx, resolveOptionsFromConfig(c))
	if err != nil {
		return asErrext(err)
	}

	targets, err := chrome.QueryTargets(ctx, conn.Host, conn.Port)
	if err != nil {
		return asErrext(err)
	}

	out := cmd.OutOrStdout()
	for i, t := range targets {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, t.Type, t.Title, t.URL)
	}
	return nil
}
